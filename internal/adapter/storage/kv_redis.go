package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/storefront/pkg/retry"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

var _ KV = (*RedisKV)(nil)

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisKV keeps the state in Redis. Calls go through a circuit breaker,
// so an unavailable server fails fast instead of stalling each request.
type RedisKV struct {
	client redisClient
	cb     *gobreaker.CircuitBreaker
	prefix string
}

type RedisOpt func(*redisOpts)

type redisOpts struct {
	prefix       string
	pingAttempts int
	breaker      gobreaker.Settings
}

// RedisPrefixOpt prepends prefix to every key.
func RedisPrefixOpt(prefix string) RedisOpt {
	return func(o *redisOpts) {
		o.prefix = prefix
	}
}

func RedisPingAttemptsOpt(n int) RedisOpt {
	return func(o *redisOpts) {
		o.pingAttempts = n
	}
}

// RedisBreakerOpt sets the trip threshold and the open state duration.
func RedisBreakerOpt(failures uint32, openTimeout time.Duration) RedisOpt {
	return func(o *redisOpts) {
		o.breaker.ReadyToTrip = func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		}
		o.breaker.Timeout = openTimeout
	}
}

func defaultRedisOpts() redisOpts {
	return redisOpts{
		pingAttempts: 5,
		breaker: gobreaker.Settings{
			Name:        "redis-kv",
			MaxRequests: 1,
			Interval:    10 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		},
	}
}

// NewRedisKV connects to the server at url and waits until it answers a
// ping.
func NewRedisKV(ctx context.Context, url string, opts ...RedisOpt) (*RedisKV, error) {
	const op = "NewRedisKV"
	log := slog.With("op", op)

	clientOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid url: %w", op, err)
	}
	client := redis.NewClient(clientOpts)

	o := defaultRedisOpts()
	for _, opt := range opts {
		opt(&o)
	}

	err = retry.Do(ctx, retry.RetryConfig{
		MaxAttempts: o.pingAttempts,
		Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
	}, func() error {
		err := client.Ping(ctx).Err()
		if err != nil {
			log.Warn("redis ping failed", "err", err)
		}
		return err
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: redis is unavailable: %w", op, err)
	}
	log.Info("redis is available", "addr", clientOpts.Addr)

	return newRedisKV(client, o), nil
}

func newRedisKV(client redisClient, o redisOpts) *RedisKV {
	st := o.breaker
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, redis.Nil)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		slog.Warn("circuit breaker state changed",
			"name", name, "from", from.String(), "to", to.String())
	}
	return &RedisKV{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(st),
		prefix: o.prefix,
	}
}

func (kv *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "RedisKV.Get"

	v, err := kv.cb.Execute(func() (any, error) {
		return kv.client.Get(ctx, kv.prefix+key).Bytes()
	})
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", op, ErrKeyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v.([]byte), nil
}

func (kv *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	const op = "RedisKV.Set"

	_, err := kv.cb.Execute(func() (any, error) {
		return nil, kv.client.Set(ctx, kv.prefix+key, value, 0).Err()
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (kv *RedisKV) Delete(ctx context.Context, key string) error {
	const op = "RedisKV.Delete"

	_, err := kv.cb.Execute(func() (any, error) {
		return nil, kv.client.Del(ctx, kv.prefix+key).Err()
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (kv *RedisKV) Close() error {
	const op = "RedisKV.Close"
	if err := kv.client.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	slog.Info("redis client is closed", "op", op)
	return nil
}
