package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMemoryKV(t *testing.T) *LocalKV {
	t.Helper()
	kv, err := NewMemoryKV()
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestLocalKV(t *testing.T) {
	for name, open := range map[string]func(t *testing.T) *LocalKV{
		"Memory": newMemoryKV,
		"LevelDB": func(t *testing.T) *LocalKV {
			kv, err := NewLevelDBKV(t.TempDir())
			require.NoError(t, err)
			t.Cleanup(func() { _ = kv.Close() })
			return kv
		},
	} {
		t.Run(name, func(t *testing.T) {
			kv := open(t)
			ctx := t.Context()

			_, err := kv.Get(ctx, "k")
			require.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, kv.Set(ctx, "k", []byte("v1")))
			got, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v1"), got)

			require.NoError(t, kv.Delete(ctx, "k"))
			_, err = kv.Get(ctx, "k")
			assert.ErrorIs(t, err, ErrKeyNotFound)
		})
	}
}

func TestLocalKVCanceledContext(t *testing.T) {
	kv := newMemoryKV(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	assert.ErrorIs(t, kv.Set(ctx, "k", []byte("v")), context.Canceled)
}

type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *MockRedisClient) Set(
	ctx context.Context, key string, value any, expiration time.Duration,
) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *MockRedisClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return args.Get(0).(*redis.IntCmd)
}

func (m *MockRedisClient) Ping(ctx context.Context) *redis.StatusCmd {
	args := m.Called(ctx)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *MockRedisClient) Close() error {
	return m.Called().Error(0)
}

func newTestRedisKV(client redisClient, failures uint32) *RedisKV {
	o := defaultRedisOpts()
	RedisPrefixOpt("test:")(&o)
	RedisBreakerOpt(failures, time.Hour)(&o)
	return newRedisKV(client, o)
}

func TestRedisKV(t *testing.T) {
	t.Run("Get", func(t *testing.T) {
		client := new(MockRedisClient)
		client.On("Get", mock.Anything, "test:k").
			Return(redis.NewStringResult("v1", nil))

		got, err := newTestRedisKV(client, 3).Get(t.Context(), "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)
	})

	t.Run("Missing", func(t *testing.T) {
		client := new(MockRedisClient)
		client.On("Get", mock.Anything, "test:k").
			Return(redis.NewStringResult("", redis.Nil))

		kv := newTestRedisKV(client, 1)
		for range 3 {
			_, err := kv.Get(t.Context(), "k")
			require.ErrorIs(t, err, ErrKeyNotFound)
		}
		client.AssertNumberOfCalls(t, "Get", 3)
	})

	t.Run("SetAndDelete", func(t *testing.T) {
		client := new(MockRedisClient)
		client.On("Set", mock.Anything, "test:k", []byte("v"), time.Duration(0)).
			Return(redis.NewStatusResult("OK", nil))
		client.On("Del", mock.Anything, []string{"test:k"}).
			Return(redis.NewIntResult(1, nil))

		kv := newTestRedisKV(client, 3)
		require.NoError(t, kv.Set(t.Context(), "k", []byte("v")))
		require.NoError(t, kv.Delete(t.Context(), "k"))
		client.AssertExpectations(t)
	})

	t.Run("BreakerOpens", func(t *testing.T) {
		errConn := errors.New("connection refused")
		client := new(MockRedisClient)
		client.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(redis.NewStatusResult("", errConn))

		kv := newTestRedisKV(client, 2)
		for range 2 {
			require.ErrorIs(t, kv.Set(t.Context(), "k", []byte("v")), errConn)
		}

		err := kv.Set(t.Context(), "k", []byte("v"))
		require.ErrorIs(t, err, gobreaker.ErrOpenState)
		client.AssertNumberOfCalls(t, "Set", 2)
	})
}
