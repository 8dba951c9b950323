// Package retry repeats a call with a backoff until it succeeds or gives
// up.
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Backoff returns the pause after the given failed attempt, counted from 1.
type Backoff func(attempt int) time.Duration

// ShouldRetry reports whether the error is worth another attempt.
type ShouldRetry func(error) bool

// RetryConfig zero values mean one attempt, exponential backoff from
// 100ms and every error retryable.
type RetryConfig struct {
	MaxAttempts int
	Backoff     Backoff
	ShouldRetry ShouldRetry
}

func (c RetryConfig) withDefaults() RetryConfig {
	c.MaxAttempts = max(c.MaxAttempts, 1)
	if c.Backoff == nil {
		c.Backoff = ExponentialBackoff(100 * time.Millisecond)
	}
	if c.ShouldRetry == nil {
		c.ShouldRetry = func(error) bool { return true }
	}
	return c
}

// ExponentialBackoff doubles delay on every attempt and adds up to half of
// it as jitter.
func ExponentialBackoff(delay time.Duration) Backoff {
	return func(attempt int) time.Duration {
		pause := delay << attempt
		if pause < 2 {
			return pause
		}
		return pause + time.Duration(rand.Int64N(int64(pause/2))+1)
	}
}

func LinearBackoff(delay time.Duration) Backoff {
	return func(int) time.Duration { return delay }
}

func Do(ctx context.Context, c RetryConfig, fn func() error) error {
	_, err := DoWithResult(ctx, c, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult returns the result of the first successful call. The last
// error is returned when attempts run out or the error is not retryable;
// on cancellation it is joined with the context error.
func DoWithResult[T any](
	ctx context.Context, c RetryConfig, fn func() (T, error),
) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	c = c.withDefaults()
	for attempt := 1; ; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if attempt >= c.MaxAttempts || !c.ShouldRetry(err) {
			return zero, err
		}
		if werr := sleep(ctx, c.Backoff(attempt)); werr != nil {
			return zero, fmt.Errorf("%w: %w", werr, err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
