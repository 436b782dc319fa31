package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Backoff configures Retry. Delays grow by Factor up to Max, spread by Jitter.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
	Factor   float64
	Jitter   float64

	// Retryable reports whether err is worth another attempt. Nil retries nothing.
	Retryable func(error) bool
}

// DefaultBackoff makes three attempts starting at 100ms
func DefaultBackoff() Backoff {
	return Backoff{Attempts: 3, Initial: 100 * time.Millisecond, Max: 5 * time.Second, Factor: 2, Jitter: 0.2}
}

func (b Backoff) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = b.Initial
	exp.MaxInterval = b.Max
	exp.Multiplier = b.Factor
	exp.RandomizationFactor = b.Jitter
	exp.MaxElapsedTime = 0

	retries := b.Attempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// Retry calls fn until it succeeds, returns a non-retryable error, runs out
// of attempts or ctx is done.
func Retry[T any](ctx context.Context, b Backoff, fn func() (T, error)) (T, error) {
	var zero T
	attempts := 0

	result, err := backoff.RetryWithData(func() (T, error) {
		if err := ctx.Err(); err != nil {
			return zero, backoff.Permanent(err)
		}
		attempts++
		result, err := fn()
		if err != nil && (b.Retryable == nil || !b.Retryable(err)) {
			return zero, backoff.Permanent(err)
		}
		return result, err
	}, b.policy(ctx))
	if err == nil {
		return result, nil
	}
	if ctx.Err() == nil && b.Retryable != nil && b.Retryable(err) {
		return zero, fmt.Errorf("gave up after %d attempts: %w", attempts, err)
	}
	return zero, err
}
