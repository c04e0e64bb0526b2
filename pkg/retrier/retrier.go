// Package retrier provides a bounded retry policy for market data calls.
// Order submissions must never go through it: a duplicate data fetch is
// harmless, a duplicate order is not.
package retrier

import (
	"context"
	"time"
)

const (
	defaultDelay       = 5 * time.Second
	defaultMaxAttempts = 3
)

// Retrier executes a function up to a fixed number of attempts with a fixed
// delay between them.
type Retrier struct {
	delay       time.Duration
	maxAttempts int
}

// Option configures the Retrier.
type Option func(*Retrier)

// WithDelay sets the delay between attempts.
func WithDelay(d time.Duration) Option {
	return func(r *Retrier) {
		r.delay = d
	}
}

// WithMaxAttempts sets the total number of attempts, including the first.
func WithMaxAttempts(n int) Option {
	return func(r *Retrier) {
		if n >= 1 {
			r.maxAttempts = n
		}
	}
}

// New creates a Retrier with default values and optional overrides.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		delay:       defaultDelay,
		maxAttempts: defaultMaxAttempts,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Do executes fn until it succeeds, the attempt budget is exhausted, or the
// context is cancelled. The last error is returned.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.delay):
			}
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
	}

	return err
}

// DoWithData executes fn with retries and returns its value.
func DoWithData[T any](r *Retrier, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var e error
		result, e = fn(ctx)
		return e
	})
	return result, err
}
