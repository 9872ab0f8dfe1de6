// Package retry wraps fallible operations with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"math"
	"time"
)

const (
	DefaultMaxAttempts   = 3
	DefaultBaseDelay     = 1 * time.Second
	DefaultBackoffFactor = 2.0
)

// Operation is a fallible unit of work.
type Operation func() error

// JitterFunc returns an additional wait for the given backoff. The default
// policy is deterministic (no jitter) so behavior stays testable; callers
// may plug a randomized source.
type JitterFunc func(backoff time.Duration) time.Duration

// Option configures WithRetry.
type Option func(*settings)

type settings struct {
	jitter JitterFunc
}

// WithJitter adds a jitter hook applied on top of each backoff wait.
func WithJitter(jitter JitterFunc) Option {
	return func(s *settings) {
		s.jitter = jitter
	}
}

// WithRetry invokes op, retrying failures up to maxAttempts additional times
// with a wait of baseDelay * backoffFactor^attempt between attempts. The
// operation therefore runs at most maxAttempts+1 times. Once the budget is
// exhausted the last error is returned unchanged, never wrapped.
//
// Errors marked non-retriable fail immediately. Callers with configuration
// errors should raise them before entering the wrapped closure; this check
// is the backstop for errors surfacing mid-operation.
func WithRetry(ctx context.Context, op Operation, maxAttempts int, baseDelay time.Duration, backoffFactor float64, opts ...Option) error {
	cfg := &settings{}
	for _, opt := range opts {
		opt(cfg)
	}

	var lastErr error

	for attempt := 0; attempt <= maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(float64(baseDelay) * math.Pow(backoffFactor, float64(attempt-1)))
			if cfg.jitter != nil {
				backoff += cfg.jitter(backoff)
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := op()
		if err == nil {
			return nil
		}

		if IsNonRetriable(err) {
			return err
		}

		lastErr = err
	}

	return lastErr
}

// nonRetriableError marks an error that must never be retried, typically a
// configuration error rather than a transient I/O failure.
type nonRetriableError struct {
	err error
}

func (e *nonRetriableError) Error() string {
	return e.err.Error()
}

func (e *nonRetriableError) Unwrap() error {
	return e.err
}

// NonRetriable marks err as not worth retrying. The error message is
// preserved as-is.
func NonRetriable(err error) error {
	if err == nil {
		return nil
	}

	return &nonRetriableError{err: err}
}

// IsNonRetriable reports whether err was marked with NonRetriable.
func IsNonRetriable(err error) bool {
	var target *nonRetriableError

	return errors.As(err, &target)
}
