package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_SucceedsFirstTry(t *testing.T) {
	calls := 0

	err := WithRetry(context.Background(), func() error {
		calls++

		return nil
	}, 3, time.Millisecond, 2.0)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_PermanentFailureInvokedExactlyNPlusOneTimes(t *testing.T) {
	calls := 0
	permanent := errors.New("connection refused")

	err := WithRetry(context.Background(), func() error {
		calls++

		return permanent
	}, 3, time.Millisecond, 2.0)

	require.Error(t, err)
	assert.Equal(t, 4, calls)
	// The last error is returned unchanged: same identity, same message.
	assert.Same(t, permanent, err) //nolint:testifylint
	assert.Equal(t, "connection refused", err.Error())
}

func TestWithRetry_EventualSuccess(t *testing.T) {
	calls := 0

	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}

		return nil
	}, 5, time.Millisecond, 2.0)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ExponentialBackoffTiming(t *testing.T) {
	calls := 0
	start := time.Now()

	_ = WithRetry(context.Background(), func() error {
		calls++

		return errors.New("always")
	}, 2, 20*time.Millisecond, 2.0)

	// Waits: 20ms after attempt 0, 40ms after attempt 1.
	elapsed := time.Since(start)
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
}

func TestWithRetry_NonRetriableFailsImmediately(t *testing.T) {
	calls := 0

	err := WithRetry(context.Background(), func() error {
		calls++

		return NonRetriable(errors.New("invalid JSON body"))
	}, 5, time.Millisecond, 2.0)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "invalid JSON body", err.Error())
	assert.True(t, IsNonRetriable(err))
}

func TestWithRetry_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	calls := 0

	err := WithRetry(ctx, func() error {
		calls++

		return errors.New("transient")
	}, 5, time.Second, 2.0)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_JitterHook(t *testing.T) {
	jitterCalls := 0

	_ = WithRetry(context.Background(), func() error {
		return errors.New("always")
	}, 2, time.Millisecond, 2.0, WithJitter(func(backoff time.Duration) time.Duration {
		jitterCalls++

		return 0
	}))

	assert.Equal(t, 2, jitterCalls)
}

func TestIsNonRetriable(t *testing.T) {
	assert.False(t, IsNonRetriable(nil))
	assert.False(t, IsNonRetriable(errors.New("plain")))
	assert.True(t, IsNonRetriable(NonRetriable(errors.New("x"))))

	// Survives wrapping.
	wrapped := NonRetriable(errors.New("inner"))
	assert.True(t, IsNonRetriable(errors.Join(errors.New("outer"), wrapped)))
}

func TestNonRetriable_NilPassthrough(t *testing.T) {
	assert.NoError(t, NonRetriable(nil))
}
