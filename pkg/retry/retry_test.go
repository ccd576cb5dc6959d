package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestDo(t *testing.T) {
	t.Run("returns nil after a transient failure", func(t *testing.T) {
		calls := 0
		var logged []int
		err := Do(context.Background(), fastConfig(3), "scheduler", func(ctx context.Context) error {
			calls++
			if calls < 2 {
				return errors.New("connection reset")
			}
			return nil
		}, func(attempt int, err error, nextDelay time.Duration) {
			logged = append(logged, attempt)
		})

		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.Equal(t, []int{1}, logged)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fastConfig(3), "scheduler", func(ctx context.Context) error {
			calls++
			return errors.New("timeout")
		}, nil)

		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.Contains(t, err.Error(), "scheduler: max retry attempts (3) exceeded")
	})

	t.Run("stops on permanent errors", func(t *testing.T) {
		sentinel := errors.New("slot taken")
		calls := 0
		err := Do(context.Background(), fastConfig(5), "", func(ctx context.Context) error {
			calls++
			return Permanent(sentinel)
		}, nil)

		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 1, calls)
	})

	t.Run("aborts when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := Do(ctx, fastConfig(3), "", func(ctx context.Context) error {
			return nil
		}, nil)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRequestConfig(t *testing.T) {
	assert.Equal(t, 1, RequestConfig(0).MaxAttempts)
	assert.Equal(t, 3, RequestConfig(3).MaxAttempts)
}
