package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	// Given: a function failing twice with a retryable error
	attempts := 0
	fn := func() error {
		attempts++
		if attempts < 3 {
			return New(ErrCodeBackendTimeout, "timeout", nil)
		}
		return nil
	}

	// When
	err := Retry(context.Background(), fastRetry(3), fn)

	// Then
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_StopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetry(3), func() error {
		attempts++
		return BadParameters("bad")
	})

	assert.ErrorIs(t, err, ErrBadParameters)
	assert.Equal(t, 1, attempts)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	cfg := fastRetry(2)
	cfg.RetryIf = func(error) bool { return true }

	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return errors.New("flaky")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 retries")
	assert.Equal(t, 3, attempts)
}

func TestRetry_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Retry(ctx, fastRetry(3), func() error {
		attempts++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, attempts)
}

func TestRetryWithResult_ReturnsValue(t *testing.T) {
	attempts := 0
	cfg := fastRetry(2)
	cfg.Jitter = true

	got, err := RetryWithResult(context.Background(), cfg, func() (int, error) {
		attempts++
		if attempts == 1 {
			return 0, New(ErrCodeBackendUnavailable, "503", nil)
		}
		return 7, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.True(t, cfg.Jitter)
	assert.Nil(t, cfg.RetryIf)
}
