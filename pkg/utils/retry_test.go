package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryWithBackoff {
	return RetryWithBackoff{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestExecuteSucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := fastRetry(3).Execute(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteReturnsLastError(t *testing.T) {
	wantErr := errors.New("still failing")
	calls := 0
	err := fastRetry(3).Execute(context.Background(), func() error {
		calls++
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, calls)
}

func TestExecuteStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := fastRetry(5).Execute(ctx, func() error {
		calls++
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestRetryWithBackoffResult(t *testing.T) {
	calls := 0
	got, err := RetryWithBackoffResult(context.Background(), fastRetry(3), func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("transient")
		}
		return "profile", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "profile", got)
	assert.Equal(t, 2, calls)
}
