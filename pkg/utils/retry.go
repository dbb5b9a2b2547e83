// Package utils provides small shared helpers.
package utils

import (
	"context"
	"time"
)

// RetryWithBackoff executes a function with exponential backoff.
// It is used only for idempotent reads (profile fetches); order
// placement is never routed through it.
type RetryWithBackoff struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryWithBackoff returns default retry configuration.
func DefaultRetryWithBackoff() RetryWithBackoff {
	return RetryWithBackoff{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Execute runs the function with retry and backoff.
func (r RetryWithBackoff) Execute(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := r.InitialDelay

	for attempt := 0; attempt < r.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := fn(); err != nil {
			lastErr = err

			if attempt < r.MaxAttempts-1 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}

				delay = time.Duration(float64(delay) * r.BackoffFactor)
				if delay > r.MaxDelay {
					delay = r.MaxDelay
				}
			}
		} else {
			return nil
		}
	}

	return lastErr
}

// RetryWithBackoffResult runs a function that returns a result with retry
// and backoff.
func RetryWithBackoffResult[T any](ctx context.Context, r RetryWithBackoff, fn func() (T, error)) (T, error) {
	var result T
	err := r.Execute(ctx, func() error {
		var innerErr error
		result, innerErr = fn()
		return innerErr
	})
	return result, err
}
