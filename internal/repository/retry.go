package repository

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// permanent errors that a retry cannot fix
func isPermanentError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, context.Canceled)
}

// WithRetry runs a store operation with a bounded per-attempt timeout and
// exponential backoff on transient failures. Permanent errors are returned
// immediately; once attempts are exhausted the last error is surfaced wrapped
// in ErrUnavailable so callers can treat the store as down.
func WithRetry(ctx context.Context, timeout time.Duration, maxRetries int, fn func(ctx context.Context) error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		err = fn(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if isPermanentError(err) {
			return err
		}

		// Calculate backoff duration
		backoff := time.Duration(1<<uint(attempt)) * 100 * time.Millisecond
		if backoff > 5*time.Second {
			backoff = 5 * time.Second
		}

		select {
		case <-time.After(backoff):
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
