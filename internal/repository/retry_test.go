package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), time.Second, 3, func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestWithRetryRecoversFromTransientFailure(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), time.Second, 3, func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("connection reset")
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestWithRetryPermanentErrorShortCircuits(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), time.Second, 3, func(ctx context.Context) error {
		calls++
		return ErrNotFound
	})

	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 1, calls)
}

func TestWithRetryDuplicateKeyShortCircuits(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), time.Second, 3, func(ctx context.Context) error {
		calls++
		return ErrDuplicateKey
	})

	require.ErrorIs(t, err, ErrDuplicateKey)
	require.Equal(t, 1, calls)
}

func TestWithRetryExhaustionWrapsErrUnavailable(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), time.Second, 3, func(ctx context.Context) error {
		calls++
		return errors.New("connection reset")
	})

	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, 3, calls)
}

func TestWithRetryStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, time.Second, 3, func(ctx context.Context) error {
		return errors.New("connection reset")
	})

	require.ErrorIs(t, err, context.Canceled)
}
