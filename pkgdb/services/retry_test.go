package services

import (
	"context"
	"errors"
	"fmt"
	"pkgdb/pkgdb/schema"
	"testing"

	"github.com/cenk/backoff"
	"github.com/stretchr/testify/assert"
)

func TestRetryOnConflict(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := RetryOnConflict(ctx, backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("stale row: %w", schema.ErrConflict)
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryOnConflictGivesUp(t *testing.T) {
	calls := 0
	err := RetryOnConflict(context.Background(), backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2), func() error {
		calls++
		return schema.ErrConflict
	})
	assert.ErrorIs(t, err, schema.ErrConflict)
	assert.Equal(t, 3, calls)
}

func TestRetryOnConflictPermanent(t *testing.T) {
	calls := 0
	err := RetryOnConflict(context.Background(), backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 5), func() error {
		calls++
		return fmt.Errorf("bad edge: %w", schema.ErrInvalidTransition)
	})
	assert.ErrorIs(t, err, schema.ErrInvalidTransition)
	assert.Equal(t, 1, calls)
}

func TestRetryOnConflictCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := RetryOnConflict(ctx, backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 5), func() error {
		calls++
		return schema.ErrConflict
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDefaultRetryBackOff(t *testing.T) {
	b := DefaultRetryBackOff(2)
	b.Reset()
	assert.NotEqual(t, backoff.Stop, b.NextBackOff())
	assert.NotEqual(t, backoff.Stop, b.NextBackOff())
	assert.Equal(t, backoff.Stop, b.NextBackOff())

	assert.True(t, errors.Is(RetryOnConflict(context.Background(), DefaultRetryBackOff(0), func() error {
		return schema.ErrConflict
	}), schema.ErrConflict))
}
