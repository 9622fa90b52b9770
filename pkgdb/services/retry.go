package services

import (
	"context"
	"errors"
	"log/slog"
	"pkgdb/pkgdb/schema"
	"time"

	"github.com/cenk/backoff"
)

// DefaultRetryBackOff retries up to maxRetries times with exponential delays.
func DefaultRetryBackOff(maxRetries int) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = 10 * time.Second
	return backoff.WithMaxRetries(b, uint64(maxRetries))
}

// RetryOnConflict runs op until it succeeds, fails with an error other than
// ErrConflict, or the backoff gives up. Operations never retry on their own.
func RetryOnConflict(ctx context.Context, b backoff.BackOff, op func() error) error {
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !errors.Is(err, schema.ErrConflict) {
			return backoff.Permanent(err)
		}
		slog.Warn("conflicting update, retrying", "attempt", attempt, "error", err)
		return err
	}, backoff.WithContext(b, ctx))
}
