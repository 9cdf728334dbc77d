// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/danielhkuo/squareledger/db"
)

// RetryPolicy bounds how often a conflicting transaction is re-run.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy retries a conflicting transaction up to five times.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:    5,
	InitialBackoff: 10 * time.Millisecond,
	MaxBackoff:     250 * time.Millisecond,
}

func isConflict(err error) bool {
	return errors.Is(err, errConflict) || db.IsTransient(err)
}

// runWithRetry calls op until it succeeds, fails with a non-conflict error,
// exhausts the policy, or ctx ends. onRetry runs before every re-attempt.
func runWithRetry(ctx context.Context, p RetryPolicy, op func() error, onRetry func(error)) (int, error) {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialBackoff
	eb.MaxInterval = p.MaxBackoff
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(p.MaxAttempts-1)), ctx)

	attempts := 0
	err := backoff.RetryNotify(func() error {
		attempts++
		err := op()
		if err == nil || isConflict(err) {
			return err
		}
		return backoff.Permanent(err)
	}, policy, func(err error, wait time.Duration) {
		slog.Warn("visit transaction conflict, retrying", "attempt", attempts, "wait_ms", wait.Milliseconds(), "error", err)
		if onRetry != nil {
			onRetry(err)
		}
	})
	if err == nil {
		return attempts, nil
	}

	if isConflict(err) || ctx.Err() != nil {
		return attempts, &TransientError{Attempts: attempts, Err: err}
	}
	return attempts, err
}
