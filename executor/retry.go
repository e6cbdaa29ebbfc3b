package executor

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	// MaxAttempts bounds live-leg retries.
	MaxAttempts = 3

	// BaseBackoff is the first retry delay; it doubles per attempt.
	BaseBackoff = time.Second
)

// RetryPolicy wraps live collaborator calls in a bounded retry with
// exponential backoff. The simulated path never goes through it.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

// DefaultRetryPolicy returns the production policy: 3 attempts with
// 1s, 2s, 4s delays.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: MaxAttempts, BaseDelay: BaseBackoff}
}

// Do runs fn up to Attempts times, sleeping an exponentially growing
// delay after each failure, and returns the last error after exhaustion.
// Unimplemented operations are retried like any other failure; the
// sentinel survives wrapping so callers can still match on it.
func (p RetryPolicy) Do(ctx context.Context, op string, logger *zap.Logger, fn func() error) error {
	var lastErr error
	delay := p.BaseDelay

	for attempt := 1; attempt <= p.Attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		logger.Warn("Leg attempt failed",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(lastErr))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return lastErr
}
