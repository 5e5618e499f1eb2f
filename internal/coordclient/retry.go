package coordclient

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRetriesExhausted is returned once a RetryPolicy runs out of attempts.
var ErrRetriesExhausted = errors.New("coordinator connection retries exhausted")

// RetryPolicy bounds reconnection: at most MaxAttempts tries, Backoff apart.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy matches the coordinator client defaults in config.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, Backoff: 2 * time.Second}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// Do calls fn until it succeeds, ctx is done, or the attempts are used up.
// fn receives the 1-based attempt number.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	var lastErr error
	limit := p.attempts()
	for attempt := 1; attempt <= limit; attempt++ {
		if attempt > 1 && p.Backoff > 0 {
			timer := time.NewTimer(p.Backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, limit, lastErr)
}
