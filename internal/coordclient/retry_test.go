package coordclient

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicySucceedsWithinBudget(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(_ context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryPolicyExhausted(t *testing.T) {
	cause := errors.New("refused")
	p := RetryPolicy{MaxAttempts: 2, Backoff: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(context.Context, int) error {
		calls++
		return cause
	})
	if !errors.Is(err, ErrRetriesExhausted) || !errors.Is(err, cause) {
		t.Fatalf("expected exhausted error wrapping cause, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetryPolicyZeroMeansOneAttempt(t *testing.T) {
	calls := 0
	_ = RetryPolicy{}.Do(context.Background(), func(context.Context, int) error {
		calls++
		return errors.New("refused")
	})
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryPolicyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxAttempts: 5, Backoff: time.Hour}
	err := p.Do(ctx, func(context.Context, int) error {
		cancel()
		return errors.New("refused")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
