package core

import (
	"context"
	"testing"
	"time"
)

func startHub(t *testing.T) (*Hub, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)

	hub := NewHub(nil, Options{})
	go hub.Run(ctx)
	return hub, ctx
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// nextEvent returns the next queued event without skipping any.
func nextEvent(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()

	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatalf("event channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("no event received")
		return nil
	}
}

func expectNoEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %v", ev.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
