package coordclient

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vovakirdan/wirepair/internal/config"
	"github.com/vovakirdan/wirepair/internal/core"
	transporthttp "github.com/vovakirdan/wirepair/internal/transport/http"
)

func startCoordinator(t *testing.T) (*httptest.Server, *core.Hub) {
	t.Helper()

	hub := core.NewHub(nil, core.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	cfg := config.Default()
	ts := httptest.NewServer(transporthttp.NewServer(hub, &cfg, nil, nil).Handler)
	t.Cleanup(ts.Close)
	return ts, hub
}

func newClient(t *testing.T, ts *httptest.Server) *Client {
	t.Helper()
	c, err := New(ts.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func nextEvent(t *testing.T, ch *Channel) Event {
	t.Helper()
	select {
	case ev, ok := <-ch.Events():
		if !ok {
			t.Fatalf("channel closed")
		}
		return ev
	case <-time.After(3 * time.Second):
		t.Fatalf("timeout waiting for event")
	}
	return Event{}
}

func strPtr(s string) *string { return &s }
