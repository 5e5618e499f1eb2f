package mobile

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/wirepair/internal/config"
	"github.com/vovakirdan/wirepair/internal/coordclient"
	"github.com/vovakirdan/wirepair/internal/core"
	"github.com/vovakirdan/wirepair/internal/mediaroom"
	"github.com/vovakirdan/wirepair/internal/mediaroom/mediaroomtest"
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

// hostPort strips the scheme the way a user would type the address.
func hostPort(ts *httptest.Server) string {
	return strings.TrimPrefix(ts.URL, "http://")
}

type fixture struct {
	ctrl *Controller
	conn *mediaroomtest.FakeConn
	prov *mediaroomtest.Provisioner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn := mediaroomtest.NewFakeConn("m-1")
	prov := &mediaroomtest.Provisioner{Room: mediaroom.Room{Name: "r1", URL: "https://x/r1"}}
	ctrl := New(Options{
		Provisioner: prov,
		Room:        conn,
		Retry:       coordclient.RetryPolicy{MaxAttempts: 2, Backoff: 10 * time.Millisecond},
		JoinGrace:   50 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go ctrl.Run(ctx)
	t.Cleanup(func() {
		_ = ctrl.Disconnect(context.Background())
		cancel()
	})
	return &fixture{ctrl: ctrl, conn: conn, prov: prov}
}

// connected creates the room and connects it to a fresh coordinator.
func (f *fixture) connected(t *testing.T) (*httptest.Server, *core.Hub) {
	t.Helper()
	ts, hub := startCoordinator(t)
	ctx := context.Background()
	if err := f.ctrl.CreateRoom(ctx); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := f.ctrl.ConnectDesktop(ctx, hostPort(ts)); err != nil {
		t.Fatalf("connect desktop: %v", err)
	}
	waitFor(t, "mobile participant on coordinator", func() bool {
		return hubState(t, hub).Snapshot.Mobile.ID() == "m-1"
	})
	return ts, hub
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

func hubState(t *testing.T, hub *core.Hub) core.State {
	t.Helper()
	state, err := hub.State(context.Background())
	if err != nil {
		t.Fatalf("hub state: %v", err)
	}
	return state
}

// watch opens an observer channel on the coordinator.
func watch(t *testing.T, ts *httptest.Server) *coordclient.Channel {
	t.Helper()
	client, err := coordclient.New(ts.URL)
	if err != nil {
		t.Fatalf("coordinator client: %v", err)
	}
	ch, err := client.OpenChannel(context.Background(), coordclient.ChannelOptions{
		Retry:  coordclient.RetryPolicy{MaxAttempts: 1},
		Buffer: 64,
	})
	if err != nil {
		t.Fatalf("open channel: %v", err)
	}
	t.Cleanup(func() { _ = ch.Close() })
	return ch
}

func nextEvent(t *testing.T, ch *coordclient.Channel) coordclient.Event {
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
	return coordclient.Event{}
}

// announceAndWait announces a desktop id and waits until the mobile has
// seen it, so every event broadcast before it has been handled.
func announceAndWait(t *testing.T, f *fixture, hub *core.Hub, id string) {
	t.Helper()
	if err := hub.AnnounceDesktop(context.Background(), &id); err != nil {
		t.Fatalf("announce: %v", err)
	}
	waitFor(t, "desktop "+id, func() bool {
		got := f.ctrl.Snapshot().DesktopParticipantID
		return got != nil && *got == id
	})
}

func strPtr(s string) *string { return &s }
