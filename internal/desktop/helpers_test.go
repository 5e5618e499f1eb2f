package desktop

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vovakirdan/wirepair/internal/capture"
	"github.com/vovakirdan/wirepair/internal/config"
	"github.com/vovakirdan/wirepair/internal/coordclient"
	"github.com/vovakirdan/wirepair/internal/core"
	"github.com/vovakirdan/wirepair/internal/mediaroom"
	"github.com/vovakirdan/wirepair/internal/mediaroom/mediaroomtest"
	"github.com/vovakirdan/wirepair/internal/session"
	transporthttp "github.com/vovakirdan/wirepair/internal/transport/http"
)

type fakeStream struct {
	id      string
	stopped atomic.Int32
}

func (s *fakeStream) ID() string { return s.id }
func (s *fakeStream) Stop() { s.stopped.Add(1) }

type fakeCapturer struct {
	mu      sync.Mutex
	streams []*fakeStream
	err     error
	gate    chan struct{}
}

func (f *fakeCapturer) Acquire(ctx context.Context, src capture.Source) (capture.Stream, error) {
	f.mu.Lock()
	stream := &fakeStream{id: fmt.Sprintf("%s-%d", src.ID, len(f.streams)+1)}
	f.streams = append(f.streams, stream)
	gate, err := f.gate, f.err
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (f *fakeCapturer) acquired() []*fakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeStream(nil), f.streams...)
}

type fixture struct {
	ctrl *Controller
	conn *mediaroomtest.FakeConn
	cap  *fakeCapturer
	hub  *core.Hub
}

func newFixture(t *testing.T, configure ...func(*Options)) *fixture {
	t.Helper()

	hub := core.NewHub(nil, core.Options{})
	hubCtx, hubCancel := context.WithCancel(context.Background())
	t.Cleanup(hubCancel)
	go hub.Run(hubCtx)

	cfg := config.Default()
	ts := httptest.NewServer(transporthttp.NewServer(hub, &cfg, nil, nil).Handler)
	t.Cleanup(ts.Close)

	coord, err := coordclient.New(ts.URL)
	if err != nil {
		t.Fatalf("coordinator client: %v", err)
	}

	conn := mediaroomtest.NewFakeConn("p-99")
	capturer := &fakeCapturer{}
	opts := Options{
		Room:        conn,
		Capturer:    capturer,
		Coordinator: coord,
		Retry:       coordclient.RetryPolicy{MaxAttempts: 1},
	}
	for _, fn := range configure {
		fn(&opts)
	}
	ctrl := New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	go ctrl.Run(ctx)
	t.Cleanup(func() {
		_ = ctrl.Close()
		cancel()
	})

	if err := ctrl.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return &fixture{ctrl: ctrl, conn: conn, cap: capturer, hub: hub}
}

func (f *fixture) link(t *testing.T, name, url string) {
	t.Helper()
	f.linkWithToken(t, name, url, nil)
}

func (f *fixture) linkWithToken(t *testing.T, name, url string, token *string) {
	t.Helper()
	req := session.LinkRequest{RoomName: name, RoomURL: url, Token: token}
	if _, err := f.hub.Link(context.Background(), req); err != nil {
		t.Fatalf("link: %v", err)
	}
}

// drain waits until every room event emitted so far has been handled.
func (f *fixture) drain(t *testing.T) {
	t.Helper()
	marker := fmt.Sprintf("marker-%d", time.Now().UnixNano())
	f.conn.Emit(mediaroom.Event{Kind: mediaroom.EventNonFatalError, Err: errors.New(marker)})
	waitFor(t, "room events handled", func() bool {
		for _, e := range f.ctrl.Activity().Entries() {
			if strings.Contains(e.Message, marker) {
				return true
			}
		}
		return false
	})
}

type fakeTokens struct {
	mu    sync.Mutex
	calls [][2]string
}

func (f *fakeTokens) JoinToken(room, identity string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, [2]string{room, identity})
	return "minted-" + room + "-" + identity, nil
}

func tokenArg(call mediaroomtest.Call) string {
	token, _ := call.Args[1].(*string)
	if token == nil {
		return ""
	}
	return *token
}

// joined links r1 and waits until the desktop has joined and announced.
func (f *fixture) joined(t *testing.T) {
	t.Helper()
	f.link(t, "r1", "https://x/r1")
	waitFor(t, "joined", func() bool { return f.ctrl.Stage() == StageJoined })
	waitFor(t, "desktop announced", func() bool { return f.desktopID() == "p-99" })
}

func (f *fixture) desktopID() string {
	state, err := f.hub.State(context.Background())
	if err != nil {
		return ""
	}
	return state.Snapshot.Desktop.ID()
}

func (f *fixture) held() capture.Stream {
	f.ctrl.mu.Lock()
	defer f.ctrl.mu.Unlock()
	return f.ctrl.stream
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
