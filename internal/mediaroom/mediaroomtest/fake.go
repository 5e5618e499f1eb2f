// Package mediaroomtest provides in-memory room collaborators for tests.
package mediaroomtest

import (
	"context"
	"sync"

	"github.com/vovakirdan/wirepair/internal/capture"
	"github.com/vovakirdan/wirepair/internal/mediaroom"
)

// Method names recorded by FakeConn.
const (
	MethodJoin               = "Join"
	MethodLeave              = "Leave"
	MethodUpdateSubscription = "UpdateSubscription"
	MethodSetLocalVideo      = "SetLocalVideo"
	MethodStartScreenShare   = "StartScreenShare"
	MethodStopScreenShare    = "StopScreenShare"
	MethodStartLiveStreaming = "StartLiveStreaming"
	MethodStopLiveStreaming  = "StopLiveStreaming"
)

// Call is one recorded method invocation.
type Call struct {
	Method string
	Args   []any
}

// FakeConn is a mediaroom.Conn that records calls and emits the events a
// real room would emit on success.
type FakeConn struct {
	mu      sync.Mutex
	state   mediaroom.MeetingState
	localID string
	calls   []Call
	errs    map[string]error
	gates   map[string]chan struct{}
	events  chan mediaroom.Event
}

// NewFakeConn returns a connection that reports localID once joined.
func NewFakeConn(localID string) *FakeConn {
	return &FakeConn{
		state:   mediaroom.MeetingNew,
		localID: localID,
		errs:    make(map[string]error),
		gates:   make(map[string]chan struct{}),
		events:  make(chan mediaroom.Event, 256),
	}
}

var _ mediaroom.Conn = (*FakeConn)(nil)

// FailWith makes method return err until cleared with a nil err.
func (f *FakeConn) FailWith(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

// Hold makes method block until the returned release func is called.
func (f *FakeConn) Hold(method string) (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[method] = gate
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.gates, method)
			f.mu.Unlock()
			close(gate)
		})
	}
}

// SetState forces the meeting state, e.g. to simulate a slow load.
func (f *FakeConn) SetState(s mediaroom.MeetingState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// Emit delivers ev as if the room reported it.
func (f *FakeConn) Emit(ev mediaroom.Event) {
	f.events <- ev
}

// Calls returns the recorded invocations of method, or all calls when method is "".
func (f *FakeConn) Calls(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many times method was invoked.
func (f *FakeConn) Count(method string) int {
	return len(f.Calls(method))
}

func (f *FakeConn) MeetingState() mediaroom.MeetingState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *FakeConn) Events() <-chan mediaroom.Event {
	return f.events
}

func (f *FakeConn) Join(ctx context.Context, url string, token *string) error {
	f.SetState(mediaroom.MeetingJoining)
	if err := f.record(ctx, MethodJoin, url, token); err != nil {
		f.SetState(mediaroom.MeetingError)
		return err
	}
	// The event is queued before the state flips, so a caller that sees
	// MeetingJoined knows the joined event is already pending.
	f.Emit(mediaroom.Event{Kind: mediaroom.EventJoined, ParticipantID: f.localID})
	f.SetState(mediaroom.MeetingJoined)
	return nil
}

func (f *FakeConn) Leave(ctx context.Context) error {
	if err := f.record(ctx, MethodLeave); err != nil {
		return err
	}
	f.SetState(mediaroom.MeetingLeft)
	f.Emit(mediaroom.Event{Kind: mediaroom.EventLeft})
	return nil
}

func (f *FakeConn) UpdateSubscription(ctx context.Context, participantID string, sub mediaroom.Subscription) error {
	return f.record(ctx, MethodUpdateSubscription, participantID, sub)
}

func (f *FakeConn) SetLocalVideo(ctx context.Context, enabled bool) error {
	return f.record(ctx, MethodSetLocalVideo, enabled)
}

func (f *FakeConn) StartScreenShare(ctx context.Context, stream capture.Stream) error {
	if err := f.record(ctx, MethodStartScreenShare, stream.ID()); err != nil {
		return err
	}
	f.Emit(mediaroom.Event{Kind: mediaroom.EventScreenShareStarted})
	return nil
}

func (f *FakeConn) StopScreenShare(ctx context.Context) error {
	if err := f.record(ctx, MethodStopScreenShare); err != nil {
		return err
	}
	f.Emit(mediaroom.Event{Kind: mediaroom.EventScreenShareStopped})
	return nil
}

func (f *FakeConn) StartLiveStreaming(ctx context.Context, rtmpURL string) error {
	if err := f.record(ctx, MethodStartLiveStreaming, rtmpURL); err != nil {
		return err
	}
	f.Emit(mediaroom.Event{Kind: mediaroom.EventLiveStreamStarted})
	return nil
}

func (f *FakeConn) StopLiveStreaming(ctx context.Context) error {
	if err := f.record(ctx, MethodStopLiveStreaming); err != nil {
		return err
	}
	f.Emit(mediaroom.Event{Kind: mediaroom.EventLiveStreamStopped})
	return nil
}

func (f *FakeConn) record(ctx context.Context, method string, args ...any) error {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Method: method, Args: args})
	gate := f.gates[method]
	err := f.errs[method]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Provisioner is a mediaroom.Provisioner returning a fixed room or error.
type Provisioner struct {
	Room mediaroom.Room
	Err  error

	mu    sync.Mutex
	calls int
}

func (p *Provisioner) CreateRoom(context.Context) (mediaroom.Room, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.Err != nil {
		return mediaroom.Room{}, p.Err
	}
	return p.Room, nil
}

// Calls returns how many rooms were requested.
func (p *Provisioner) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
