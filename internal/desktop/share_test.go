package desktop

import (
	"context"
	"errors"
	"testing"

	"github.com/vovakirdan/wirepair/internal/activity"
	"github.com/vovakirdan/wirepair/internal/capture"
	"github.com/vovakirdan/wirepair/internal/mediaroom"
	"github.com/vovakirdan/wirepair/internal/mediaroom/mediaroomtest"
)

var screen = capture.Source{ID: "screen-1", Name: "Entire screen"}

func TestStartScreenShareNeedsSource(t *testing.T) {
	f := newFixture(t)
	f.joined(t)

	if err := f.ctrl.StartScreenShare(context.Background()); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	if len(f.cap.acquired()) != 0 {
		t.Fatalf("acquired without a source")
	}
	if f.ctrl.Activity().Count(activity.LevelWarn) != 1 {
		t.Fatalf("expected one warning entry")
	}
}

func TestScreenShareLifecycle(t *testing.T) {
	f := newFixture(t)
	f.joined(t)
	f.ctrl.SelectSource(screen)
	ctx := context.Background()

	if err := f.ctrl.StartScreenShare(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "sharing", func() bool { return f.ctrl.Snapshot().ScreenShare == ShareSharing })
	streams := f.cap.acquired()
	if len(streams) != 1 || f.held() != streams[0] {
		t.Fatalf("stream not held: %+v", streams)
	}
	if calls := f.conn.Calls(mediaroomtest.MethodStartScreenShare); len(calls) != 1 || calls[0].Args[0] != streams[0].ID() {
		t.Fatalf("stream not handed to the room: %+v", calls)
	}

	if err := f.ctrl.StopScreenShare(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if streams[0].stopped.Load() != 1 || f.held() != nil {
		t.Fatalf("stream not released")
	}
	if f.ctrl.Snapshot().ScreenShare != ShareIdle {
		t.Fatalf("expected idle share")
	}

	if err := f.ctrl.StopScreenShare(ctx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	if n := f.conn.Count(mediaroomtest.MethodStopScreenShare); n != 1 {
		t.Fatalf("stop outside a share must not call the room, got %d calls", n)
	}
}

func TestStartScreenShareTwiceAcquiresOnce(t *testing.T) {
	f := newFixture(t)
	f.joined(t)
	f.ctrl.SelectSource(screen)
	f.cap.gate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- f.ctrl.StartScreenShare(context.Background()) }()
	waitFor(t, "starting", func() bool { return len(f.cap.acquired()) == 1 })

	if err := f.ctrl.StartScreenShare(context.Background()); err != nil {
		t.Fatalf("second start: %v", err)
	}
	close(f.cap.gate)
	if err := <-done; err != nil {
		t.Fatalf("first start: %v", err)
	}
	if n := len(f.cap.acquired()); n != 1 {
		t.Fatalf("expected exactly one acquisition, got %d", n)
	}
}

func TestStopScreenShareReleasesOnFailure(t *testing.T) {
	f := newFixture(t)
	f.joined(t)
	f.ctrl.SelectSource(screen)
	ctx := context.Background()

	if err := f.ctrl.StartScreenShare(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "sharing", func() bool { return f.ctrl.Snapshot().ScreenShare == ShareSharing })
	f.conn.FailWith(mediaroomtest.MethodStopScreenShare, errors.New("not sharing"))

	if err := f.ctrl.StopScreenShare(ctx); err == nil {
		t.Fatalf("expected stop error")
	}
	stream := f.cap.acquired()[0]
	if stream.stopped.Load() != 1 || f.held() != nil {
		t.Fatalf("stream must be released even when stop fails")
	}
	if f.ctrl.Snapshot().ScreenShare != ShareError {
		t.Fatalf("expected share error")
	}
}

func TestStopDuringAcquisitionReleasesLateStream(t *testing.T) {
	f := newFixture(t)
	f.joined(t)
	f.ctrl.SelectSource(screen)
	f.cap.gate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- f.ctrl.StartScreenShare(context.Background()) }()
	waitFor(t, "acquiring", func() bool { return len(f.cap.acquired()) == 1 })

	if err := f.ctrl.StopScreenShare(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	close(f.cap.gate)
	if err := <-done; err != nil {
		t.Fatalf("start: %v", err)
	}
	if f.cap.acquired()[0].stopped.Load() != 1 || f.held() != nil {
		t.Fatalf("late stream not released")
	}
	if f.conn.Count(mediaroomtest.MethodStartScreenShare) != 0 {
		t.Fatalf("superseded stream handed to the room")
	}
}

func TestRoomStartFailureReleasesStream(t *testing.T) {
	f := newFixture(t)
	f.joined(t)
	f.ctrl.SelectSource(screen)
	f.conn.FailWith(mediaroomtest.MethodStartScreenShare, errors.New("publish denied"))

	if err := f.ctrl.StartScreenShare(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if f.cap.acquired()[0].stopped.Load() != 1 || f.held() != nil {
		t.Fatalf("stream not released")
	}
	if f.ctrl.Activity().Count(activity.LevelError) != 1 {
		t.Fatalf("expected one error entry")
	}
}

func TestAcquireFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.joined(t)
	f.ctrl.SelectSource(screen)
	f.cap.err = errors.New("permission denied")

	if err := f.ctrl.StartScreenShare(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	snap := f.ctrl.Snapshot()
	if snap.ScreenShare != ShareError || snap.Stage != StageJoined {
		t.Fatalf("capability error must only touch the share state: %+v", snap)
	}
}

func TestRemoteShareEventsReleaseStream(t *testing.T) {
	tests := []struct {
		name string
		kind mediaroom.EventKind
		want ShareStatus
	}{
		{name: "error", kind: mediaroom.EventScreenShareError, want: ShareError},
		{name: "canceled", kind: mediaroom.EventScreenShareCanceled, want: ShareIdle},
		{name: "stopped", kind: mediaroom.EventScreenShareStopped, want: ShareIdle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.joined(t)
			f.ctrl.SelectSource(screen)
			if err := f.ctrl.StartScreenShare(context.Background()); err != nil {
				t.Fatalf("start: %v", err)
			}
			waitFor(t, "sharing", func() bool { return f.ctrl.Snapshot().ScreenShare == ShareSharing })

			f.conn.Emit(mediaroom.Event{Kind: tt.kind, Err: errors.New("remote")})
			waitFor(t, "share status", func() bool { return f.ctrl.Snapshot().ScreenShare == tt.want })
			if f.cap.acquired()[0].stopped.Load() != 1 || f.held() != nil {
				t.Fatalf("stream not force-released")
			}
		})
	}
}

func TestLeaveStopsHeldStream(t *testing.T) {
	f := newFixture(t)
	f.joined(t)
	f.ctrl.SelectSource(screen)
	if err := f.ctrl.StartScreenShare(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "sharing", func() bool { return f.ctrl.Snapshot().ScreenShare == ShareSharing })

	if err := f.ctrl.Leave(context.Background()); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if f.cap.acquired()[0].stopped.Load() == 0 || f.held() != nil {
		t.Fatalf("stream not stopped on leave")
	}
	snap := f.ctrl.Snapshot()
	if snap.ScreenShare != ShareIdle || snap.Livestream != LiveIdle {
		t.Fatalf("sub-states not reset: %+v", snap)
	}
}

func TestRestartDuringAcquisitionStopsSupersededStream(t *testing.T) {
	f := newFixture(t)
	f.joined(t)
	f.ctrl.SelectSource(screen)
	f.cap.gate = make(chan struct{})
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- f.ctrl.StartScreenShare(ctx) }()
	waitFor(t, "first acquiring", func() bool { return len(f.cap.acquired()) == 1 })

	if err := f.ctrl.StopScreenShare(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	f.drain(t)

	second := make(chan error, 1)
	go func() { second <- f.ctrl.StartScreenShare(ctx) }()
	waitFor(t, "second acquiring", func() bool { return len(f.cap.acquired()) == 2 })

	close(f.cap.gate)
	for _, done := range []chan error{first, second} {
		if err := <-done; err != nil {
			t.Fatalf("start: %v", err)
		}
	}

	streams := f.cap.acquired()
	if streams[0].stopped.Load() != 1 {
		t.Fatalf("superseded stream stopped %d times, want 1", streams[0].stopped.Load())
	}
	if streams[1].stopped.Load() != 0 || f.held() != streams[1] {
		t.Fatalf("current stream not held")
	}
	if n := f.conn.Count(mediaroomtest.MethodStartScreenShare); n != 1 {
		t.Fatalf("expected one share handed to the room, got %d", n)
	}
	waitFor(t, "sharing", func() bool { return f.ctrl.Snapshot().ScreenShare == ShareSharing })
}
