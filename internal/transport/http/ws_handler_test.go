package http

import (
	"net/http"
	"testing"

	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirepair/internal/proto"
)

func TestSocketConnectReceivesStatusOnly(t *testing.T) {
	ts, hub := startTestServer(t)
	conn, ctx := dialSocket(t, ts)

	frame := readFrame(t, ctx, conn)
	if frame.Event != proto.EventStatus {
		t.Fatalf("expected status first, got %q", frame.Event)
	}
	var status proto.Status
	decode(t, frame.Data, &status)
	if !status.Connected || status.ClientID == "" || status.Port != hub.Port() {
		t.Fatalf("unexpected status: %s", frame.Data)
	}

	// A round trip proves nothing else was queued ahead of the reply.
	if err := wsjson.Write(ctx, conn, proto.Outbound{Event: "bogus"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if frame := readFrame(t, ctx, conn); frame.Event != proto.EventError {
		t.Fatalf("expected error frame, got %q", frame.Event)
	}
}

func TestSocketConnectReceivesSnapshot(t *testing.T) {
	ts, _ := startTestServer(t)

	doJSON(t, ts, http.MethodPost, "/link/session", `{"roomName":"r1","roomUrl":"https://x/r1"}`)
	doJSON(t, ts, http.MethodPost, "/link/desktop", `{"participantId":"p-99"}`)
	doJSON(t, ts, http.MethodPost, "/link/mobile", `{"participantId":"m-1","cameraEnabled":true}`)

	conn, ctx := dialSocket(t, ts)

	want := []string{
		proto.EventStatus,
		proto.EventDailySession,
		proto.EventDesktopParticipant,
		proto.EventMobileParticipant,
	}
	frames := make([]proto.Inbound, 0, len(want))
	for i, event := range want {
		frame := readFrame(t, ctx, conn)
		if frame.Event != event {
			t.Fatalf("frame %d: expected %q, got %q", i, event, frame.Event)
		}
		frames = append(frames, frame)
	}

	var sess proto.SessionEvent
	decode(t, frames[1].Data, &sess)
	if !sess.Active || sess.RoomName != "r1" || sess.LinkedAt == nil {
		t.Fatalf("unexpected session frame: %s", frames[1].Data)
	}
	var desktop proto.DesktopParticipant
	decode(t, frames[2].Data, &desktop)
	if desktop.ParticipantID == nil || *desktop.ParticipantID != "p-99" {
		t.Fatalf("unexpected desktop frame: %s", frames[2].Data)
	}
	var mobile proto.MobileParticipant
	decode(t, frames[3].Data, &mobile)
	if !mobile.CameraEnabled || mobile.CameraPosition != "bottom" {
		t.Fatalf("unexpected mobile frame: %s", frames[3].Data)
	}
}

func TestSocketReceivesRESTBroadcasts(t *testing.T) {
	ts, _ := startTestServer(t)
	conn, ctx := dialSocket(t, ts)
	readFrame(t, ctx, conn)

	doJSON(t, ts, http.MethodPost, "/link/session", `{"roomUrl":"https://x/abc"}`)
	frame := readFrame(t, ctx, conn)
	if frame.Event != proto.EventDailySession {
		t.Fatalf("expected daily-session, got %q", frame.Event)
	}
	var sess proto.SessionEvent
	decode(t, frame.Data, &sess)
	if sess.RoomName != "abc" || !sess.Active {
		t.Fatalf("unexpected session frame: %s", frame.Data)
	}

	doJSON(t, ts, http.MethodDelete, "/link/session", "")
	frame = readFrame(t, ctx, conn)
	if frame.Event != proto.EventDailySession {
		t.Fatalf("expected daily-session on unlink, got %q", frame.Event)
	}
	sess = proto.SessionEvent{}
	decode(t, frame.Data, &sess)
	if sess.Active {
		t.Fatalf("expected inactive session after unlink: %s", frame.Data)
	}
}

func TestSocketMobileLinkSession(t *testing.T) {
	ts, _ := startTestServer(t)
	conn, ctx := dialSocket(t, ts)
	readFrame(t, ctx, conn)

	err := wsjson.Write(ctx, conn, proto.Outbound{
		Event: proto.EventMobileLinkSession,
		Data:  proto.LinkRequest{RoomName: "r1", RoomURL: "https://x/r1"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := readFrame(t, ctx, conn)
	if frame.Event != proto.EventDailySession {
		t.Fatalf("expected daily-session, got %q", frame.Event)
	}

	_, body := doJSON(t, ts, http.MethodGet, "/daily/session", "")
	var stored proto.LinkedSession
	decode(t, body, &stored)
	if stored.RoomName != "r1" {
		t.Fatalf("socket link not stored: %s", body)
	}
}

func TestSocketMobileLinkErrorGoesToSenderOnly(t *testing.T) {
	ts, _ := startTestServer(t)

	sender, senderCtx := dialSocket(t, ts)
	readFrame(t, senderCtx, sender)
	other, otherCtx := dialSocket(t, ts)
	readFrame(t, otherCtx, other)

	err := wsjson.Write(senderCtx, sender, proto.Outbound{
		Event: proto.EventMobileLinkSession,
		Data:  map[string]string{"roomName": "r1"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := readFrame(t, senderCtx, sender)
	if frame.Event != proto.EventMobileLinkError {
		t.Fatalf("expected mobile-link-error, got %q", frame.Event)
	}
	var linkErr proto.LinkError
	decode(t, frame.Data, &linkErr)
	if linkErr.Error != "roomUrl is required" {
		t.Fatalf("unexpected link error: %s", frame.Data)
	}

	// The other socket sees the next broadcast, not the link error.
	doJSON(t, ts, http.MethodPost, "/link/desktop", `{"participantId":"p-1"}`)
	if frame := readFrame(t, otherCtx, other); frame.Event != proto.EventDesktopParticipant {
		t.Fatalf("expected desktop-participant on other socket, got %q", frame.Event)
	}
}

func TestSocketMobileParticipantUpdate(t *testing.T) {
	ts, _ := startTestServer(t)
	conn, ctx := dialSocket(t, ts)
	readFrame(t, ctx, conn)

	update := proto.MobileUpdate{
		ParticipantID:  proto.Some(strPtr("m-1")),
		CameraEnabled:  proto.Some(true),
		CameraPosition: proto.Some("top"),
	}
	if err := wsjson.Write(ctx, conn, proto.Outbound{Event: proto.EventMobileParticipant, Data: update}); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := readFrame(t, ctx, conn)
	if frame.Event != proto.EventMobileParticipant {
		t.Fatalf("expected mobile-participant, got %q", frame.Event)
	}
	var mobile proto.MobileParticipant
	decode(t, frame.Data, &mobile)
	if mobile.ParticipantID == nil || *mobile.ParticipantID != "m-1" || !mobile.CameraEnabled || mobile.CameraPosition != "top" {
		t.Fatalf("unexpected mobile frame: %s", frame.Data)
	}

	// Same values again change nothing and produce no broadcast.
	if err := wsjson.Write(ctx, conn, proto.Outbound{Event: proto.EventMobileParticipant, Data: update}); err != nil {
		t.Fatalf("write: %v", err)
	}
	doJSON(t, ts, http.MethodPost, "/link/desktop", `{"participantId":"p-1"}`)
	if frame := readFrame(t, ctx, conn); frame.Event != proto.EventDesktopParticipant {
		t.Fatalf("expected desktop-participant after no-op update, got %q", frame.Event)
	}
}

func TestSocketInvalidCameraPositionReturnsError(t *testing.T) {
	ts, _ := startTestServer(t)
	conn, ctx := dialSocket(t, ts)
	readFrame(t, ctx, conn)

	err := wsjson.Write(ctx, conn, proto.Outbound{
		Event: proto.EventMobileParticipant,
		Data:  map[string]any{"cameraPosition": "left"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if frame := readFrame(t, ctx, conn); frame.Event != proto.EventError {
		t.Fatalf("expected error frame, got %q", frame.Event)
	}
}

func strPtr(s string) *string { return &s }
