package core

import "github.com/vovakirdan/wirepair/internal/session"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventStatus acknowledges a new connection.
	EventStatus EventKind = iota
	// EventSessionLinked carries the current linked session.
	EventSessionLinked
	// EventSessionCleared notifies that the session was unlinked.
	EventSessionCleared
	// EventDesktopParticipant carries the desktop participant id.
	EventDesktopParticipant
	// EventMobileParticipant carries the mobile participant state.
	EventMobileParticipant
	// EventLinkError reports a rejected socket link request to its sender.
	EventLinkError
	// EventError reports a protocol error to a single client.
	EventError
)

var eventNames = [...]string{
	EventStatus:             "status",
	EventSessionLinked:      "session_linked",
	EventSessionCleared:     "session_cleared",
	EventDesktopParticipant: "desktop_participant",
	EventMobileParticipant:  "mobile_participant",
	EventLinkError:          "link_error",
	EventError:              "error",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[k]
}

// Event is sent to clients to describe what happened.
type Event struct {
	Kind    EventKind
	Status  *StatusInfo
	Session *session.LinkedSession
	Desktop session.ParticipantRef
	Mobile  session.MobileState
	Error   *CoreError
}

// StatusInfo is the connect acknowledgement payload.
type StatusInfo struct {
	ClientID string
	Port     int
}
