package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope as read off the event channel.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound is the envelope as written to the event channel.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

const (
	// Server to client.
	EventStatus             = "status"
	EventDailySession       = "daily-session"
	EventDesktopParticipant = "desktop-participant"
	EventMobileParticipant  = "mobile-participant"
	EventMobileLinkError    = "mobile-link-error"
	EventError              = "error"

	// Client to server. EventMobileParticipant is used in both directions.
	EventMobileLinkSession = "mobile-link-session"
)

// Status acknowledges a new event channel connection.
type Status struct {
	Connected bool   `json:"connected"`
	ClientID  string `json:"clientId"`
	Port      int    `json:"port,omitempty"`
}

// LinkRequest links a media room. Used by POST /link/session and mobile-link-session.
type LinkRequest struct {
	RoomName string  `json:"roomName,omitempty"`
	RoomURL  string  `json:"roomUrl"`
	Token    *string `json:"token,omitempty"`
}

// LinkResponse is returned by a successful link.
type LinkResponse struct {
	OK       bool      `json:"ok"`
	LinkedAt time.Time `json:"linkedAt"`
}

// LinkedSession is the stored pairing record as served by GET /daily/session.
type LinkedSession struct {
	RoomName string    `json:"roomName"`
	RoomURL  string    `json:"roomUrl"`
	Token    *string   `json:"token"`
	LinkedAt time.Time `json:"linkedAt"`
}

// SessionEvent is the daily-session payload. Active is false after unlink.
type SessionEvent struct {
	RoomName string     `json:"roomName,omitempty"`
	RoomURL  string     `json:"roomUrl,omitempty"`
	Token    *string    `json:"token"`
	LinkedAt *time.Time `json:"linkedAt,omitempty"`
	Active   bool       `json:"active"`
}

// DesktopParticipant announces the desktop participant id; null clears it.
type DesktopParticipant struct {
	ParticipantID *string `json:"participantId"`
}

// MobileParticipant is the full mobile participant state.
type MobileParticipant struct {
	ParticipantID  *string `json:"participantId"`
	CameraEnabled  bool    `json:"cameraEnabled"`
	CameraPosition string  `json:"cameraPosition"`
}

// MobileUpdate is a partial mobile participant update; absent fields are left alone.
type MobileUpdate struct {
	ParticipantID  Optional[*string] `json:"participantId,omitzero"`
	CameraEnabled  Optional[bool]    `json:"cameraEnabled,omitzero"`
	CameraPosition Optional[string]  `json:"cameraPosition,omitzero"`
}

// LinkError reports a rejected mobile-link-session.
type LinkError struct {
	Error string `json:"error"`
}

// CommunicationState is what GET /state returns.
type CommunicationState struct {
	Addresses []string           `json:"addresses"`
	Port      int                `json:"port"`
	Session   *LinkedSession     `json:"session"`
	Desktop   DesktopParticipant `json:"desktop"`
	Mobile    MobileParticipant  `json:"mobile"`
}

// OKResponse is the generic success body.
type OKResponse struct {
	OK bool `json:"ok"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the generic failure body.
type ErrorResponse struct {
	Error string `json:"error"`
}
