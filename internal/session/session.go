package session

import (
	"errors"
	"time"
)

var (
	ErrRoomURLRequired       = errors.New("roomUrl is required")
	ErrInvalidCameraPosition = errors.New("cameraPosition must be \"top\" or \"bottom\"")
)

// DefaultRoomName is used when neither the request nor the room URL yields a name.
const DefaultRoomName = "room"

// LinkedSession is the currently active pairing record.
// Stored by value: a new link replaces it wholesale.
type LinkedSession struct {
	RoomName string
	RoomURL  string
	Token    *string
	LinkedAt time.Time
}

// LinkRequest is the payload a mobile client submits to link a room.
type LinkRequest struct {
	RoomName string
	RoomURL  string
	Token    *string
}

// ParticipantRef points at a peer inside the external media room.
type ParticipantRef struct {
	ParticipantID *string
}

// ID returns the participant id or an empty string.
func (p ParticipantRef) ID() string {
	if p.ParticipantID == nil {
		return ""
	}
	return *p.ParticipantID
}

// Known reports whether a participant id is set.
func (p ParticipantRef) Known() bool {
	return p.ParticipantID != nil
}

// CameraPosition is an advisory overlay placement hint.
type CameraPosition string

const (
	CameraTop    CameraPosition = "top"
	CameraBottom CameraPosition = "bottom"
)

// Valid reports whether p is one of the known positions.
func (p CameraPosition) Valid() bool {
	return p == CameraTop || p == CameraBottom
}

// MobileState is the mobile participant ref plus its camera state.
// CameraEnabled is false whenever ParticipantID is nil.
type MobileState struct {
	ParticipantRef
	CameraEnabled  bool
	CameraPosition CameraPosition
}

// MobileUpdate carries the fields of a partial mobile update.
// ParticipantIDSet distinguishes an explicit null from an absent field.
type MobileUpdate struct {
	ParticipantIDSet bool
	ParticipantID    *string
	CameraEnabled    *bool
	CameraPosition   *CameraPosition
}

// Snapshot is a copy of everything the store holds.
type Snapshot struct {
	Session *LinkedSession
	Desktop ParticipantRef
	Mobile  MobileState
}

// normalizeID maps empty ids to nil and copies the value.
func normalizeID(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	v := *id
	return &v
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
