package session

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// Store holds the coordinator's in-memory pairing state.
// It is not safe for concurrent use; the hub goroutine owns it.
type Store struct {
	linked  *LinkedSession
	desktop ParticipantRef
	mobile  MobileState
	now     func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	s := &Store{now: time.Now}
	s.Clear()
	return s
}

// NewStoreWithClock returns an empty store stamping sessions with now.
func NewStoreWithClock(now func() time.Time) *Store {
	s := NewStore()
	if now != nil {
		s.now = now
	}
	return s
}

// Clear drops the linked session and both participant refs.
func (s *Store) Clear() {
	s.linked = nil
	s.resetParticipants()
}

func (s *Store) resetParticipants() {
	s.desktop = ParticipantRef{}
	s.mobile = MobileState{CameraPosition: CameraBottom}
}

// Link validates req and replaces the current session with it.
// Participants and camera state are reset. Nothing changes on error.
func (s *Store) Link(req LinkRequest) (LinkedSession, error) {
	roomURL := strings.TrimSpace(req.RoomURL)
	if roomURL == "" {
		return LinkedSession{}, ErrRoomURLRequired
	}

	name := strings.TrimSpace(req.RoomName)
	if name == "" {
		name = roomNameFromURL(roomURL)
	}

	var token *string
	if req.Token != nil && *req.Token != "" {
		t := *req.Token
		token = &t
	}

	linked := LinkedSession{
		RoomName: name,
		RoomURL:  roomURL,
		Token:    token,
		LinkedAt: s.now().UTC(),
	}
	s.linked = &linked
	s.resetParticipants()

	return linked, nil
}

// Session returns the current linked session.
func (s *Store) Session() (LinkedSession, bool) {
	if s.linked == nil {
		return LinkedSession{}, false
	}
	return *s.linked, true
}

// SetDesktop overwrites the desktop participant ref.
func (s *Store) SetDesktop(id *string) ParticipantRef {
	s.desktop = ParticipantRef{ParticipantID: normalizeID(id)}
	return s.desktop
}

// Desktop returns the desktop participant ref.
func (s *Store) Desktop() ParticipantRef {
	return s.desktop
}

// Mobile returns the mobile participant state.
func (s *Store) Mobile() MobileState {
	return s.mobile
}

// UpdateMobile applies the fields present in u and reports whether anything changed.
// This is the only mutator of mobile state; it keeps the camera off while
// the participant id is unknown.
func (s *Store) UpdateMobile(u MobileUpdate) (MobileState, bool, error) {
	if u.CameraPosition != nil && !u.CameraPosition.Valid() {
		return s.mobile, false, ErrInvalidCameraPosition
	}

	next := s.mobile
	if u.ParticipantIDSet {
		next.ParticipantID = normalizeID(u.ParticipantID)
	}
	if u.CameraEnabled != nil {
		next.CameraEnabled = *u.CameraEnabled
	}
	if u.CameraPosition != nil {
		next.CameraPosition = *u.CameraPosition
	}
	if next.ParticipantID == nil {
		next.CameraEnabled = false
	}

	changed := !sameID(next.ParticipantID, s.mobile.ParticipantID) ||
		next.CameraEnabled != s.mobile.CameraEnabled ||
		next.CameraPosition != s.mobile.CameraPosition
	s.mobile = next

	return next, changed, nil
}

// Snapshot copies the whole state.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{Desktop: s.desktop, Mobile: s.mobile}
	if linked, ok := s.Session(); ok {
		snap.Session = &linked
	}
	return snap
}

func roomNameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return DefaultRoomName
	}
	base := path.Base(strings.TrimRight(u.Path, "/"))
	if base == "" || base == "." || base == "/" {
		return DefaultRoomName
	}
	return base
}
