package mediaroom

import (
	"context"
	"strings"

	"github.com/vovakirdan/wirepair/internal/capture"
)

// Room describes a provisioned media room.
type Room struct {
	Name  string
	URL   string
	Token *string
}

// Matches reports whether a linked session with url and name is this room.
// Rooms from one server can share a URL, so a named room also compares names.
func (r Room) Matches(url, name string) bool {
	if r.URL != url {
		return false
	}
	return r.Name == "" || r.Name == name
}

// Provisioner creates rooms on the media-room service.
type Provisioner interface {
	CreateRoom(ctx context.Context) (Room, error)
}

// TokenIssuer mints join tokens for a named room and participant identity.
type TokenIssuer interface {
	JoinToken(room, identity string) (string, error)
}

// MeetingState is the lifecycle phase of a room connection.
type MeetingState string

const (
	MeetingNew     MeetingState = "new"
	MeetingLoading MeetingState = "loading"
	MeetingLoaded  MeetingState = "loaded"
	MeetingJoining MeetingState = "joining"
	MeetingJoined  MeetingState = "joined"
	MeetingLeft    MeetingState = "left"
	MeetingError   MeetingState = "error"
)

// Active reports whether the connection is joined or joining.
func (s MeetingState) Active() bool {
	return s == MeetingJoining || s == MeetingJoined
}

// TrackKind names a participant track.
type TrackKind string

const (
	TrackVideo       TrackKind = "video"
	TrackAudio       TrackKind = "audio"
	TrackScreenVideo TrackKind = "screenVideo"
	TrackScreenAudio TrackKind = "screenAudio"
)

// Subscription selects which tracks of a remote participant are received.
type Subscription struct {
	Video       bool
	Audio       bool
	ScreenVideo bool
	ScreenAudio bool
}

// ScreenOnly subscribes to screen video and audio and nothing else.
func ScreenOnly() Subscription {
	return Subscription{ScreenVideo: true, ScreenAudio: true}
}

// Track is a remote or local media track as reported by the room.
type Track struct {
	ParticipantID string
	Kind          TrackKind
	Playable      bool
}

// Conn is a connection to one media room.
type Conn interface {
	MeetingState() MeetingState
	Join(ctx context.Context, url string, token *string) error
	Leave(ctx context.Context) error
	UpdateSubscription(ctx context.Context, participantID string, sub Subscription) error
	SetLocalVideo(ctx context.Context, enabled bool) error
	StartScreenShare(ctx context.Context, stream capture.Stream) error
	StopScreenShare(ctx context.Context) error
	StartLiveStreaming(ctx context.Context, rtmpURL string) error
	StopLiveStreaming(ctx context.Context) error
	// Events delivers room events until the connection is discarded.
	Events() <-chan Event
}

// LiveStreamEndpoint joins an RTMP base URL and stream key with a single
// slash. It returns "" when either part is blank.
func LiveStreamEndpoint(base, key string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	key = strings.Trim(strings.TrimSpace(key), "/")
	if base == "" || key == "" {
		return ""
	}
	return base + "/" + key
}
