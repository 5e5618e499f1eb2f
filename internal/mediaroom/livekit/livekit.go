package livekit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/livekit/protocol/auth"

	"github.com/vovakirdan/wirepair/internal/mediaroom"
)

const (
	roomPrefix   = "wirepair-"
	mobilePrefix = "mobile-"
)

// ErrNotConfigured is returned when the server URL or API credentials are missing.
var ErrNotConfigured = errors.New("livekit is not configured")

// Provisioner implements mediaroom.Provisioner against a LiveKit server.
// LiveKit creates rooms on demand when the first participant joins, so
// provisioning only names the room and mints a join token for it.
type Provisioner struct {
	apiKey    string
	apiSecret string
	wsURL     string
	ttl       time.Duration
	newName   func() string
}

// New creates a provisioner. A non-positive ttl defaults to one hour.
func New(apiKey, apiSecret, wsURL string, ttl time.Duration) *Provisioner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Provisioner{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		wsURL:     wsURL,
		ttl:       ttl,
		newName:   func() string { return roomPrefix + uuid.NewString() },
	}
}

// CreateRoom names a fresh room and returns it with a room-scoped join
// token for the mobile participant. Other participants need their own
// identity from JoinToken; LiveKit evicts a second join with the same one.
func (p *Provisioner) CreateRoom(_ context.Context) (mediaroom.Room, error) {
	if p.apiKey == "" || p.apiSecret == "" || p.wsURL == "" {
		return mediaroom.Room{}, ErrNotConfigured
	}

	name := p.newName()
	token, err := p.JoinToken(name, mobilePrefix+uuid.NewString()[:8])
	if err != nil {
		return mediaroom.Room{}, err
	}
	return mediaroom.Room{
		Name:  name,
		URL:   p.wsURL,
		Token: &token,
	}, nil
}

// JoinToken mints a token allowing identity to join room.
func (p *Provisioner) JoinToken(room, identity string) (string, error) {
	at := auth.NewAccessToken(p.apiKey, p.apiSecret)
	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     room,
	}
	at.SetVideoGrant(grant).
		SetIdentity(identity).
		SetName(identity).
		SetValidFor(p.ttl)

	token, err := at.ToJWT()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

var (
	_ mediaroom.Provisioner = (*Provisioner)(nil)
	_ mediaroom.TokenIssuer = (*Provisioner)(nil)
)
