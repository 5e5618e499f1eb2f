package desktop

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirepair/internal/activity"
	"github.com/vovakirdan/wirepair/internal/capture"
	"github.com/vovakirdan/wirepair/internal/coordclient"
	"github.com/vovakirdan/wirepair/internal/mediaroom"
	"github.com/vovakirdan/wirepair/internal/proto"
)

const identityPrefix = "desktop-"

// Options configures a Controller.
type Options struct {
	Room        mediaroom.Conn
	Capturer    capture.Capturer
	Coordinator *coordclient.Client
	// Tokens, when set, mints the desktop's own join token for each linked
	// room instead of reusing the token from the session.
	Tokens      mediaroom.TokenIssuer
	Identity    string
	Retry       coordclient.RetryPolicy
	Activity    *activity.Log
	Logger      *zerolog.Logger
}

// Controller mirrors the coordinator's linked session into a room join on
// the desktop and runs the screen share and livestream lifecycles.
type Controller struct {
	conn     mediaroom.Conn
	capturer capture.Capturer
	coord    *coordclient.Client
	tokens   mediaroom.TokenIssuer
	identity string
	retry    coordclient.RetryPolicy
	activity *activity.Log
	log      *zerolog.Logger

	mu           sync.Mutex
	stage        Stage
	lastErr      string
	session      *proto.SessionEvent
	autoJoin     bool
	joinInFlight bool
	localID      *string
	mobile       proto.MobileParticipant
	channel      *coordclient.Channel

	source   *capture.Source
	share    ShareStatus
	shareGen uint64
	stream   capture.Stream

	live       LiveStatus
	livePaused bool
	rtmpBase   string
	streamKey  string
}

// New creates a controller in StageIdle.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	log := opts.Activity
	if log == nil {
		log = activity.New(0, logger)
	}
	retry := opts.Retry
	if retry.MaxAttempts == 0 {
		retry = coordclient.DefaultRetryPolicy()
	}
	identity := opts.Identity
	if identity == "" {
		identity = identityPrefix + uuid.NewString()[:8]
	}
	return &Controller{
		conn:     opts.Room,
		capturer: opts.Capturer,
		coord:    opts.Coordinator,
		tokens:   opts.Tokens,
		identity: identity,
		retry:    retry,
		activity: log,
		log:      logger,
		stage:    StageIdle,
		autoJoin: true,
		share:    ShareIdle,
		live:     LiveIdle,
	}
}

// Activity returns the controller's activity log.
func (c *Controller) Activity() *activity.Log {
	return c.activity
}

// Stage returns the current room stage.
func (c *Controller) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// Connect opens the event channel to the coordinator. Session and
// participant events are applied as they arrive.
func (c *Controller) Connect(ctx context.Context) error {
	ch, err := c.coord.OpenChannel(ctx, coordclient.ChannelOptions{Retry: c.retry})
	if err != nil {
		c.activity.Error("coordinator unreachable", err)
		return err
	}
	c.mu.Lock()
	old := c.channel
	c.channel = ch
	c.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	go c.pump(context.WithoutCancel(ctx), ch)
	return nil
}

// Close closes the coordinator channel.
func (c *Controller) Close() error {
	c.mu.Lock()
	ch := c.channel
	c.channel = nil
	c.mu.Unlock()
	if ch != nil {
		return ch.Close()
	}
	return nil
}

// Join retries a join from ready or error. It re-enables auto-join after
// an explicit Leave.
func (c *Controller) Join(ctx context.Context) error {
	c.mu.Lock()
	if c.stage == StageError {
		c.stage = StageReady
		c.lastErr = ""
	}
	c.autoJoin = true
	c.mu.Unlock()
	return c.maybeJoin(ctx)
}

// maybeJoin joins the linked room when ready and nothing is in flight.
func (c *Controller) maybeJoin(ctx context.Context) error {
	active := c.conn.MeetingState().Active()
	c.mu.Lock()
	if c.stage != StageReady || c.joinInFlight || !c.autoJoin || c.session == nil || active {
		c.mu.Unlock()
		return nil
	}
	sess := *c.session
	c.joinInFlight = true
	c.stage = StageJoining
	c.mu.Unlock()

	c.log.Info().Str("room_name", sess.RoomName).Str("room_url", sess.RoomURL).Msg("joining room")
	token, err := c.joinToken(sess)
	if err == nil {
		err = c.conn.Join(ctx, sess.RoomURL, token)
	}

	c.mu.Lock()
	c.joinInFlight = false
	if err != nil {
		c.stage = StageError
		c.lastErr = err.Error()
	}
	c.mu.Unlock()
	if err != nil {
		c.activity.Error(fmt.Sprintf("joining %s failed", sess.RoomName), err)
		return fmt.Errorf("join room: %w", err)
	}
	return nil
}

// joinToken returns the token to join sess with.
func (c *Controller) joinToken(sess proto.SessionEvent) (*string, error) {
	if c.tokens == nil {
		return sess.Token, nil
	}
	token, err := c.tokens.JoinToken(sess.RoomName, c.identity)
	if err != nil {
		return nil, fmt.Errorf("mint token for %s: %w", c.identity, err)
	}
	return &token, nil
}

// Leave leaves the room and stays out until Join or a new session.
func (c *Controller) Leave(ctx context.Context) error {
	c.mu.Lock()
	c.autoJoin = false
	if c.stage != StageJoined && c.stage != StageJoining {
		c.mu.Unlock()
		return nil
	}
	c.stage = StageLeaving
	c.mu.Unlock()

	if err := c.conn.Leave(ctx); err != nil {
		c.mu.Lock()
		c.stage = StageError
		c.lastErr = err.Error()
		c.mu.Unlock()
		c.activity.Error("leaving room failed", err)
		return fmt.Errorf("leave room: %w", err)
	}
	c.afterLeave(ctx)
	return nil
}

// afterLeave resets the room state once the room is gone. Safe to call
// twice; a late left event does not disturb a join already in flight.
func (c *Controller) afterLeave(ctx context.Context) {
	c.mu.Lock()
	settled := (c.stage == StageReady || c.stage == StageIdle) && c.localID == nil && c.stream == nil
	if settled || c.stage == StageJoining {
		c.mu.Unlock()
		return
	}
	c.stage = StageReady
	c.localID = nil
	c.share = ShareIdle
	c.live = LiveIdle
	c.livePaused = false
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()

	if stream != nil {
		stream.Stop()
	}
	c.activity.Info("left the room")
	c.announce(ctx, nil)
}

func (c *Controller) announce(ctx context.Context, id *string) {
	if c.coord == nil {
		return
	}
	if err := c.coord.AnnounceDesktop(ctx, id); err != nil {
		c.activity.Warn(fmt.Sprintf("participant not announced to coordinator: %v", err))
	}
}

// SelectSource chooses the screen or window to share.
func (c *Controller) SelectSource(src capture.Source) {
	c.mu.Lock()
	c.source = &src
	c.mu.Unlock()
}

// SetLivestreamTarget sets the RTMP base URL and stream key.
func (c *Controller) SetLivestreamTarget(rtmpBase, streamKey string) {
	c.mu.Lock()
	c.rtmpBase = rtmpBase
	c.streamKey = streamKey
	c.mu.Unlock()
}

// State is a read-only view of the controller for display.
type State struct {
	Stage              Stage                   `json:"stage"`
	Error              string                  `json:"error,omitempty"`
	RoomName           string                  `json:"roomName,omitempty"`
	RoomURL            string                  `json:"roomUrl,omitempty"`
	LocalParticipantID *string                 `json:"localParticipantId"`
	Mobile             proto.MobileParticipant `json:"mobile"`
	Source             *capture.Source         `json:"source,omitempty"`
	ScreenShare        ShareStatus             `json:"screenShare"`
	Livestream         LiveStatus              `json:"livestream"`
	LivestreamPaused   bool                    `json:"livestreamPaused"`
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := State{
		Stage:              c.stage,
		Error:              c.lastErr,
		LocalParticipantID: c.localID,
		Mobile:             c.mobile,
		Source:             c.source,
		ScreenShare:        c.share,
		Livestream:         c.live,
		LivestreamPaused:   c.livePaused,
	}
	if c.session != nil {
		s.RoomName = c.session.RoomName
		s.RoomURL = c.session.RoomURL
	}
	return s
}
