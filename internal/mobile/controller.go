package mobile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirepair/internal/activity"
	"github.com/vovakirdan/wirepair/internal/coordclient"
	"github.com/vovakirdan/wirepair/internal/mediaroom"
	"github.com/vovakirdan/wirepair/internal/proto"
	"github.com/vovakirdan/wirepair/internal/session"
)

// DefaultJoinGrace caps the wait for a loading room connection before joining.
const DefaultJoinGrace = 300 * time.Millisecond

var ErrNoRoom = errors.New("no room: create one first")

// Options configures a Controller.
type Options struct {
	Provisioner mediaroom.Provisioner
	Room        mediaroom.Conn
	Retry       coordclient.RetryPolicy
	JoinGrace   time.Duration
	HTTPClient  *http.Client
	Activity    *activity.Log
	Logger      *zerolog.Logger
}

// Controller drives the mobile side of pairing: it provisions a room,
// links it through the coordinator, joins it and keeps the desktop's
// screen tracks subscribed.
type Controller struct {
	provisioner mediaroom.Provisioner
	conn        mediaroom.Conn
	retry       coordclient.RetryPolicy
	joinGrace   time.Duration
	httpClient  *http.Client
	activity    *activity.Log
	log         *zerolog.Logger

	mu             sync.Mutex
	stage          Stage
	lastErr        string
	room           *mediaroom.Room
	coord          *coordclient.Client
	channel        *coordclient.Channel
	localID        *string
	desktopID      *string
	cameraEnabled  bool
	cameraPosition session.CameraPosition
	cameraBusy     bool
	screenVideo    *mediaroom.Track
	screenAudio    *mediaroom.Track
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
	grace := opts.JoinGrace
	if grace <= 0 {
		grace = DefaultJoinGrace
	}
	retry := opts.Retry
	if retry.MaxAttempts == 0 {
		retry = coordclient.DefaultRetryPolicy()
	}
	return &Controller{
		provisioner:    opts.Provisioner,
		conn:           opts.Room,
		retry:          retry,
		joinGrace:      grace,
		httpClient:     opts.HTTPClient,
		activity:       log,
		log:            logger,
		stage:          StageIdle,
		cameraPosition: session.CameraBottom,
	}
}

// Activity returns the controller's activity log.
func (c *Controller) Activity() *activity.Log {
	return c.activity
}

// Stage returns the current stage.
func (c *Controller) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// CreateRoom provisions a new room. Allowed from idle and error; anywhere
// else it is a no-op.
func (c *Controller) CreateRoom(ctx context.Context) error {
	c.mu.Lock()
	if c.stage != StageIdle && c.stage != StageError {
		stage := c.stage
		c.mu.Unlock()
		c.ignored("create room", stage)
		return nil
	}
	c.stage = StageCreatingRoom
	c.lastErr = ""
	c.mu.Unlock()

	room, err := c.provisioner.CreateRoom(ctx)
	if err != nil {
		return c.fail("room creation failed", fmt.Errorf("create room: %w", err))
	}

	c.mu.Lock()
	c.room = &room
	c.stage = StageRoomReady
	c.mu.Unlock()
	c.activity.Info(fmt.Sprintf("room %s ready", room.Name))
	return nil
}

// ConnectDesktop links the room through the coordinator at rawURL, joins
// the room and opens the event channel. Each step gates the next; a failure
// leaves earlier progress in place so a retry resumes from there.
func (c *Controller) ConnectDesktop(ctx context.Context, rawURL string) error {
	base, err := coordclient.NormalizeBaseURL(rawURL)
	if err != nil {
		c.activity.Warn(fmt.Sprintf("invalid desktop address: %v", err))
		return err
	}

	c.mu.Lock()
	if c.room == nil {
		c.mu.Unlock()
		return ErrNoRoom
	}
	if c.stage != StageRoomReady && c.stage != StageError {
		stage := c.stage
		c.mu.Unlock()
		c.ignored("connect desktop", stage)
		return nil
	}
	room := *c.room
	c.stage = StageConnectingDesktop
	c.lastErr = ""
	c.mu.Unlock()

	opts := []coordclient.Option{coordclient.WithLogger(c.log)}
	if c.httpClient != nil {
		opts = append(opts, coordclient.WithHTTPClient(c.httpClient))
	}
	coord, err := coordclient.New(base, opts...)
	if err != nil {
		return c.fail("desktop connection failed", err)
	}
	c.mu.Lock()
	c.coord = coord
	c.mu.Unlock()

	link := linkRequest(room)
	if _, err := coord.LinkSession(ctx, link); err != nil {
		return c.fail("linking session failed", err)
	}

	if !c.conn.MeetingState().Active() {
		c.waitForLoad(ctx)
		if err := c.conn.Join(ctx, room.URL, room.Token); err != nil {
			return c.fail("joining room failed", fmt.Errorf("join room: %w", err))
		}
	}

	c.mu.Lock()
	c.stage = StageJoiningCall
	old := c.channel
	c.channel = nil
	c.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	ch, err := coord.OpenChannel(ctx, coordclient.ChannelOptions{
		Retry: c.retry,
		OnConnect: func(ctx context.Context, ch *coordclient.Channel) error {
			return ch.Send(ctx, proto.EventMobileLinkSession, link)
		},
	})
	if err != nil {
		return c.fail("desktop connection failed", err)
	}

	c.mu.Lock()
	c.channel = ch
	c.stage = StageConnected
	c.settleStageLocked()
	c.mu.Unlock()
	c.activity.Info(fmt.Sprintf("connected to desktop at %s", base))

	go c.pump(context.WithoutCancel(ctx), ch)
	return nil
}

// Disconnect closes the event channel and leaves the room. The room is kept
// so ConnectDesktop can be called again.
func (c *Controller) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	ch := c.channel
	c.channel = nil
	c.desktopID = nil
	c.clearTracksLocked()
	if c.room != nil {
		c.stage = StageRoomReady
	} else {
		c.stage = StageIdle
	}
	c.mu.Unlock()

	if ch != nil {
		_ = ch.Close()
	}
	if c.conn.MeetingState().Active() {
		if err := c.conn.Leave(ctx); err != nil {
			c.activity.Error("leaving room failed", err)
			return fmt.Errorf("leave room: %w", err)
		}
	}
	c.activity.Info("disconnected from desktop")
	return nil
}

// SetCameraEnabled turns the local camera on or off. It is a no-op when the
// camera is already in the requested state.
func (c *Controller) SetCameraEnabled(ctx context.Context, next bool) error {
	c.mu.Lock()
	if c.cameraEnabled == next {
		c.mu.Unlock()
		return nil
	}
	if c.cameraBusy {
		c.mu.Unlock()
		c.activity.Warn("camera change already in progress")
		return nil
	}
	c.cameraBusy = true
	c.mu.Unlock()

	err := c.conn.SetLocalVideo(ctx, next)

	c.mu.Lock()
	c.cameraBusy = false
	if err == nil {
		c.cameraEnabled = next
	}
	c.mu.Unlock()

	if err != nil {
		c.activity.Error("camera toggle failed", err)
		return fmt.Errorf("set local video: %w", err)
	}
	if next {
		c.activity.Info("camera enabled")
	} else {
		c.activity.Info("camera disabled")
	}
	c.syncCamera(ctx)
	return nil
}

// SetCameraPosition changes the overlay placement hint.
func (c *Controller) SetCameraPosition(ctx context.Context, pos session.CameraPosition) error {
	if !pos.Valid() {
		return session.ErrInvalidCameraPosition
	}
	c.mu.Lock()
	changed := c.cameraPosition != pos
	c.cameraPosition = pos
	c.mu.Unlock()
	if changed {
		c.syncCamera(ctx)
	}
	return nil
}

// syncCamera pushes the camera state when the local participant is known.
func (c *Controller) syncCamera(ctx context.Context) {
	c.mu.Lock()
	coord := c.coord
	id := c.localID
	enabled := c.cameraEnabled && id != nil
	pos := c.cameraPosition
	c.mu.Unlock()

	if coord == nil || id == nil {
		return
	}
	err := coord.UpdateMobile(ctx, proto.MobileUpdate{
		ParticipantID:  proto.Some(id),
		CameraEnabled:  proto.Some(enabled),
		CameraPosition: proto.Some(string(pos)),
	})
	if err != nil {
		c.activity.Warn(fmt.Sprintf("camera state not sent to desktop: %v", err))
	}
}

// waitForLoad gives a loading room connection up to joinGrace to settle.
func (c *Controller) waitForLoad(ctx context.Context) {
	deadline := time.Now().Add(c.joinGrace)
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for c.conn.MeetingState() == mediaroom.MeetingLoading && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// fail moves to StageError with one activity entry and returns err.
func (c *Controller) fail(msg string, err error) error {
	c.mu.Lock()
	c.stage = StageError
	c.lastErr = err.Error()
	c.mu.Unlock()
	c.activity.Error(msg, err)
	return err
}

func (c *Controller) clearTracksLocked() {
	c.screenVideo = nil
	c.screenAudio = nil
	if c.stage == StagePreviewReady {
		c.stage = StageConnected
	}
}

// settleStageLocked moves between connected and preview-ready based on
// whether a playable desktop screen track is held.
func (c *Controller) settleStageLocked() {
	playable := c.screenVideo != nil && c.screenVideo.Playable
	switch {
	case c.stage == StageConnected && playable:
		c.stage = StagePreviewReady
	case c.stage == StagePreviewReady && !playable:
		c.stage = StageConnected
	}
}

// ignored records a request that the current stage does not allow.
func (c *Controller) ignored(action string, stage Stage) {
	c.activity.Warn(fmt.Sprintf("cannot %s while %s", action, stage))
}

func linkRequest(room mediaroom.Room) proto.LinkRequest {
	return proto.LinkRequest{
		RoomName: room.Name,
		RoomURL:  room.URL,
		Token:    room.Token,
	}
}
