package mobile

import (
	"context"
	"fmt"

	"github.com/vovakirdan/wirepair/internal/coordclient"
	"github.com/vovakirdan/wirepair/internal/mediaroom"
	"github.com/vovakirdan/wirepair/internal/proto"
	"github.com/vovakirdan/wirepair/internal/session"
)

// Run applies room events until ctx is done or the room stops reporting.
func (c *Controller) Run(ctx context.Context) {
	events := c.conn.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.HandleRoomEvent(ctx, ev)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Controller) pump(ctx context.Context, ch *coordclient.Channel) {
	for ev := range ch.Events() {
		c.mu.Lock()
		current := c.channel == ch
		c.mu.Unlock()
		if !current {
			continue
		}
		c.HandleCoordinatorEvent(ctx, ev)
	}
}

// HandleCoordinatorEvent applies one event from the coordinator channel.
func (c *Controller) HandleCoordinatorEvent(ctx context.Context, ev coordclient.Event) {
	switch ev.Kind {
	case coordclient.EventConnected:
		c.log.Debug().Msg("coordinator channel connected")

	case coordclient.EventReconnecting:
		c.activity.Warn("connection to desktop interrupted, reconnecting")

	case coordclient.EventSession:
		if ev.Session == nil {
			return
		}
		if ev.Session.Active {
			// A link resets the coordinator's participant refs, so
			// republish ours once our own room is confirmed.
			c.mu.Lock()
			ours := c.room != nil && c.room.Matches(ev.Session.RoomURL, ev.Session.RoomName)
			c.mu.Unlock()
			if ours {
				c.syncCamera(ctx)
			}
			return
		}
		c.mu.Lock()
		c.desktopID = nil
		c.clearTracksLocked()
		c.mu.Unlock()
		c.activity.Info("desktop unlinked the session")

	case coordclient.EventDesktopParticipant:
		var id *string
		if ev.Desktop != nil {
			id = ev.Desktop.ParticipantID
		}
		c.setDesktopParticipant(ctx, id)

	case coordclient.EventMobileParticipant:
		c.log.Debug().Msg("coordinator echoed mobile participant")

	case coordclient.EventLinkError:
		c.fail("desktop rejected the session", fmt.Errorf("link rejected: %s", ev.Message))

	case coordclient.EventError:
		c.activity.Warn(fmt.Sprintf("desktop reported an error: %s", ev.Message))

	case coordclient.EventDisconnected:
		c.mu.Lock()
		c.channel = nil
		c.desktopID = nil
		c.clearTracksLocked()
		c.mu.Unlock()
		err := ev.Err
		if err == nil {
			err = coordclient.ErrRetriesExhausted
		}
		c.fail("connection to desktop lost", err)

	default:
		c.log.Warn().Stringer("kind", ev.Kind).Msg("unhandled coordinator event")
	}
}

func (c *Controller) setDesktopParticipant(ctx context.Context, id *string) {
	c.mu.Lock()
	prev := c.desktopID
	c.desktopID = id
	if id == nil || prev == nil || *prev != *id {
		c.clearTracksLocked()
	}
	c.mu.Unlock()

	if id == nil {
		if prev != nil {
			c.activity.Info("desktop left the call")
		}
		return
	}
	if err := c.conn.UpdateSubscription(ctx, *id, mediaroom.ScreenOnly()); err != nil {
		c.activity.Error("subscribing to desktop screen failed", err)
		return
	}
	c.activity.Info(fmt.Sprintf("watching desktop %s", *id))
}

// HandleRoomEvent applies one event from the room connection.
func (c *Controller) HandleRoomEvent(ctx context.Context, ev mediaroom.Event) {
	switch ev.Kind {
	case mediaroom.EventJoined:
		id := ev.ParticipantID
		c.mu.Lock()
		if id == "" {
			c.localID = nil
		} else {
			c.localID = &id
		}
		c.mu.Unlock()
		c.activity.Info("joined the call")
		c.syncCamera(ctx)

	case mediaroom.EventLeft:
		c.mu.Lock()
		hadID := c.localID != nil
		c.localID = nil
		c.clearTracksLocked()
		coord := c.coord
		c.mu.Unlock()
		c.activity.Info("left the call")
		if hadID && coord != nil {
			err := coord.UpdateMobile(ctx, proto.MobileUpdate{ParticipantID: proto.Some[*string](nil)})
			if err != nil {
				c.activity.Warn(fmt.Sprintf("participant not cleared on desktop: %v", err))
			}
		}

	case mediaroom.EventParticipantLeft:
		c.mu.Lock()
		if c.desktopID != nil && *c.desktopID == ev.ParticipantID {
			c.clearTracksLocked()
		}
		c.mu.Unlock()

	case mediaroom.EventTrackStarted, mediaroom.EventTrackStopped:
		c.applyTrack(ev.Kind == mediaroom.EventTrackStarted, ev.Track)

	case mediaroom.EventError:
		c.fail("call failed", ev.Err)

	case mediaroom.EventNonFatalError:
		c.activity.Warn(fmt.Sprintf("call warning: %v", ev.Err))

	case mediaroom.EventScreenShareStarted, mediaroom.EventScreenShareStopped,
		mediaroom.EventScreenShareCanceled, mediaroom.EventScreenShareError,
		mediaroom.EventLiveStreamStarted, mediaroom.EventLiveStreamStopped,
		mediaroom.EventLiveStreamError:
		c.log.Debug().Stringer("kind", ev.Kind).Msg("ignoring desktop-side room event")

	default:
		c.log.Warn().Stringer("kind", ev.Kind).Msg("unhandled room event")
	}
}

func (c *Controller) applyTrack(started bool, track mediaroom.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.desktopID == nil || *c.desktopID != track.ParticipantID {
		return
	}
	var held **mediaroom.Track
	switch track.Kind {
	case mediaroom.TrackScreenVideo:
		held = &c.screenVideo
	case mediaroom.TrackScreenAudio:
		held = &c.screenAudio
	default:
		return
	}
	if started {
		t := track
		*held = &t
	} else {
		*held = nil
	}
	c.settleStageLocked()
}

// State is a read-only view of the controller for display.
type State struct {
	Stage                Stage                  `json:"stage"`
	Error                string                 `json:"error,omitempty"`
	RoomName             string                 `json:"roomName,omitempty"`
	RoomURL              string                 `json:"roomUrl,omitempty"`
	LocalParticipantID   *string                `json:"localParticipantId"`
	DesktopParticipantID *string                `json:"desktopParticipantId"`
	CameraEnabled        bool                   `json:"cameraEnabled"`
	CameraPosition       session.CameraPosition `json:"cameraPosition"`
	CameraBusy           bool                   `json:"cameraBusy"`
	ScreenVideo          bool                   `json:"screenVideo"`
	ScreenAudio          bool                   `json:"screenAudio"`
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := State{
		Stage:                c.stage,
		Error:                c.lastErr,
		LocalParticipantID:   c.localID,
		DesktopParticipantID: c.desktopID,
		CameraEnabled:        c.cameraEnabled,
		CameraPosition:       c.cameraPosition,
		CameraBusy:           c.cameraBusy,
		ScreenVideo:          c.screenVideo != nil,
		ScreenAudio:          c.screenAudio != nil,
	}
	if c.room != nil {
		s.RoomName = c.room.Name
		s.RoomURL = c.room.URL
	}
	return s
}
