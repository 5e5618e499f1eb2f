package desktop

import (
	"context"
	"fmt"

	"github.com/vovakirdan/wirepair/internal/coordclient"
	"github.com/vovakirdan/wirepair/internal/mediaroom"
	"github.com/vovakirdan/wirepair/internal/proto"
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
		c.activity.Warn("coordinator connection interrupted, reconnecting")

	case coordclient.EventDisconnected:
		c.mu.Lock()
		c.channel = nil
		c.mu.Unlock()
		c.activity.Error("coordinator connection lost", ev.Err)

	case coordclient.EventSession:
		if ev.Session == nil {
			return
		}
		if ev.Session.Active {
			c.linkSession(ctx, *ev.Session)
		} else {
			c.unlinkSession(ctx)
		}

	case coordclient.EventDesktopParticipant:
		c.log.Debug().Msg("coordinator echoed desktop participant")

	case coordclient.EventMobileParticipant:
		if ev.Mobile == nil {
			return
		}
		c.mu.Lock()
		c.mobile = *ev.Mobile
		c.mu.Unlock()

	case coordclient.EventLinkError, coordclient.EventError:
		c.activity.Warn(fmt.Sprintf("coordinator reported: %s", ev.Message))

	default:
		c.log.Warn().Stringer("kind", ev.Kind).Msg("unhandled coordinator event")
	}
}

// linkSession adopts a linked session. A different room replaces the
// current one; the same room is re-announced because a link resets the
// coordinator's participant refs.
func (c *Controller) linkSession(ctx context.Context, sess proto.SessionEvent) {
	c.mu.Lock()
	prev := c.session
	c.session = &sess
	c.autoJoin = true
	c.mobile = proto.MobileParticipant{}
	inRoom := c.stage == StageJoined || c.stage == StageJoining
	switching := prev != nil && !sameRoom(*prev, sess) && inRoom
	var reannounce *string
	if !switching && c.stage == StageJoined {
		reannounce = c.localID
	}
	if c.stage == StageIdle {
		c.stage = StageReady
	}
	c.mu.Unlock()

	c.activity.Info(fmt.Sprintf("session %s linked", sess.RoomName))

	if switching {
		if err := c.Leave(ctx); err != nil {
			return
		}
		c.mu.Lock()
		c.autoJoin = true
		c.mu.Unlock()
	}
	if reannounce != nil {
		c.announce(ctx, reannounce)
	}
	_ = c.maybeJoin(ctx)
}

// sameRoom compares room identity. Provisioned rooms may share a server
// URL and differ only by name.
func sameRoom(a, b proto.SessionEvent) bool {
	return a.RoomURL == b.RoomURL && a.RoomName == b.RoomName
}

func (c *Controller) unlinkSession(ctx context.Context) {
	c.mu.Lock()
	had := c.session != nil
	c.session = nil
	c.mobile = proto.MobileParticipant{}
	c.mu.Unlock()
	if !had {
		return
	}
	c.activity.Info("session unlinked")
	_ = c.Leave(ctx)
}

// HandleRoomEvent applies one event from the room connection.
func (c *Controller) HandleRoomEvent(ctx context.Context, ev mediaroom.Event) {
	switch ev.Kind {
	case mediaroom.EventJoined:
		id := ev.ParticipantID
		c.mu.Lock()
		if c.stage != StageJoining {
			// Superseded by a leave or an error while joining.
			stage := c.stage
			c.mu.Unlock()
			c.log.Debug().Str("stage", string(stage)).Str("participant_id", id).Msg("ignoring late join")
			return
		}
		c.stage = StageJoined
		c.lastErr = ""
		c.localID = &id
		name := ""
		if c.session != nil {
			name = c.session.RoomName
		}
		c.mu.Unlock()
		c.activity.Info(fmt.Sprintf("joined %s as %s", name, id))
		c.announce(ctx, &id)

	case mediaroom.EventLeft:
		c.afterLeave(ctx)

	case mediaroom.EventParticipantLeft:
		c.activity.Info(fmt.Sprintf("participant %s left", ev.ParticipantID))

	case mediaroom.EventTrackStarted, mediaroom.EventTrackStopped:
		c.log.Debug().Stringer("kind", ev.Kind).Str("participant_id", ev.Track.ParticipantID).Msg("track changed")

	case mediaroom.EventScreenShareStarted:
		c.mu.Lock()
		c.share = ShareSharing
		c.mu.Unlock()
		c.activity.Info("screen share started")

	case mediaroom.EventScreenShareStopped:
		c.endShare(ShareIdle)

	case mediaroom.EventScreenShareCanceled:
		c.endShare(ShareIdle)
		c.activity.Warn("screen share canceled")

	case mediaroom.EventScreenShareError:
		c.endShare(ShareError)
		c.activity.Error("screen share failed", ev.Err)

	case mediaroom.EventLiveStreamStarted:
		c.setLive(LiveLive)
		c.activity.Info("livestream started")

	case mediaroom.EventLiveStreamStopped:
		c.setLive(LiveIdle)
		c.activity.Info("livestream stopped")

	case mediaroom.EventLiveStreamError:
		c.setLive(LiveError)
		c.activity.Error("livestream failed", ev.Err)

	case mediaroom.EventError:
		c.mu.Lock()
		c.stage = StageError
		if ev.Err != nil {
			c.lastErr = ev.Err.Error()
		}
		c.share = ShareIdle
		c.live = LiveIdle
		c.mu.Unlock()
		c.releaseStream()
		c.activity.Error("room error", ev.Err)

	case mediaroom.EventNonFatalError:
		c.activity.Warn(fmt.Sprintf("room warning: %v", ev.Err))

	default:
		c.log.Warn().Stringer("kind", ev.Kind).Msg("unhandled room event")
	}
}

// endShare moves the share to status and force-releases the held stream.
func (c *Controller) endShare(status ShareStatus) {
	c.mu.Lock()
	c.share = status
	c.mu.Unlock()
	c.releaseStream()
}
