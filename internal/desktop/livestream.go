package desktop

import (
	"context"
	"fmt"

	"github.com/vovakirdan/wirepair/internal/mediaroom"
)

// StartLivestream streams the room to the configured RTMP endpoint. Missing
// settings or a stream already starting or live make it a no-op.
func (c *Controller) StartLivestream(ctx context.Context) error {
	c.mu.Lock()
	endpoint := mediaroom.LiveStreamEndpoint(c.rtmpBase, c.streamKey)
	if endpoint == "" {
		c.mu.Unlock()
		c.activity.Warn("livestream needs an RTMP URL and a stream key")
		return nil
	}
	if c.live == LiveStarting || c.live == LiveLive {
		c.mu.Unlock()
		return nil
	}
	if c.stage != StageJoined {
		c.mu.Unlock()
		c.activity.Warn("join the room before going live")
		return nil
	}
	c.live = LiveStarting
	c.livePaused = false
	c.mu.Unlock()

	if err := c.conn.StartLiveStreaming(ctx, endpoint); err != nil {
		c.setLive(LiveError)
		c.activity.Error("starting livestream failed", err)
		return fmt.Errorf("start livestream: %w", err)
	}
	c.log.Info().Msg("livestream requested")
	return nil
}

// StopLivestream stops a live or starting stream; otherwise it does nothing.
func (c *Controller) StopLivestream(ctx context.Context) error {
	c.mu.Lock()
	if c.live != LiveLive && c.live != LiveStarting {
		c.mu.Unlock()
		return nil
	}
	c.live = LiveStopping
	c.mu.Unlock()

	if err := c.conn.StopLiveStreaming(ctx); err != nil {
		c.setLive(LiveError)
		c.activity.Error("stopping livestream failed", err)
		return fmt.Errorf("stop livestream: %w", err)
	}
	c.setLive(LiveIdle)
	return nil
}

// PauseLivestream stops a live stream and remembers it should come back.
// The media-room service has no pause, so this is a plain stop.
func (c *Controller) PauseLivestream(ctx context.Context) error {
	c.mu.Lock()
	live := c.live == LiveLive
	c.mu.Unlock()
	if !live {
		return nil
	}
	if err := c.StopLivestream(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.livePaused = true
	c.mu.Unlock()
	c.activity.Info("livestream paused")
	return nil
}

// ResumeLivestream starts a fresh stream after PauseLivestream.
func (c *Controller) ResumeLivestream(ctx context.Context) error {
	c.mu.Lock()
	paused := c.livePaused
	c.mu.Unlock()
	if !paused {
		return nil
	}
	return c.StartLivestream(ctx)
}

func (c *Controller) setLive(status LiveStatus) {
	c.mu.Lock()
	c.live = status
	c.mu.Unlock()
}
