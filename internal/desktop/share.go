package desktop

import (
	"context"
	"fmt"
)

// StartScreenShare captures the selected source and publishes it. It is a
// no-op without a source, outside a joined room, or when a share is already
// starting or running. The acquired stream is held until the share ends.
func (c *Controller) StartScreenShare(ctx context.Context) error {
	c.mu.Lock()
	if c.source == nil {
		c.mu.Unlock()
		c.activity.Warn("select a screen or window to share first")
		return nil
	}
	if c.share == ShareStarting || c.share == ShareSharing {
		c.mu.Unlock()
		return nil
	}
	if c.stage != StageJoined {
		c.mu.Unlock()
		c.activity.Warn("join the room before sharing the screen")
		return nil
	}
	src := *c.source
	c.share = ShareStarting
	c.shareGen++
	gen := c.shareGen
	old := c.stream
	c.stream = nil
	c.mu.Unlock()

	if old != nil {
		old.Stop()
	}

	stream, err := c.capturer.Acquire(ctx, src)
	if err != nil {
		if !c.setShareError(gen) {
			return nil
		}
		c.activity.Error(fmt.Sprintf("capturing %s failed", src.Name), err)
		return fmt.Errorf("acquire %s: %w", src.ID, err)
	}

	c.mu.Lock()
	if c.share != ShareStarting || c.shareGen != gen {
		// Stopped, left or restarted while acquiring.
		c.mu.Unlock()
		stream.Stop()
		return nil
	}
	prev := c.stream
	c.stream = stream
	c.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}

	if err := c.conn.StartScreenShare(ctx, stream); err != nil {
		if !c.setShareError(gen) {
			return nil
		}
		c.releaseStream()
		c.activity.Error("starting screen share failed", err)
		return fmt.Errorf("start screen share: %w", err)
	}
	c.log.Info().Str("source", src.ID).Str("stream", stream.ID()).Msg("screen share requested")
	return nil
}

// StopScreenShare stops sharing. The held stream is released whether or
// not the stop request succeeds.
func (c *Controller) StopScreenShare(ctx context.Context) error {
	c.mu.Lock()
	switch c.share {
	case ShareStarting, ShareSharing, ShareStopping:
	default:
		c.mu.Unlock()
		return nil
	}
	c.share = ShareStopping
	c.shareGen++
	c.mu.Unlock()

	err := c.conn.StopScreenShare(ctx)
	c.releaseStream()

	c.mu.Lock()
	if err != nil {
		c.share = ShareError
	} else {
		c.share = ShareIdle
	}
	c.mu.Unlock()

	if err != nil {
		c.activity.Error("stopping screen share failed", err)
		return fmt.Errorf("stop screen share: %w", err)
	}
	c.activity.Info("screen share stopped")
	return nil
}

// setShareError marks the share failed unless attempt gen has been
// superseded, and reports whether it did.
func (c *Controller) setShareError(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shareGen != gen {
		return false
	}
	c.share = ShareError
	return true
}

// releaseStream stops and forgets the held capture stream, if any.
func (c *Controller) releaseStream() {
	c.mu.Lock()
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()
	if stream != nil {
		stream.Stop()
	}
}
