package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirepair/internal/config"
	"github.com/vovakirdan/wirepair/internal/core"
	"github.com/vovakirdan/wirepair/internal/proto"
)

var errQueueClosed = errors.New("client queue closed")

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub       *core.Hub
	queueSize int
	rateLimit int
	log       *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		hub:       hub,
		queueSize: cfg.ClientQueueSize,
		rateLimit: cfg.SocketRateLimit,
		log:       logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := core.NewClient(uuid.NewString(), h.queueSize)
	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)
	h.log.Info().Str("client_id", client.ID).Str("remote", r.RemoteAddr).Msg("socket connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	switch {
	case errors.Is(err, errQueueClosed):
		status = websocket.StatusTryAgainLater
		reason = "resync required"
	case err != nil && !errors.Is(err, context.Canceled):
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	h.log.Info().Str("client_id", client.ID).Msg("socket disconnected")
	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.rateLimit)
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if !limiter.allow() {
			h.log.Warn().Str("client_id", client.ID).Msg("socket rate limit exceeded")
			if err := h.writeError(ctx, conn, "rate limit exceeded"); err != nil {
				return err
			}
			continue
		}

		cmd, protoErr, err := inboundToCommand(client, inbound)
		if err != nil {
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("failed to map inbound")
			return err
		}
		if protoErr != nil {
			if err := h.writeError(ctx, conn, protoErr.Message); err != nil {
				return err
			}
			continue
		}

		res := h.hub.Submit(ctx, cmd)
		switch {
		case res.Err == nil:
		case cmd.Kind == core.CommandLink && core.IsValidation(res.Err):
			// The hub already sent mobile-link-error to this client.
		case core.IsValidation(res.Err):
			if err := h.writeError(ctx, conn, res.Err.Error()); err != nil {
				return err
			}
		default:
			return res.Err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return errQueueClosed
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeError(ctx context.Context, conn *websocket.Conn, msg string) error {
	return wsjson.Write(ctx, conn, proto.Outbound{
		Event: proto.EventError,
		Data:  proto.ErrorResponse{Error: msg},
	})
}
