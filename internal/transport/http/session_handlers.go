package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirepair/internal/core"
	"github.com/vovakirdan/wirepair/internal/proto"
)

// SessionHandlers serves the pairing REST surface.
type SessionHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewSessionHandlers creates a new session handlers instance.
func NewSessionHandlers(hub *core.Hub, logger *zerolog.Logger) *SessionHandlers {
	return &SessionHandlers{
		hub: hub,
		log: logger,
	}
}

// Health reports liveness.
// GET /health
func (h *SessionHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, proto.HealthResponse{Status: "ok"})
}

// Link stores a new linked session and broadcasts it.
// POST /link/session
func (h *SessionHandlers) Link(c *gin.Context) {
	var req proto.LinkRequest
	if !h.bind(c, &req) {
		return
	}

	linked, err := h.hub.Link(c.Request.Context(), linkRequestFromProto(req))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, proto.LinkResponse{OK: true, LinkedAt: linked.LinkedAt})
}

// Unlink clears the linked session.
// DELETE /link/session
func (h *SessionHandlers) Unlink(c *gin.Context) {
	if err := h.hub.Unlink(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, proto.OKResponse{OK: true})
}

// Session returns the linked session.
// GET /daily/session
func (h *SessionHandlers) Session(c *gin.Context) {
	linked, err := h.hub.Session(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, linkedSessionToProto(linked))
}

// AnnounceDesktop stores the desktop participant id.
// POST /link/desktop
func (h *SessionHandlers) AnnounceDesktop(c *gin.Context) {
	var req proto.DesktopParticipant
	if !h.bind(c, &req) {
		return
	}
	if err := h.hub.AnnounceDesktop(c.Request.Context(), req.ParticipantID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, proto.OKResponse{OK: true})
}

// UpdateMobile applies a partial mobile participant update.
// POST /link/mobile
func (h *SessionHandlers) UpdateMobile(c *gin.Context) {
	var req proto.MobileUpdate
	if !h.bind(c, &req) {
		return
	}
	if err := h.hub.UpdateMobile(c.Request.Context(), mobileUpdateFromProto(req)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, proto.OKResponse{OK: true})
}

// State returns reachable addresses, the port and the stored state.
// GET /state
func (h *SessionHandlers) State(c *gin.Context) {
	state, err := h.hub.State(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stateToProto(state))
}

// bind decodes the JSON body into dst. An empty body leaves dst zero.
func (h *SessionHandlers) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		h.log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, proto.ErrorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (h *SessionHandlers) fail(c *gin.Context, err error) {
	switch {
	case core.IsValidation(err):
		c.JSON(http.StatusBadRequest, proto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrNoSession):
		c.JSON(http.StatusNotFound, proto.ErrorResponse{Error: err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusServiceUnavailable, proto.ErrorResponse{Error: "coordinator unavailable"})
	}
}
