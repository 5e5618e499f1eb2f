package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/vovakirdan/wirepair/internal/proto"
)

// PairingHandlers renders pairing QR codes.
type PairingHandlers struct {
	size int
	log  *zerolog.Logger
}

// NewPairingHandlers creates handlers producing size x size PNGs.
func NewPairingHandlers(size int, logger *zerolog.Logger) *PairingHandlers {
	if size <= 0 {
		size = 256
	}
	return &PairingHandlers{size: size, log: logger}
}

// QRCode encodes the url query parameter as a PNG QR code.
// GET /pairing/qr.png?url=
func (h *PairingHandlers) QRCode(c *gin.Context) {
	target := c.Query("url")
	if target == "" {
		c.JSON(http.StatusBadRequest, proto.ErrorResponse{Error: "url is required"})
		return
	}

	png, err := qrcode.Encode(target, qrcode.Medium, h.size)
	if err != nil {
		h.log.Error().Err(err).Str("url", target).Msg("failed to encode qr code")
		c.JSON(http.StatusInternalServerError, proto.ErrorResponse{Error: "failed to encode qr code"})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
