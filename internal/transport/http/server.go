package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirepair/internal/config"
	"github.com/vovakirdan/wirepair/internal/core"
)

// SocketPath is where the event channel is served.
const SocketPath = "/socket.io"

// NewServer builds the coordinator HTTP server: REST routes, the event
// channel and, when registry is non-nil, /metrics.
// The socket is mounted on the mux directly, next to the gin engine, so the
// upgrade gets the raw response writer and can hijack the connection.
func NewServer(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger, registry *prometheus.Registry) *stdhttp.Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	mux := stdhttp.NewServeMux()
	mux.Handle(SocketPath, NewWSHandler(hub, cfg, logger))
	mux.Handle("/", NewRouter(hub, cfg, logger, registry))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter builds the gin engine serving the REST routes.
func NewRouter(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger, registry *prometheus.Registry) *gin.Engine {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), CORSMiddleware(), LoggerMiddleware(logger))

	sessions := NewSessionHandlers(hub, logger)
	r.GET("/health", sessions.Health)
	r.POST("/link/session", sessions.Link)
	r.DELETE("/link/session", sessions.Unlink)
	r.GET("/daily/session", sessions.Session)
	r.POST("/link/desktop", sessions.AnnounceDesktop)
	r.POST("/link/mobile", sessions.UpdateMobile)
	r.GET("/state", sessions.State)

	pairing := NewPairingHandlers(cfg.QRSize, logger)
	r.GET("/pairing/qr.png", pairing.QRCode)

	if registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	return r
}
