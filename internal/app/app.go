package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirepair/internal/config"
	"github.com/vovakirdan/wirepair/internal/core"
	"github.com/vovakirdan/wirepair/internal/log"
	"github.com/vovakirdan/wirepair/internal/metrics"
	"github.com/vovakirdan/wirepair/internal/netinfo"
	"github.com/vovakirdan/wirepair/internal/session"
	transporthttp "github.com/vovakirdan/wirepair/internal/transport/http"
)

// App wires the session store, hub and HTTP transport of the coordinator.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	addr            string
	aliases         []string
	hub             *core.Hub
	log             *zerolog.Logger

	readyOnce sync.Once
	ready     chan struct{}
}

// New constructs the coordinator with the provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) *App {
	if logger == nil {
		logger = log.Nop()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	aliases := append([]string(nil), cfg.EmulatorAliases...)
	hub := core.NewHub(session.NewStore(), core.Options{
		Addresses: func() []string { return netinfo.Addresses(aliases) },
		Metrics:   metrics.New(registry),
		Logger:    log.Component(logger, "hub"),
	})
	server := transporthttp.NewServer(hub, cfg, log.Component(logger, "http"), registry)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		addr:            cfg.Addr,
		aliases:         aliases,
		hub:             hub,
		log:             logger,
		ready:           make(chan struct{}),
	}
}

// Ready is closed once the listener is bound and Port is valid.
func (a *App) Ready() <-chan struct{} {
	return a.ready
}

// Port returns the bound port, or 0 before Ready.
func (a *App) Port() int {
	return a.hub.Port()
}

// PairingURLs lists the coordinator base URLs a mobile client can use.
func (a *App) PairingURLs() []string {
	port := a.Port()
	addrs := netinfo.Addresses(a.aliases)
	urls := make([]string, 0, len(addrs))
	for _, host := range addrs {
		urls = append(urls, netinfo.BaseURL(host, port))
	}
	return urls
}

// Run binds the listener, serves until ctx is cancelled, then shuts down
// gracefully.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.addr, err)
	}
	tcpAddr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		ln.Close()
		return fmt.Errorf("unexpected listener address %s", ln.Addr())
	}

	hubCtx, cancelHub := context.WithCancel(context.Background())
	defer cancelHub()
	go a.hub.Run(hubCtx)

	a.hub.SetPort(tcpAddr.Port)
	a.log.Info().Str("addr", tcpAddr.String()).Int("port", tcpAddr.Port).Msg("coordinator listening")
	for _, u := range a.PairingURLs() {
		a.log.Info().Str("url", u).Msg("pairing address")
	}
	a.readyOnce.Do(func() { close(a.ready) })

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		// Hijacked sockets are not tracked by Shutdown; stopping the hub
		// closes their queues so they disconnect.
		cancelHub()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}
