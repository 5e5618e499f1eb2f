package core

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirepair/internal/metrics"
	"github.com/vovakirdan/wirepair/internal/session"
)

// Hub owns the session store and every connected client.
// All reads and writes of the store happen on the Run goroutine, so
// commands are applied one at a time in arrival order.
type Hub struct {
	store      *session.Store
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	commands   chan *Command
	done       chan struct{}

	port      atomic.Int32
	addresses func() []string
	metrics   *metrics.Metrics
	log       *zerolog.Logger
}

// Options configures optional hub collaborators.
type Options struct {
	Addresses func() []string
	Metrics   *metrics.Metrics
	Logger    *zerolog.Logger
}

// NewHub creates a hub around store. A nil store gets an empty one.
func NewHub(store *session.Store, opts Options) *Hub {
	if store == nil {
		store = session.NewStore()
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	addresses := opts.Addresses
	if addresses == nil {
		addresses = func() []string { return nil }
	}
	return &Hub{
		store:      store,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan *Command),
		done:       make(chan struct{}),
		addresses:  addresses,
		metrics:    opts.Metrics,
		log:        logger,
	}
}

// SetPort records the port the coordinator listens on.
func (h *Hub) SetPort(port int) {
	h.port.Store(int32(port))
}

// Port returns the recorded listening port.
func (h *Hub) Port() int {
	return int(h.port.Load())
}

// Run processes registrations and commands until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.handleRegister(c)
		case c := <-h.unregister:
			h.removeClient(c)
		case cmd := <-h.commands:
			res := h.handleCommand(cmd)
			h.metrics.Command(cmd.Kind.String(), res.Err)
			cmd.reply <- res
		case <-ctx.Done():
			for c := range h.clients {
				h.removeClient(c)
			}
			return
		}
	}
}

// RegisterClient adds a client; it receives the status ack and a snapshot first.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.Events)
	}
}

// UnregisterClient removes a client and closes its event queue.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Submit hands cmd to the hub and waits for its result.
func (h *Hub) Submit(ctx context.Context, cmd *Command) Result {
	cmd.reply = make(chan Result, 1)
	select {
	case h.commands <- cmd:
	case <-h.done:
		return Result{Err: ErrHubStopped}
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	}
	select {
	case res := <-cmd.reply:
		return res
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	}
}

// Link replaces the linked session.
func (h *Hub) Link(ctx context.Context, req session.LinkRequest) (session.LinkedSession, error) {
	res := h.Submit(ctx, &Command{Kind: CommandLink, Link: req})
	if res.Err != nil {
		return session.LinkedSession{}, res.Err
	}
	return *res.Session, nil
}

// Unlink clears the linked session.
func (h *Hub) Unlink(ctx context.Context) error {
	return h.Submit(ctx, &Command{Kind: CommandUnlink}).Err
}

// AnnounceDesktop stores the desktop participant id; nil clears it.
func (h *Hub) AnnounceDesktop(ctx context.Context, participantID *string) error {
	return h.Submit(ctx, &Command{Kind: CommandAnnounceDesktop, Desktop: participantID}).Err
}

// UpdateMobile applies a partial mobile update.
func (h *Hub) UpdateMobile(ctx context.Context, u session.MobileUpdate) error {
	return h.Submit(ctx, &Command{Kind: CommandUpdateMobile, Mobile: u}).Err
}

// Session returns the linked session or ErrNoSession.
func (h *Hub) Session(ctx context.Context) (session.LinkedSession, error) {
	res := h.Submit(ctx, &Command{Kind: CommandGetSession})
	if res.Err != nil {
		return session.LinkedSession{}, res.Err
	}
	return *res.Session, nil
}

// State returns addresses, port and a snapshot of the store.
func (h *Hub) State(ctx context.Context) (State, error) {
	res := h.Submit(ctx, &Command{Kind: CommandGetState})
	if res.Err != nil {
		return State{}, res.Err
	}
	return *res.State, nil
}

func (h *Hub) handleRegister(c *Client) {
	h.clients[c] = struct{}{}
	h.metrics.ClientConnected()
	h.log.Debug().Str("client_id", c.ID).Int("clients", len(h.clients)).Msg("client registered")

	h.send(c, &Event{Kind: EventStatus, Status: &StatusInfo{ClientID: c.ID, Port: h.Port()}})

	snap := h.store.Snapshot()
	if snap.Session != nil {
		h.send(c, &Event{Kind: EventSessionLinked, Session: snap.Session})
	}
	if snap.Desktop.Known() {
		h.send(c, &Event{Kind: EventDesktopParticipant, Desktop: snap.Desktop})
	}
	if snap.Mobile.Known() {
		h.send(c, &Event{Kind: EventMobileParticipant, Mobile: snap.Mobile})
	}
}

func (h *Hub) handleCommand(cmd *Command) Result {
	switch cmd.Kind {
	case CommandLink:
		linked, err := h.store.Link(cmd.Link)
		if err != nil {
			h.log.Debug().Err(err).Msg("link rejected")
			if cmd.Client != nil {
				h.send(cmd.Client, &Event{Kind: EventLinkError, Error: coreError(ErrCodeBadRequest, err.Error())})
			}
			return Result{Err: err}
		}
		h.log.Info().Str("room_name", linked.RoomName).Str("room_url", linked.RoomURL).Msg("session linked")
		h.broadcast(&Event{Kind: EventSessionLinked, Session: &linked})
		return Result{Session: &linked}

	case CommandUnlink:
		h.store.Clear()
		h.log.Info().Msg("session unlinked")
		h.broadcast(&Event{Kind: EventSessionCleared})
		return Result{}

	case CommandAnnounceDesktop:
		ref := h.store.SetDesktop(cmd.Desktop)
		h.log.Info().Str("participant_id", ref.ID()).Msg("desktop participant announced")
		h.broadcast(&Event{Kind: EventDesktopParticipant, Desktop: ref})
		return Result{}

	case CommandUpdateMobile:
		state, changed, err := h.store.UpdateMobile(cmd.Mobile)
		if err != nil {
			return Result{Err: err}
		}
		if changed {
			h.log.Info().
				Str("participant_id", state.ID()).
				Bool("camera_enabled", state.CameraEnabled).
				Str("camera_position", string(state.CameraPosition)).
				Msg("mobile participant updated")
			h.broadcast(&Event{Kind: EventMobileParticipant, Mobile: state})
		}
		return Result{}

	case CommandGetSession:
		linked, ok := h.store.Session()
		if !ok {
			return Result{Err: ErrNoSession}
		}
		return Result{Session: &linked}

	case CommandGetState:
		return Result{State: &State{
			Addresses: h.addresses(),
			Port:      h.Port(),
			Snapshot:  h.store.Snapshot(),
		}}

	default:
		return Result{Err: fmt.Errorf("%w: %d", ErrUnknownCommand, cmd.Kind)}
	}
}

// broadcast delivers ev to every client in mutation order.
func (h *Hub) broadcast(ev *Event) {
	h.metrics.Broadcast(ev.Kind.String())
	for c := range h.clients {
		h.send(c, ev)
	}
}

// send queues ev for c. A client whose queue is full is dropped so that
// it reconnects and resynchronizes instead of missing an update.
func (h *Hub) send(c *Client, ev *Event) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.Events <- ev:
	default:
		h.log.Warn().Str("client_id", c.ID).Msg("client queue full, dropping")
		h.metrics.ClientDropped()
		h.removeClient(c)
	}
}

func (h *Hub) removeClient(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.Events)
	h.metrics.ClientDisconnected()
	h.log.Debug().Str("client_id", c.ID).Int("clients", len(h.clients)).Msg("client unregistered")
}
