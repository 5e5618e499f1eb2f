package coordclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirepair/internal/proto"
)

const (
	defaultChannelBuffer = 32
	ackTimeout           = 5 * time.Second
)

// ErrChannelClosed is returned by Send when no connection is open.
var ErrChannelClosed = errors.New("event channel closed")

// ChannelOptions configures OpenChannel.
type ChannelOptions struct {
	Retry RetryPolicy
	// OnConnect runs after every connect acknowledgement and before any
	// further events are read. An error fails that connection attempt.
	OnConnect func(ctx context.Context, ch *Channel) error
	Buffer    int
}

// Channel is a reconnecting event channel to the coordinator.
// Events are delivered in order on Events, which is closed when the
// channel ends, either by Close or by an exhausted retry budget.
type Channel struct {
	url    string
	opts   ChannelOptions
	events chan Event
	log    *zerolog.Logger

	mu   sync.Mutex
	conn *websocket.Conn

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// OpenChannel dials the event channel, retrying per opts.Retry, and waits
// for the connect acknowledgement. ctx bounds the initial connect only; the
// channel then lives until Close.
func (c *Client) OpenChannel(ctx context.Context, opts ChannelOptions) (*Channel, error) {
	if opts.Buffer <= 0 {
		opts.Buffer = defaultChannelBuffer
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ch := &Channel{
		url:    socketURL(c.base),
		opts:   opts,
		events: make(chan Event, opts.Buffer),
		log:    c.log,
		ctx:    runCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	status, err := ch.connect(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	ch.events <- Event{Kind: EventConnected, Status: status}
	go ch.run()
	return ch, nil
}

// Events returns the delivery channel.
func (ch *Channel) Events() <-chan Event {
	return ch.events
}

// Done is closed once the channel has stopped delivering events.
func (ch *Channel) Done() <-chan struct{} {
	return ch.done
}

// Send writes one envelope on the current connection.
func (ch *Channel) Send(ctx context.Context, event string, data any) error {
	conn := ch.current()
	if conn == nil {
		return ErrChannelClosed
	}
	if err := wsjson.Write(ctx, conn, proto.Outbound{Event: event, Data: data}); err != nil {
		return fmt.Errorf("send %s: %w", event, err)
	}
	return nil
}

// Close stops reconnecting, closes the connection and waits for the
// delivery loop to exit.
func (ch *Channel) Close() error {
	ch.closeOnce.Do(func() {
		ch.cancel()
		if conn := ch.swap(nil); conn != nil {
			conn.Close(websocket.StatusNormalClosure, "closing")
		}
	})
	<-ch.done
	return nil
}

func (ch *Channel) run() {
	defer close(ch.done)
	defer close(ch.events)
	defer func() {
		if conn := ch.swap(nil); conn != nil {
			conn.CloseNow()
		}
	}()

	for {
		err := ch.readLoop(ch.current())
		if ch.ctx.Err() != nil {
			return
		}
		if conn := ch.swap(nil); conn != nil {
			conn.CloseNow()
		}
		ch.log.Warn().Err(err).Msg("event channel dropped, reconnecting")
		ch.emit(Event{Kind: EventReconnecting, Err: err})

		status, err := ch.connect(ch.ctx)
		if err != nil {
			if ch.ctx.Err() != nil {
				return
			}
			ch.log.Error().Err(err).Msg("event channel lost")
			ch.emit(Event{Kind: EventDisconnected, Err: err})
			return
		}
		ch.emit(Event{Kind: EventConnected, Status: status})
	}
}

func (ch *Channel) readLoop(conn *websocket.Conn) error {
	if conn == nil {
		return ErrChannelClosed
	}
	for {
		var in proto.Inbound
		if err := wsjson.Read(ch.ctx, conn, &in); err != nil {
			return err
		}
		ev, err := decodeEvent(in)
		if err != nil {
			ch.log.Warn().Err(err).Msg("skipping event")
			continue
		}
		if !ch.emit(ev) {
			return ch.ctx.Err()
		}
	}
}

func (ch *Channel) connect(ctx context.Context) (*proto.Status, error) {
	var status *proto.Status
	err := ch.opts.Retry.Do(ctx, func(ctx context.Context, attempt int) error {
		conn, _, err := websocket.Dial(ctx, ch.url, nil)
		if err != nil {
			ch.log.Debug().Err(err).Int("attempt", attempt).Str("url", ch.url).Msg("event channel dial failed")
			return err
		}

		ack, err := readAck(ctx, conn)
		if err != nil {
			conn.Close(websocket.StatusProtocolError, "expected status")
			return err
		}

		ch.swap(conn)
		if ch.opts.OnConnect != nil {
			if err := ch.opts.OnConnect(ctx, ch); err != nil {
				ch.swap(nil)
				conn.Close(websocket.StatusNormalClosure, "connect hook failed")
				return err
			}
		}
		status = ack
		ch.log.Info().Str("url", ch.url).Str("client_id", ack.ClientID).Int("attempt", attempt).Msg("event channel connected")
		return nil
	})
	return status, err
}

func readAck(ctx context.Context, conn *websocket.Conn) (*proto.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, ackTimeout)
	defer cancel()

	var in proto.Inbound
	if err := wsjson.Read(ctx, conn, &in); err != nil {
		return nil, fmt.Errorf("read connect ack: %w", err)
	}
	ev, err := decodeEvent(in)
	if err != nil {
		return nil, err
	}
	if ev.Kind != EventConnected {
		return nil, fmt.Errorf("expected %s first, got %s", proto.EventStatus, in.Event)
	}
	return ev.Status, nil
}

func (ch *Channel) emit(ev Event) bool {
	select {
	case ch.events <- ev:
		return true
	case <-ch.ctx.Done():
		return false
	}
}

func (ch *Channel) current() *websocket.Conn {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.conn
}

func (ch *Channel) swap(conn *websocket.Conn) *websocket.Conn {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	old := ch.conn
	ch.conn = conn
	return old
}
