package coordclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirepair/internal/proto"
)

// SocketPath is where the coordinator serves its event channel.
const SocketPath = "/socket.io"

const defaultTimeout = 10 * time.Second

// ErrNoSession is returned by Session when nothing is linked.
var ErrNoSession = errors.New("no linked session")

// APIError is a non-2xx coordinator response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("coordinator returned %d", e.Status)
	}
	return fmt.Sprintf("coordinator returned %d: %s", e.Status, e.Message)
}

// Client talks to one coordinator over REST and its event channel.
type Client struct {
	base string
	http *http.Client
	log  *zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the client logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) { c.log = logger }
}

// New normalizes rawURL and returns a client for it.
func New(rawURL string, opts ...Option) (*Client, error) {
	base, err := NormalizeBaseURL(rawURL)
	if err != nil {
		return nil, err
	}
	nop := zerolog.Nop()
	c := &Client{
		base: base,
		http: &http.Client{Timeout: defaultTimeout},
		log:  &nop,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized coordinator address.
func (c *Client) BaseURL() string {
	return c.base
}

// Health checks GET /health.
func (c *Client) Health(ctx context.Context) error {
	var out proto.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("coordinator unhealthy: %q", out.Status)
	}
	return nil
}

// LinkSession stores req as the linked session.
func (c *Client) LinkSession(ctx context.Context, req proto.LinkRequest) (proto.LinkResponse, error) {
	var out proto.LinkResponse
	err := c.do(ctx, http.MethodPost, "/link/session", req, &out)
	return out, err
}

// UnlinkSession clears the linked session.
func (c *Client) UnlinkSession(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/link/session", nil, nil)
}

// Session fetches the linked session or ErrNoSession.
func (c *Client) Session(ctx context.Context) (proto.LinkedSession, error) {
	var out proto.LinkedSession
	err := c.do(ctx, http.MethodGet, "/daily/session", nil, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return out, ErrNoSession
	}
	return out, err
}

// AnnounceDesktop publishes the desktop participant id; nil clears it.
func (c *Client) AnnounceDesktop(ctx context.Context, participantID *string) error {
	return c.do(ctx, http.MethodPost, "/link/desktop", proto.DesktopParticipant{ParticipantID: participantID}, nil)
}

// UpdateMobile sends a partial mobile participant update.
func (c *Client) UpdateMobile(ctx context.Context, u proto.MobileUpdate) error {
	return c.do(ctx, http.MethodPost, "/link/mobile", u, nil)
}

// State fetches the coordinator's addresses, port and pairing state.
func (c *Client) State(ctx context.Context) (proto.CommunicationState, error) {
	var out proto.CommunicationState
	err := c.do(ctx, http.MethodGet, "/state", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("coordinator request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp proto.ErrorResponse
		_ = json.Unmarshal(data, &errResp)
		return &APIError{Status: resp.StatusCode, Message: errResp.Error}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
