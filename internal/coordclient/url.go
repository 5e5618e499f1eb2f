package coordclient

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrEmptyURL is returned for a blank coordinator address.
var ErrEmptyURL = errors.New("coordinator URL is empty")

// NormalizeBaseURL turns user input into a coordinator base URL.
// A bare host:port gets the http scheme and trailing slashes are stripped.
func NormalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	trimmed = strings.TrimRight(trimmed, "/")

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid coordinator URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid coordinator URL %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid coordinator URL %q: missing host", raw)
	}
	return trimmed, nil
}

// socketURL maps a base URL onto the event channel endpoint.
func socketURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://") + SocketPath
	default:
		return "ws://" + strings.TrimPrefix(base, "http://") + SocketPath
	}
}
