package capture

import (
	"context"
	"errors"
)

// ErrNoSource is returned when an acquisition is requested without a source.
var ErrNoSource = errors.New("no capture source selected")

// Source is a capturable screen or window.
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Stream is a live capture. Only its acquirer may stop it; Stop is idempotent.
type Stream interface {
	ID() string
	Stop()
}

// Capturer acquires capture streams from the platform.
type Capturer interface {
	Acquire(ctx context.Context, src Source) (Stream, error)
}
