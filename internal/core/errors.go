package core

import (
	"errors"

	"github.com/vovakirdan/wirepair/internal/session"
)

// Error codes for domain errors.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNoSession    = "no_session"
	ErrCodeUnknownEvent = "unknown_event"
	ErrCodeUnavailable  = "unavailable"
)

var (
	ErrNoSession      = errors.New("No linked session")
	ErrHubStopped     = errors.New("hub stopped")
	ErrUnknownCommand = errors.New("unknown command")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// IsValidation reports whether err is a rejected payload rather than a server fault.
func IsValidation(err error) bool {
	return errors.Is(err, session.ErrRoomURLRequired) ||
		errors.Is(err, session.ErrInvalidCameraPosition)
}

// AsCoreError maps err onto a wire-facing error.
func AsCoreError(err error) *CoreError {
	var ce *CoreError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ce):
		return ce
	case IsValidation(err):
		return coreError(ErrCodeBadRequest, err.Error())
	case errors.Is(err, ErrNoSession):
		return coreError(ErrCodeNoSession, err.Error())
	default:
		return coreError(ErrCodeUnavailable, err.Error())
	}
}
