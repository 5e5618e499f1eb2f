package core

import "github.com/vovakirdan/wirepair/internal/session"

// CommandKind describes what a client wants the coordinator to do.
type CommandKind int

const (
	// CommandLink replaces the linked session.
	CommandLink CommandKind = iota
	// CommandUnlink clears the linked session and both participants.
	CommandUnlink
	// CommandAnnounceDesktop overwrites the desktop participant id.
	CommandAnnounceDesktop
	// CommandUpdateMobile applies a partial mobile participant update.
	CommandUpdateMobile
	// CommandGetSession reads the linked session.
	CommandGetSession
	// CommandGetState reads the full communication state.
	CommandGetState
)

var commandNames = [...]string{
	CommandLink:            "link",
	CommandUnlink:          "unlink",
	CommandAnnounceDesktop: "announce_desktop",
	CommandUpdateMobile:    "update_mobile",
	CommandGetSession:      "get_session",
	CommandGetState:        "get_state",
}

func (k CommandKind) String() string {
	if k < 0 || int(k) >= len(commandNames) {
		return "unknown"
	}
	return commandNames[k]
}

// Command represents an action requested by a REST call or a socket.
// Client is nil for REST calls.
type Command struct {
	Kind    CommandKind
	Client  *Client
	Link    session.LinkRequest
	Desktop *string
	Mobile  session.MobileUpdate

	reply chan Result
}

// Result is the outcome of a command.
type Result struct {
	Session *session.LinkedSession
	State   *State
	Err     error
}

// State is the coordinator state as returned by getState.
type State struct {
	Addresses []string
	Port      int
	Snapshot  session.Snapshot
}
