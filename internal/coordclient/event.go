package coordclient

import (
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/wirepair/internal/proto"
)

// EventKind enumerates what a Channel delivers.
type EventKind int

const (
	// EventConnected follows every successful (re)connect; Status is set.
	EventConnected EventKind = iota + 1
	// EventSession carries daily-session; Session.Active is false after unlink.
	EventSession
	EventDesktopParticipant
	EventMobileParticipant
	// EventLinkError and EventError carry Message.
	EventLinkError
	EventError
	// EventReconnecting is sent when the connection drops and a redial starts.
	EventReconnecting
	// EventDisconnected is terminal: the retry budget is spent and Err says why.
	EventDisconnected
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventSession:
		return proto.EventDailySession
	case EventDesktopParticipant:
		return proto.EventDesktopParticipant
	case EventMobileParticipant:
		return proto.EventMobileParticipant
	case EventLinkError:
		return proto.EventMobileLinkError
	case EventError:
		return proto.EventError
	case EventReconnecting:
		return "reconnecting"
	case EventDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Event is one decoded message or lifecycle notification of a Channel.
type Event struct {
	Kind    EventKind
	Status  *proto.Status
	Session *proto.SessionEvent
	Desktop *proto.DesktopParticipant
	Mobile  *proto.MobileParticipant
	Message string
	Err     error
}

func decodeEvent(in proto.Inbound) (Event, error) {
	switch in.Event {
	case proto.EventStatus:
		var status proto.Status
		if err := decodeData(in, &status); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventConnected, Status: &status}, nil
	case proto.EventDailySession:
		var sess proto.SessionEvent
		if err := decodeData(in, &sess); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventSession, Session: &sess}, nil
	case proto.EventDesktopParticipant:
		var desktop proto.DesktopParticipant
		if err := decodeData(in, &desktop); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventDesktopParticipant, Desktop: &desktop}, nil
	case proto.EventMobileParticipant:
		var mobile proto.MobileParticipant
		if err := decodeData(in, &mobile); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventMobileParticipant, Mobile: &mobile}, nil
	case proto.EventMobileLinkError:
		var linkErr proto.LinkError
		if err := decodeData(in, &linkErr); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventLinkError, Message: linkErr.Error}, nil
	case proto.EventError:
		var errResp proto.ErrorResponse
		if err := decodeData(in, &errResp); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventError, Message: errResp.Error}, nil
	default:
		return Event{}, fmt.Errorf("unknown event %q", in.Event)
	}
}

func decodeData(in proto.Inbound, dst any) error {
	if len(in.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(in.Data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", in.Event, err)
	}
	return nil
}
