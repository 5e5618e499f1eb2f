package http

import (
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/wirepair/internal/core"
	"github.com/vovakirdan/wirepair/internal/proto"
	"github.com/vovakirdan/wirepair/internal/session"
)

// inboundToCommand maps a socket frame onto a hub command. A non-nil
// *core.CoreError is reported back to the sender; a non-nil error ends the connection.
func inboundToCommand(client *core.Client, inbound proto.Inbound) (*core.Command, *core.CoreError, error) {
	switch inbound.Event {
	case proto.EventMobileLinkSession:
		var req proto.LinkRequest
		if err := unmarshalData(inbound.Data, &req); err != nil {
			return nil, &core.CoreError{Code: core.ErrCodeBadRequest, Message: "invalid mobile-link-session payload"}, nil
		}
		return &core.Command{
			Kind:   core.CommandLink,
			Client: client,
			Link:   linkRequestFromProto(req),
		}, nil, nil
	case proto.EventMobileParticipant:
		var upd proto.MobileUpdate
		if err := unmarshalData(inbound.Data, &upd); err != nil {
			return nil, &core.CoreError{Code: core.ErrCodeBadRequest, Message: "invalid mobile-participant payload"}, nil
		}
		return &core.Command{
			Kind:   core.CommandUpdateMobile,
			Client: client,
			Mobile: mobileUpdateFromProto(upd),
		}, nil, nil
	default:
		return nil, &core.CoreError{
			Code:    core.ErrCodeUnknownEvent,
			Message: fmt.Sprintf("unknown event %q", inbound.Event),
		}, nil
	}
}

func unmarshalData(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventStatus:
		status := proto.Status{Connected: true}
		if event.Status != nil {
			status.ClientID = event.Status.ClientID
			status.Port = event.Status.Port
		}
		return proto.Outbound{Event: proto.EventStatus, Data: status}
	case core.EventSessionLinked:
		if event.Session == nil {
			return proto.Outbound{Event: proto.EventDailySession, Data: proto.SessionEvent{}}
		}
		linkedAt := event.Session.LinkedAt
		return proto.Outbound{
			Event: proto.EventDailySession,
			Data: proto.SessionEvent{
				RoomName: event.Session.RoomName,
				RoomURL:  event.Session.RoomURL,
				Token:    event.Session.Token,
				LinkedAt: &linkedAt,
				Active:   true,
			},
		}
	case core.EventSessionCleared:
		return proto.Outbound{Event: proto.EventDailySession, Data: proto.SessionEvent{Active: false}}
	case core.EventDesktopParticipant:
		return proto.Outbound{
			Event: proto.EventDesktopParticipant,
			Data:  proto.DesktopParticipant{ParticipantID: event.Desktop.ParticipantID},
		}
	case core.EventMobileParticipant:
		return proto.Outbound{Event: proto.EventMobileParticipant, Data: mobileStateToProto(event.Mobile)}
	case core.EventLinkError:
		msg := "link rejected"
		if event.Error != nil {
			msg = event.Error.Message
		}
		return proto.Outbound{Event: proto.EventMobileLinkError, Data: proto.LinkError{Error: msg}}
	case core.EventError:
		msg := "unknown error"
		if event.Error != nil {
			msg = event.Error.Message
		}
		return proto.Outbound{Event: proto.EventError, Data: proto.ErrorResponse{Error: msg}}
	default:
		return proto.Outbound{Event: proto.EventError, Data: proto.ErrorResponse{Error: "unknown event"}}
	}
}

func linkRequestFromProto(req proto.LinkRequest) session.LinkRequest {
	return session.LinkRequest{
		RoomName: req.RoomName,
		RoomURL:  req.RoomURL,
		Token:    req.Token,
	}
}

func mobileUpdateFromProto(u proto.MobileUpdate) session.MobileUpdate {
	out := session.MobileUpdate{
		ParticipantIDSet: u.ParticipantID.Set,
		ParticipantID:    u.ParticipantID.Value,
	}
	if u.CameraEnabled.Set {
		enabled := u.CameraEnabled.Value
		out.CameraEnabled = &enabled
	}
	// A null position leaves the current one in place.
	if u.CameraPosition.Set && u.CameraPosition.Value != "" {
		pos := session.CameraPosition(u.CameraPosition.Value)
		out.CameraPosition = &pos
	}
	return out
}

func linkedSessionToProto(s session.LinkedSession) proto.LinkedSession {
	return proto.LinkedSession{
		RoomName: s.RoomName,
		RoomURL:  s.RoomURL,
		Token:    s.Token,
		LinkedAt: s.LinkedAt,
	}
}

func mobileStateToProto(m session.MobileState) proto.MobileParticipant {
	return proto.MobileParticipant{
		ParticipantID:  m.ParticipantID,
		CameraEnabled:  m.CameraEnabled,
		CameraPosition: string(m.CameraPosition),
	}
}

func stateToProto(s core.State) proto.CommunicationState {
	out := proto.CommunicationState{
		Addresses: s.Addresses,
		Port:      s.Port,
		Desktop:   proto.DesktopParticipant{ParticipantID: s.Snapshot.Desktop.ParticipantID},
		Mobile:    mobileStateToProto(s.Snapshot.Mobile),
	}
	if out.Addresses == nil {
		out.Addresses = []string{}
	}
	if s.Snapshot.Session != nil {
		linked := linkedSessionToProto(*s.Snapshot.Session)
		out.Session = &linked
	}
	return out
}
