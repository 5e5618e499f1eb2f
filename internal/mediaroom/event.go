package mediaroom

// EventKind enumerates everything a room connection reports.
type EventKind int

const (
	EventJoined EventKind = iota + 1
	EventLeft
	EventParticipantLeft
	EventTrackStarted
	EventTrackStopped
	EventScreenShareStarted
	EventScreenShareStopped
	EventScreenShareCanceled
	EventScreenShareError
	EventLiveStreamStarted
	EventLiveStreamStopped
	EventLiveStreamError
	EventError
	EventNonFatalError
)

func (k EventKind) String() string {
	switch k {
	case EventJoined:
		return "joined-meeting"
	case EventLeft:
		return "left-meeting"
	case EventParticipantLeft:
		return "participant-left"
	case EventTrackStarted:
		return "track-started"
	case EventTrackStopped:
		return "track-stopped"
	case EventScreenShareStarted:
		return "local-screen-share-started"
	case EventScreenShareStopped:
		return "local-screen-share-stopped"
	case EventScreenShareCanceled:
		return "local-screen-share-canceled"
	case EventScreenShareError:
		return "screen-share-error"
	case EventLiveStreamStarted:
		return "live-streaming-started"
	case EventLiveStreamStopped:
		return "live-streaming-stopped"
	case EventLiveStreamError:
		return "live-streaming-error"
	case EventError:
		return "error"
	case EventNonFatalError:
		return "nonfatal-error"
	default:
		return "unknown"
	}
}

// Event is one notification from a room connection.
//
// ParticipantID is the local id for EventJoined and the remote id for
// EventParticipantLeft. Track is set for track events. Err carries the
// reported failure for the error kinds.
type Event struct {
	Kind          EventKind
	ParticipantID string
	Track         Track
	Err           error
}
