package mobile

// Stage is the mobile pairing state machine value.
type Stage string

const (
	StageIdle              Stage = "idle"
	StageCreatingRoom      Stage = "creating-room"
	StageRoomReady         Stage = "room-ready"
	StageConnectingDesktop Stage = "connecting-desktop"
	StageJoiningCall       Stage = "joining-call"
	StageConnected         Stage = "connected"
	StagePreviewReady      Stage = "preview-ready"
	StageError             Stage = "error"
)

// Linked reports whether the coordinator channel is up.
func (s Stage) Linked() bool {
	return s == StageConnected || s == StagePreviewReady
}

// Busy reports whether an action is in flight.
func (s Stage) Busy() bool {
	switch s {
	case StageCreatingRoom, StageConnectingDesktop, StageJoiningCall:
		return true
	default:
		return false
	}
}
