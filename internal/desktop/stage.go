package desktop

// Stage is the desktop room lifecycle.
type Stage string

const (
	StageIdle    Stage = "idle"
	StageReady   Stage = "ready"
	StageJoining Stage = "joining"
	StageJoined  Stage = "joined"
	StageLeaving Stage = "leaving"
	StageError   Stage = "error"
)

// ShareStatus is the screen share sub-state.
type ShareStatus string

const (
	ShareIdle     ShareStatus = "idle"
	ShareStarting ShareStatus = "starting"
	ShareSharing  ShareStatus = "sharing"
	ShareStopping ShareStatus = "stopping"
	ShareError    ShareStatus = "error"
)

// LiveStatus is the livestream sub-state.
type LiveStatus string

const (
	LiveIdle     LiveStatus = "idle"
	LiveStarting LiveStatus = "starting"
	LiveLive     LiveStatus = "live"
	LiveStopping LiveStatus = "stopping"
	LiveError    LiveStatus = "error"
)
