package playback

// State is the session state as the UI sees it.
type State int

const (
	StateIdle State = iota
	StatePreparing
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePreparing:
		return "Preparing"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a track is loaded and ready (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}
