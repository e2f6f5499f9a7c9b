// internal/playback/state.go
package playback

// State is the transport state of a Session.
//
//	Idle ──LoadTrack──▶ Loading ──ok──▶ Paused ◀──Pause── Playing
//	                       │               └────Play──────▶ ▲
//	                       └──fail──▶ Error ──Retry──▶ Loading
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePaused
	StatePlaying
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StatePaused:
		return "Paused"
	case StatePlaying:
		return "Playing"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsLoaded returns true if a track is ready in the backend (playing or paused).
func (s State) IsLoaded() bool {
	return s == StatePlaying || s == StatePaused
}
