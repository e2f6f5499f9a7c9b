package player

// State is the Beep backend's transport state.
//
//	┌──────────┐      load       ┌──────────┐
//	│ Unloaded │ ───────────────▶│  Paused  │
//	└──────────┘                 └──────────┘
//	     ▲                          │    ▲
//	     │ close / failed load  play│    │pause
//	     │                          ▼    │
//	     │                       ┌──────────┐
//	     └───────────────────────│ Playing  │
//	                             └──────────┘
//
// A finished track stays loaded in Paused at its end position so the caller
// can seek back and play again. Load from any state replaces the track.
type State int

const (
	Unloaded State = iota
	Paused
	Playing
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Unloaded:
		return "Unloaded"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsLoaded returns true if a track is loaded (Playing or Paused).
func (s State) IsLoaded() bool {
	return s == Playing || s == Paused
}
