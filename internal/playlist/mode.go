package playlist

import "fmt"

// RepeatMode defines what happens when a track or the queue ends.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "Off"
	case RepeatAll:
		return "All"
	case RepeatOne:
		return "One"
	default:
		return "Unknown"
	}
}

// Next returns the following mode in the fixed cycle Off → All → One → Off.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// MarshalText encodes the mode as "off", "all" or "one".
func (m RepeatMode) MarshalText() ([]byte, error) {
	switch m {
	case RepeatOff:
		return []byte("off"), nil
	case RepeatAll:
		return []byte("all"), nil
	case RepeatOne:
		return []byte("one"), nil
	default:
		return nil, fmt.Errorf("invalid repeat mode %d", int(m))
	}
}

// UnmarshalText decodes "off", "all" or "one".
func (m *RepeatMode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "off", "":
		*m = RepeatOff
	case "all":
		*m = RepeatAll
	case "one":
		*m = RepeatOne
	default:
		return fmt.Errorf("invalid repeat mode %q", string(b))
	}
	return nil
}

// Outcome tells the caller what a navigation call did. Boundaries are part of
// the state machine, so they are reported here rather than as errors.
type Outcome int

const (
	// Empty means the queue has no tracks; nothing changed.
	Empty Outcome = iota
	// Advanced means the index moved forward by one.
	Advanced
	// Moved means the index moved backward or jumped.
	Moved
	// Wrapped means repeat-all carried the index around the queue boundary.
	Wrapped
	// Repeated means repeat-one kept the current track; the caller restarts it.
	Repeated
	// Restarted means previous() hit the start and stayed on the first track.
	Restarted
	// EndOfQueue means next() ran past the last track with repeat off.
	EndOfQueue
	// Invalid means the requested index was out of range; nothing changed.
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Empty:
		return "Empty"
	case Advanced:
		return "Advanced"
	case Moved:
		return "Moved"
	case Wrapped:
		return "Wrapped"
	case Repeated:
		return "Repeated"
	case Restarted:
		return "Restarted"
	case EndOfQueue:
		return "EndOfQueue"
	case Invalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// HasTrack reports whether the outcome carries a track to play.
func (o Outcome) HasTrack() bool {
	switch o {
	case Advanced, Moved, Wrapped, Repeated, Restarted:
		return true
	default:
		return false
	}
}
