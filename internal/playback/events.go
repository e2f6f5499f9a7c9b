package playback

import (
	"time"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/playlist"
)

// StateChange is emitted when the transport state changes.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted when a different track starts loading.
//
// Emitted by LoadTrack and everything built on it (Next, Previous, JumpTo,
// PlayQueue and automatic advance at the end of a track). It is not emitted
// when a repeat restarts the same track from zero.
type TrackChange struct {
	Previous *catalog.Track
	Current  *catalog.Track
	Index    int
}

// QueueChange is emitted when the queue contents or order change.
type QueueChange struct {
	Tracks []catalog.Track
	Index  int
}

// ModeChange is emitted when repeat or shuffle mode changes.
type ModeChange struct {
	RepeatMode playlist.RepeatMode
	Shuffle    bool
}

// PositionChange is emitted for accepted position reports and committed seeks.
type PositionChange struct {
	Position time.Duration
	Duration time.Duration
}

// VolumeChange is emitted when the volume level or mute flag changes.
type VolumeChange struct {
	Volume float64
	Muted  bool
}

// ErrorEvent is emitted when an operation fails.
type ErrorEvent struct {
	Operation string
	TrackID   int64
	Message   string
	Err       error
}
