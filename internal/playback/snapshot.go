package playback

import (
	"time"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/playlist"
)

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	PlaybackState

	State       State
	Track       *catalog.Track
	Index       int
	SeekPreview time.Duration
	Error       string
	Shuffled    bool
	RepeatMode  playlist.RepeatMode
	HasNext     bool
	HasPrevious bool
	QueueLen    int
}

// DisplayPosition returns the seek preview during a seek, else the position.
func (s Snapshot) DisplayPosition() time.Duration {
	if s.Seeking {
		return s.SeekPreview
	}
	return s.Position
}

// Progress returns the display position as a fraction of the duration.
func (s Snapshot) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return min(max(float64(s.DisplayPosition())/float64(s.Duration), 0), 1)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		PlaybackState: s.pb,
		State:         s.state,
		SeekPreview:   s.preview,
		Error:         s.errMsg,
	}
	if s.track != nil {
		t := *s.track
		snap.Track = &t
	}
	s.mu.Unlock()

	snap.Index = s.queue.CurrentIndex()
	snap.Shuffled = s.queue.Shuffled()
	snap.RepeatMode = s.queue.RepeatMode()
	snap.HasNext = s.queue.HasNext()
	snap.HasPrevious = s.queue.HasPrevious()
	snap.QueueLen = s.queue.Len()
	return snap
}

// State returns the transport state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Track returns a copy of the loaded or loading track, or nil.
func (s *Session) Track() *catalog.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track == nil {
		return nil
	}
	t := *s.track
	return &t
}
