package playback

import (
	"time"

	"github.com/llehouerou/openspot/internal/errmsg"
	"github.com/llehouerou/openspot/internal/player"
)

func (s *Session) handleStatus(st player.Status) {
	s.mu.Lock()
	loaded := s.state.IsLoaded()
	s.mu.Unlock()
	if !loaded {
		s.dropped.Add(1)
		return
	}
	s.OnBackendDurationReport(st.Duration)
	s.OnBackendPositionTick(st.Position)
}

// OnBackendPositionTick applies a periodic position report from the backend.
// Reports are dropped while the user is seeking, within the debounce window
// after a committed seek, and while no track is loaded. It returns whether
// the report was applied.
func (s *Session) OnBackendPositionTick(pos time.Duration) bool {
	s.mu.Lock()
	if !s.state.IsLoaded() || s.pb.Seeking || s.now().Sub(s.pb.LastSeek) < s.debounce {
		s.mu.Unlock()
		s.dropped.Add(1)
		return false
	}
	pos = s.clampLocked(pos)
	s.pb.Position = pos
	ev := PositionChange{Position: pos, Duration: s.pb.Duration}
	s.mu.Unlock()
	s.emit(ev)
	return true
}

// OnBackendDurationReport records the duration the backend measured. Reports
// arriving while no track is loaded belong to the previous track and are
// ignored.
func (s *Session) OnBackendDurationReport(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	if !s.state.IsLoaded() {
		s.mu.Unlock()
		return
	}
	s.pb.Duration = d
	s.mu.Unlock()
}

// BeginSeek starts a user seek. Position reports are ignored until the seek
// is committed or cancelled.
func (s *Session) BeginSeek() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.IsLoaded() {
		return
	}
	s.pb.Seeking = true
	s.preview = s.pb.Position
}

// UpdateSeekPreview moves the displayed position during a seek without
// touching the backend.
func (s *Session) UpdateSeekPreview(pos time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pb.Seeking {
		return
	}
	s.preview = s.clampLocked(pos)
}

// CancelSeek abandons a seek started with BeginSeek.
func (s *Session) CancelSeek() {
	s.mu.Lock()
	s.pb.Seeking = false
	s.mu.Unlock()
}

// CommitSeek moves playback to pos. The position is set before the backend
// is asked to seek, and reports sampled before the seek took effect are
// dropped for the debounce window.
func (s *Session) CommitSeek(pos time.Duration) error {
	s.mu.Lock()
	if !s.state.IsLoaded() {
		s.pb.Seeking = false
		s.mu.Unlock()
		return ErrNotReady
	}
	pos = s.clampLocked(pos)
	s.pb.Position = pos
	s.pb.LastSeek = s.now()
	s.pb.Seeking = false
	s.preview = pos
	gen, dur := s.gen, s.pb.Duration
	s.mu.Unlock()

	if err := s.backend.Seek(pos); err != nil {
		return s.fail(gen, errmsg.OpPlaybackSeek, err)
	}
	s.emit(PositionChange{Position: pos, Duration: dur})
	return nil
}

// SeekBy seeks relative to the displayed position.
func (s *Session) SeekBy(delta time.Duration) error {
	return s.CommitSeek(s.DisplayPosition() + delta)
}

// DisplayPosition returns the seek preview during a seek, else the position.
func (s *Session) DisplayPosition() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pb.Seeking {
		return s.preview
	}
	return s.pb.Position
}

func (s *Session) clampLocked(pos time.Duration) time.Duration {
	pos = max(pos, 0)
	if s.pb.Duration > 0 {
		pos = min(pos, s.pb.Duration)
	}
	return pos
}
