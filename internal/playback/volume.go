package playback

import (
	"errors"
	"fmt"
	"math"

	"github.com/llehouerou/openspot/internal/errmsg"
	"github.com/llehouerou/openspot/internal/player"
)

func clampVolume(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return min(max(v, 0), 1)
}

// SetVolume sets the volume level, clamped to [0,1]. While muted the level
// is stored and applied on unmute.
func (s *Session) SetVolume(level float64) error {
	s.mu.Lock()
	s.pb.Volume = clampVolume(level)
	ev := VolumeChange{Volume: s.pb.Volume, Muted: s.pb.Muted}
	s.mu.Unlock()

	err := s.applyVolume()
	s.emit(ev)
	return err
}

// AdjustVolume changes the volume by delta.
func (s *Session) AdjustVolume(delta float64) error {
	s.mu.Lock()
	v := s.pb.Volume + delta
	s.mu.Unlock()
	return s.SetVolume(v)
}

// SetMuted mutes or unmutes the backend. Unmuting restores the saved level.
func (s *Session) SetMuted(muted bool) error {
	s.mu.Lock()
	if s.pb.Muted == muted {
		s.mu.Unlock()
		return nil
	}
	s.pb.Muted = muted
	ev := VolumeChange{Volume: s.pb.Volume, Muted: muted}
	s.mu.Unlock()

	err := s.applyVolume()
	s.emit(ev)
	return err
}

// ToggleMute flips the mute flag and returns the new value.
func (s *Session) ToggleMute() (bool, error) {
	s.mu.Lock()
	muted := !s.pb.Muted
	s.mu.Unlock()
	return muted, s.SetMuted(muted)
}

// applyVolume sends the effective level to the backend. Nothing loaded is
// not an error; the level is applied again after the next load.
func (s *Session) applyVolume() error {
	s.mu.Lock()
	level := s.pb.Volume
	if s.pb.Muted {
		level = 0
	}
	s.mu.Unlock()

	if err := s.backend.SetVolume(level); err != nil && !errors.Is(err, player.ErrNotLoaded) {
		s.log.Warn("set volume", "level", level, "err", err)
		return fmt.Errorf("%s: %w", errmsg.OpVolume, err)
	}
	return nil
}
