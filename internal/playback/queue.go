package playback

import (
	"context"
	"errors"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/player"
	"github.com/llehouerou/openspot/internal/playlist"
)

// Next plays the next track. With repeat one the current track restarts.
func (s *Session) Next(ctx context.Context) error {
	t, out := s.queue.Next()
	return s.navigate(ctx, t, out)
}

// Previous plays the previous track. At the start of the queue the first
// track restarts unless repeat all wraps to the last track.
func (s *Session) Previous(ctx context.Context) error {
	t, out := s.queue.Previous()
	return s.navigate(ctx, t, out)
}

// JumpTo plays the track at index. An out-of-range index changes nothing.
func (s *Session) JumpTo(ctx context.Context, index int) error {
	t, out := s.queue.JumpTo(index)
	return s.navigate(ctx, t, out)
}

func (s *Session) navigate(ctx context.Context, t *catalog.Track, out playlist.Outcome) error {
	switch {
	case out == playlist.Empty:
		return ErrEmptyQueue
	case out == playlist.EndOfQueue:
		return ErrEndOfQueue
	case out == playlist.Invalid:
		return ErrInvalidIndex
	case !out.HasTrack() || t == nil:
		return ErrEmptyQueue
	}
	return s.playTrack(ctx, t)
}

// PlayQueue replaces the queue with tracks and plays the one at start.
func (s *Session) PlayQueue(ctx context.Context, tracks []catalog.Track, start int) error {
	t := s.queue.SetTracks(tracks, start)
	s.emitQueue()
	s.emitMode()
	if t == nil {
		s.resetIdle()
		return ErrEmptyQueue
	}
	return s.playTrack(ctx, t)
}

// Enqueue appends tracks to the queue.
func (s *Session) Enqueue(tracks ...catalog.Track) {
	if len(tracks) == 0 {
		return
	}
	s.queue.Add(tracks...)
	s.emitQueue()
}

// RemoveFromQueue removes the track at index. The loaded track keeps
// playing even if it was the one removed.
func (s *Session) RemoveFromQueue(index int) bool {
	if !s.queue.RemoveAt(index) {
		return false
	}
	s.emitQueue()
	return true
}

// ClearQueue empties the queue and unloads the session.
func (s *Session) ClearQueue() {
	s.queue.Clear()
	s.emitQueue()
	s.resetIdle()
}

// RestoreQueue replaces the queue with a saved snapshot without loading.
func (s *Session) RestoreQueue(snap playlist.Snapshot) {
	s.queue.Restore(snap)
	s.emitQueue()
	s.emitMode()
}

// QueueSnapshot returns the current queue state.
func (s *Session) QueueSnapshot() playlist.Snapshot { return s.queue.Snapshot() }

// Undo reverts the last queue change.
func (s *Session) Undo() bool {
	if !s.queue.Undo() {
		return false
	}
	s.emitQueue()
	s.emitMode()
	return true
}

// Redo reapplies an undone queue change.
func (s *Session) Redo() bool {
	if !s.queue.Redo() {
		return false
	}
	s.emitQueue()
	s.emitMode()
	return true
}

// ToggleShuffle flips shuffle and returns the new value. The current track
// is kept.
func (s *Session) ToggleShuffle() bool {
	on := s.queue.ToggleShuffle()
	s.emitMode()
	s.emitQueue()
	return on
}

// SetShuffle turns shuffle on or off.
func (s *Session) SetShuffle(on bool) {
	if s.queue.Shuffled() == on {
		return
	}
	s.queue.SetShuffle(on)
	s.emitMode()
	s.emitQueue()
}

// CycleRepeatMode advances the repeat mode and returns the new mode.
func (s *Session) CycleRepeatMode() playlist.RepeatMode {
	mode := s.queue.CycleRepeatMode()
	s.emitMode()
	return mode
}

// SetRepeatMode sets the repeat mode.
func (s *Session) SetRepeatMode(mode playlist.RepeatMode) {
	if s.queue.RepeatMode() == mode {
		return
	}
	s.queue.SetRepeatMode(mode)
	s.emitMode()
}

// resetIdle drops the loaded track and pauses the backend.
func (s *Session) resetIdle() {
	s.mu.Lock()
	s.gen++
	if s.cancelLoad != nil {
		s.cancelLoad()
		s.cancelLoad = nil
	}
	prev := s.track
	s.track = nil
	s.pb.Position, s.pb.Duration = 0, 0
	s.pb.Playing, s.pb.Seeking = false, false
	s.errMsg = ""
	evs := s.setStateLocked(StateIdle, nil)
	if prev != nil {
		evs = append(evs, TrackChange{Previous: prev, Index: -1})
	}
	s.mu.Unlock()
	s.emit(evs...)

	if err := s.backend.Pause(); err != nil && !errors.Is(err, player.ErrNotLoaded) {
		s.log.Warn("pause on clear", "err", err)
	}
}

func (s *Session) emitQueue() {
	s.emit(QueueChange{Tracks: s.queue.Tracks(), Index: s.queue.CurrentIndex()})
}

func (s *Session) emitMode() {
	s.emit(ModeChange{RepeatMode: s.queue.RepeatMode(), Shuffle: s.queue.Shuffled()})
}
