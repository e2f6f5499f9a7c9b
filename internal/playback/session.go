// Package playback drives an audio backend from a play queue.
//
// A Session owns the transport state (loading, playing, paused, error), the
// playback position and the volume. It asks the queue which track comes
// next and the catalog where to stream it from, and it guards every
// asynchronous result with a load generation so that a slow response for a
// track the user already skipped can never overwrite the newer state.
//
// The session lock is never held across a backend or network call.
package playback

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/errmsg"
	"github.com/llehouerou/openspot/internal/logging"
	"github.com/llehouerou/openspot/internal/player"
	"github.com/llehouerou/openspot/internal/playlist"
)

// StreamResolver resolves a playable URL for a track.
type StreamResolver interface {
	StreamURL(ctx context.Context, trackID int64) (string, error)
}

// Verify the catalog clients satisfy StreamResolver at compile time.
var (
	_ StreamResolver = (*catalog.Deduplicated)(nil)
	_ StreamResolver = (*catalog.Mock)(nil)
)

// PlaybackState is the position and volume part of the session state.
type PlaybackState struct {
	Position time.Duration
	Duration time.Duration
	Playing  bool
	Volume   float64
	Muted    bool
	Seeking  bool
	LastSeek time.Time
}

// Session is the playback engine. Create one with New.
type Session struct {
	backend  player.Backend
	queue    playlist.Interface
	streams  StreamResolver
	log      *log.Logger
	now      func() time.Time
	debounce time.Duration

	mu         sync.Mutex
	state      State
	track      *catalog.Track
	pb         PlaybackState
	preview    time.Duration
	errMsg     string
	gen        uint64
	cancelLoad context.CancelFunc

	// loadMu serializes backend loads so the newest generation always
	// reaches the backend last.
	loadMu sync.Mutex

	dropped atomic.Int64

	subsMu sync.Mutex
	subs   []*Subscription
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a session over backend and queue, registering itself for the
// backend's status and finished callbacks.
func New(backend player.Backend, queue playlist.Interface, streams StreamResolver, opts ...Option) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		backend:  backend,
		queue:    queue,
		streams:  streams,
		log:      logging.Component(logging.OrDiscard(o.logger), "playback"),
		now:      o.now,
		debounce: max(o.seekDebounce, o.tickInterval),
		pb: PlaybackState{
			Volume: clampVolume(o.volume),
			Muted:  o.muted,
		},
		ctx:    ctx,
		cancel: cancel,
	}

	backend.OnStatus(s.handleStatus)
	backend.OnFinished(func() {
		if err := s.OnBackendFinished(s.ctx); err != nil {
			s.log.Debug("advance after finish", "err", err)
		}
	})
	return s
}

// SeekDebounce returns the effective post-seek window.
func (s *Session) SeekDebounce() time.Duration { return s.debounce }

// LoadTrack resolves a stream for track and loads it into the backend,
// leaving the session paused at position zero. Loading the track that is
// already loading or loaded is a no-op.
//
// A load replaced by a newer LoadTrack before it completes returns
// ErrSuperseded and changes nothing. Other failures put the session in
// StateError with a message suitable for display.
func (s *Session) LoadTrack(ctx context.Context, track catalog.Track) error {
	if s.ctx.Err() != nil {
		return ErrClosed
	}

	s.mu.Lock()
	if s.track != nil && s.track.ID == track.ID && (s.state == StateLoading || s.state.IsLoaded()) {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	gen := s.gen
	if s.cancelLoad != nil {
		s.cancelLoad()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	s.cancelLoad = cancel

	prev := s.track
	t := track
	s.track = &t
	s.pb.Position = 0
	s.pb.Duration = track.Duration()
	s.pb.Playing = false
	s.pb.Seeking = false
	s.preview = 0
	s.errMsg = ""
	evs := s.setStateLocked(StateLoading, nil)
	cur := t
	evs = append(evs, TrackChange{Previous: prev, Current: &cur, Index: s.queue.CurrentIndex()})
	s.mu.Unlock()
	s.emit(evs...)
	defer cancel()

	s.log.Debug("loading track", "id", track.ID, "title", track.Title)

	url, err := s.streams.StreamURL(loadCtx, track.ID)
	if !s.isCurrent(gen) {
		return ErrSuperseded
	}
	if err != nil {
		return s.fail(gen, errmsg.OpStreamResolve, err)
	}

	s.loadMu.Lock()
	if !s.isCurrent(gen) {
		s.loadMu.Unlock()
		return ErrSuperseded
	}
	err = s.backend.Load(loadCtx, url)
	s.loadMu.Unlock()
	if !s.isCurrent(gen) {
		return ErrSuperseded
	}
	if err != nil {
		return s.fail(gen, errmsg.OpTrackLoad, err)
	}

	if err := s.applyVolume(); err != nil {
		s.log.Warn("apply volume", "err", err)
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return ErrSuperseded
	}
	evs = s.setStateLocked(StatePaused, nil)
	s.mu.Unlock()
	s.emit(evs...)
	return nil
}

// LoadCurrent loads the queue's current track without starting playback.
func (s *Session) LoadCurrent(ctx context.Context) error {
	t := s.queue.Current()
	if t == nil {
		return ErrEmptyQueue
	}
	return s.LoadTrack(ctx, *t)
}

// Retry reloads and plays the current track after a failure. It does nothing
// unless the session is in StateError.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateError || s.track == nil {
		s.mu.Unlock()
		return nil
	}
	t := *s.track
	s.mu.Unlock()

	if err := s.LoadTrack(ctx, t); err != nil {
		return err
	}
	return s.Play()
}

// Play starts playback of the loaded track. The session reports playing only
// once the backend has accepted the command.
func (s *Session) Play() error {
	s.mu.Lock()
	st, gen := s.state, s.gen
	s.mu.Unlock()

	switch st {
	case StatePlaying:
		return nil
	case StatePaused:
	case StateIdle:
		return ErrNoTrack
	default:
		return ErrNotReady
	}

	if err := s.backend.Play(); err != nil {
		return s.fail(gen, errmsg.OpPlaybackStart, err)
	}

	s.mu.Lock()
	if gen != s.gen || s.state != StatePaused {
		s.mu.Unlock()
		return nil
	}
	s.pb.Playing = true
	evs := s.setStateLocked(StatePlaying, nil)
	s.mu.Unlock()
	s.emit(evs...)
	return nil
}

// Pause pauses playback. A rejected pause leaves the session playing.
func (s *Session) Pause() error {
	s.mu.Lock()
	st, gen := s.state, s.gen
	var trackID int64
	if s.track != nil {
		trackID = s.track.ID
	}
	s.mu.Unlock()

	if st != StatePlaying {
		return nil
	}

	if err := s.backend.Pause(); err != nil {
		msg := errmsg.Format(errmsg.OpPlaybackPause, err)
		s.log.Warn("pause rejected", "err", err)
		s.emit(ErrorEvent{Operation: string(errmsg.OpPlaybackPause), TrackID: trackID, Message: msg, Err: err})
		return fmt.Errorf("%s: %w", errmsg.OpPlaybackPause, err)
	}

	s.mu.Lock()
	if gen != s.gen || s.state != StatePlaying {
		s.mu.Unlock()
		return nil
	}
	s.pb.Playing = false
	evs := s.setStateLocked(StatePaused, nil)
	s.mu.Unlock()
	s.emit(evs...)
	return nil
}

// Toggle switches between playing and paused.
func (s *Session) Toggle() error {
	s.mu.Lock()
	playing := s.state == StatePlaying
	s.mu.Unlock()
	if playing {
		return s.Pause()
	}
	return s.Play()
}

// OnBackendFinished handles the end of the loaded track. With repeat one it
// restarts the track; otherwise it advances the queue, and at the end of the
// queue it stops with the last track loaded at its end position.
func (s *Session) OnBackendFinished(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StatePlaying {
		s.mu.Unlock()
		return nil
	}
	gen := s.gen
	s.mu.Unlock()

	if s.queue.RepeatMode() == playlist.RepeatOne {
		return s.restart()
	}

	t, out := s.queue.Next()
	if out.HasTrack() {
		return s.playTrack(ctx, t)
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return nil
	}
	s.pb.Playing = false
	s.pb.Position = s.pb.Duration
	evs := s.setStateLocked(StatePaused, nil)
	evs = append(evs, PositionChange{Position: s.pb.Position, Duration: s.pb.Duration})
	s.mu.Unlock()
	s.emit(evs...)
	s.log.Debug("end of queue")
	return nil
}

// Close stops any pending load and closes all subscriptions. The backend is
// not closed. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.cancelLoad != nil {
		s.cancelLoad()
	}
	s.mu.Unlock()
	s.cancel()

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	return nil
}

// Subscribe returns a new event subscription. After Close the returned
// subscription is already done.
func (s *Session) Subscribe() *Subscription {
	sub := newSubscription()
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.closed {
		sub.close()
		return sub
	}
	s.subs = append(s.subs, sub)
	return sub
}

// DroppedTicks returns how many position reports were discarded.
func (s *Session) DroppedTicks() int64 { return s.dropped.Load() }

// playTrack plays t, restarting it when it is already loaded. A track that
// is still loading is left to the caller that started the load.
func (s *Session) playTrack(ctx context.Context, t *catalog.Track) error {
	s.mu.Lock()
	same := s.track != nil && s.track.ID == t.ID && s.state.IsLoaded()
	s.mu.Unlock()
	if same {
		return s.restart()
	}
	if err := s.LoadTrack(ctx, *t); err != nil {
		return err
	}
	s.mu.Lock()
	pending := s.state == StateLoading && s.track != nil && s.track.ID == t.ID
	s.mu.Unlock()
	if pending {
		// Another caller is loading this track and will start it.
		return nil
	}
	return s.Play()
}

// restart seeks the loaded track to zero and plays it.
func (s *Session) restart() error {
	s.mu.Lock()
	if !s.state.IsLoaded() {
		s.mu.Unlock()
		return ErrNotReady
	}
	gen := s.gen
	s.pb.Position = 0
	s.pb.LastSeek = s.now()
	s.pb.Seeking = false
	dur := s.pb.Duration
	s.mu.Unlock()

	if err := s.backend.Seek(0); err != nil {
		return s.fail(gen, errmsg.OpPlaybackSeek, err)
	}
	s.emit(PositionChange{Position: 0, Duration: dur})

	s.mu.Lock()
	playing := gen == s.gen && s.state == StatePlaying
	s.mu.Unlock()
	if !playing {
		return s.Play()
	}
	// The backend stops at the end of a track; resume it without a state change.
	if err := s.backend.Play(); err != nil {
		return s.fail(gen, errmsg.OpPlaybackStart, err)
	}
	return nil
}

func (s *Session) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.gen
}

// fail records err for the load generation gen and enters StateError.
func (s *Session) fail(gen uint64, op errmsg.Op, err error) error {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return ErrSuperseded
	}
	var trackID int64
	title := ""
	if s.track != nil {
		trackID = s.track.ID
		title = s.track.Title
	}
	msg := errmsg.Format(op, err)
	s.errMsg = msg
	s.pb.Playing = false
	evs := s.setStateLocked(StateError, nil)
	evs = append(evs, ErrorEvent{Operation: string(op), TrackID: trackID, Message: msg, Err: err})
	s.mu.Unlock()
	s.emit(evs...)

	s.log.Error("playback failed", "op", op, "id", trackID, "title", title, "err", err)
	return fmt.Errorf("%s: %w", op, err)
}

// setStateLocked moves to next and appends the change event to evs.
func (s *Session) setStateLocked(next State, evs []any) []any {
	if s.state == next {
		return evs
	}
	prev := s.state
	s.state = next
	return append(evs, StateChange{Previous: prev, Current: next})
}

func (s *Session) emit(evs ...any) {
	if len(evs) == 0 {
		return
	}
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, sub := range s.subs {
		for _, e := range evs {
			sub.send(e)
		}
	}
}
