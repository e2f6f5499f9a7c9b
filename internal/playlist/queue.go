package playlist

import (
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/llehouerou/openspot/internal/catalog"
)

const defaultHistorySize = 50

// Interface is the queue contract the playback session drives.
type Interface interface {
	SetTracks(tracks []catalog.Track, startIndex int) *catalog.Track
	Add(tracks ...catalog.Track)
	RemoveAt(index int) bool
	Clear()

	Next() (*catalog.Track, Outcome)
	Previous() (*catalog.Track, Outcome)
	JumpTo(index int) (*catalog.Track, Outcome)
	HasNext() bool
	HasPrevious() bool

	ToggleShuffle() bool
	SetShuffle(on bool)
	Reshuffle()
	Shuffled() bool
	CycleRepeatMode() RepeatMode
	SetRepeatMode(mode RepeatMode)
	RepeatMode() RepeatMode

	Current() *catalog.Track
	CurrentIndex() int
	Tracks() []catalog.Track
	OriginalTracks() []catalog.Track
	Len() int
	IsEmpty() bool

	Snapshot() Snapshot
	Restore(s Snapshot)
	Undo() bool
	Redo() bool
	CanUndo() bool
	CanRedo() bool
}

// Snapshot is the persisted form of a queue.
type Snapshot struct {
	Tracks        []catalog.Track `json:"tracks"`
	OriginalOrder []catalog.Track `json:"originalTracks"`
	CurrentIndex  int             `json:"currentIndex"`
	Shuffled      bool            `json:"isShuffled"`
	RepeatMode    RepeatMode      `json:"repeatMode"`
}

func (s Snapshot) clone() Snapshot {
	s.Tracks = slices.Clone(s.Tracks)
	s.OriginalOrder = slices.Clone(s.OriginalOrder)
	return s
}

// Option configures a Queue.
type Option func(*Queue)

// WithRand sets the random source used for shuffling.
func WithRand(r *rand.Rand) Option {
	return func(q *Queue) { q.rng = r }
}

// WithHistorySize sets how many undo states are kept.
func WithHistorySize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.history = NewQueueHistory(n)
		}
	}
}

// Queue is the ordered play list with a current position, shuffle and
// repeat. It is safe for concurrent use.
//
// When shuffled, tracks holds the play order and original the order the
// tracks were given in; order[i] is the position in original of tracks[i].
// When not shuffled, tracks and original hold the same sequence and order
// is nil.
type Queue struct {
	mu sync.RWMutex

	tracks       *Playlist
	original     *Playlist
	order        []int
	currentIndex int // -1 iff empty
	shuffled     bool
	repeat       RepeatMode

	rng     *rand.Rand
	history *QueueHistory
}

var _ Interface = (*Queue)(nil)

// NewQueue creates an empty queue.
func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		tracks:       NewPlaylist(),
		original:     NewPlaylist(),
		currentIndex: -1,
		history:      NewQueueHistory(defaultHistorySize),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.rng == nil {
		q.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // shuffle order is not security sensitive
	}
	q.history.Push(q.snapshotLocked())
	return q
}

// SetTracks replaces the queue contents and positions it at startIndex.
// An out-of-range start index falls back to 0. Shuffle is turned off.
// Returns the new current track, or nil for an empty list.
func (q *Queue) SetTracks(tracks []catalog.Track, startIndex int) *catalog.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.tracks.Set(tracks)
	q.original.Set(tracks)
	q.order = nil
	q.shuffled = false
	switch {
	case len(tracks) == 0:
		q.currentIndex = -1
	case startIndex < 0 || startIndex >= len(tracks):
		q.currentIndex = 0
	default:
		q.currentIndex = startIndex
	}
	q.history.Push(q.snapshotLocked())
	return q.tracks.Track(q.currentIndex)
}

// Add appends tracks to the end of both orders without changing the
// current track. Adding to an empty queue makes the first added track
// current.
func (q *Queue) Add(tracks ...catalog.Track) {
	if len(tracks) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, t := range tracks {
		q.tracks.Add(t)
		q.original.Add(t)
		if q.shuffled {
			q.order = append(q.order, q.original.Len()-1)
		}
	}
	if q.currentIndex < 0 {
		q.currentIndex = 0
	}
	q.history.Push(q.snapshotLocked())
}

// RemoveAt removes the track at the given play-order index from both orders.
// Removing the current track keeps the index, which then points at the
// following track, clamped to the new end.
func (q *Queue) RemoveAt(index int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= q.tracks.Len() {
		return false
	}
	origIdx := index
	if q.shuffled {
		origIdx = q.order[index]
		q.order = append(q.order[:index], q.order[index+1:]...)
		for i, o := range q.order {
			if o > origIdx {
				q.order[i] = o - 1
			}
		}
	}
	q.tracks.Remove(index)
	q.original.Remove(origIdx)

	switch {
	case q.tracks.Len() == 0:
		q.currentIndex = -1
	case q.currentIndex > index:
		q.currentIndex--
	case q.currentIndex >= q.tracks.Len():
		q.currentIndex = q.tracks.Len() - 1
	}
	q.history.Push(q.snapshotLocked())
	return true
}

// Clear removes all tracks. Shuffle and repeat settings are kept.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.tracks.Clear()
	q.original.Clear()
	if q.shuffled {
		q.order = q.order[:0]
	}
	q.currentIndex = -1
	q.history.Push(q.snapshotLocked())
}

// Next advances the position.
//
// Repeat one keeps the current track. Past the last track, repeat all wraps
// to the first track and repeat off reports EndOfQueue with the position
// unchanged.
func (q *Queue) Next() (*catalog.Track, Outcome) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.tracks.Len()
	if n == 0 {
		return nil, Empty
	}
	if q.repeat == RepeatOne {
		return q.tracks.Track(q.currentIndex), Repeated
	}
	if q.currentIndex+1 >= n {
		if q.repeat == RepeatAll {
			q.currentIndex = 0
			return q.tracks.Track(0), Wrapped
		}
		return nil, EndOfQueue
	}
	q.currentIndex++
	return q.tracks.Track(q.currentIndex), Advanced
}

// Previous moves the position back by one, regardless of repeat one.
// At the first track, repeat all wraps to the last track; otherwise the
// first track is returned again.
func (q *Queue) Previous() (*catalog.Track, Outcome) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.tracks.Len()
	if n == 0 {
		return nil, Empty
	}
	if q.currentIndex-1 < 0 {
		if q.repeat == RepeatAll {
			q.currentIndex = n - 1
			return q.tracks.Track(q.currentIndex), Wrapped
		}
		q.currentIndex = 0
		return q.tracks.Track(0), Restarted
	}
	q.currentIndex--
	return q.tracks.Track(q.currentIndex), Moved
}

// JumpTo sets the position to index in play order.
func (q *Queue) JumpTo(index int) (*catalog.Track, Outcome) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.tracks.Len() == 0 {
		return nil, Empty
	}
	if index < 0 || index >= q.tracks.Len() {
		return nil, Invalid
	}
	q.currentIndex = index
	return q.tracks.Track(index), Moved
}

// HasNext reports whether Next would yield a track.
func (q *Queue) HasNext() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.tracks.Len() == 0 {
		return false
	}
	if q.repeat != RepeatOff {
		return true
	}
	return q.currentIndex < q.tracks.Len()-1
}

// HasPrevious reports whether Previous would move to a different track.
func (q *Queue) HasPrevious() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.tracks.Len() == 0 {
		return false
	}
	if q.repeat == RepeatAll {
		return true
	}
	return q.currentIndex > 0
}

// ToggleShuffle flips shuffle and returns the new state. The current track
// stays current in both directions. An empty queue is left untouched.
func (q *Queue) ToggleShuffle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.tracks.Len() == 0 {
		return q.shuffled
	}
	if q.shuffled {
		q.unshuffleLocked()
	} else {
		q.shuffleLocked()
	}
	q.history.Push(q.snapshotLocked())
	return q.shuffled
}

// SetShuffle turns shuffle on or off. It is a no-op if already in that state.
func (q *Queue) SetShuffle(on bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if on == q.shuffled || q.tracks.Len() == 0 {
		return
	}
	if on {
		q.shuffleLocked()
	} else {
		q.unshuffleLocked()
	}
	q.history.Push(q.snapshotLocked())
}

// Reshuffle draws a fresh permutation of the original order while shuffled.
func (q *Queue) Reshuffle() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.shuffled || q.tracks.Len() == 0 {
		return
	}
	q.unshuffleLocked()
	q.shuffleLocked()
	q.history.Push(q.snapshotLocked())
}

// shuffleLocked permutes the original order with Fisher-Yates and places
// the current track wherever it lands.
func (q *Queue) shuffleLocked() {
	orig := q.original.Tracks()
	perm := make([]int, len(orig))
	for i := range perm {
		perm[i] = i
	}
	q.rng.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })

	cur := q.currentIndex
	shuffled := make([]catalog.Track, len(orig))
	for i, p := range perm {
		shuffled[i] = orig[p]
		if p == cur {
			q.currentIndex = i
		}
	}
	q.tracks.Set(shuffled)
	q.order = perm
	q.shuffled = true
}

// unshuffleLocked restores the original order, keeping the current track.
func (q *Queue) unshuffleLocked() {
	if q.currentIndex >= 0 && q.currentIndex < len(q.order) {
		q.currentIndex = q.order[q.currentIndex]
	}
	q.tracks.Set(q.original.Tracks())
	q.order = nil
	q.shuffled = false
}

// Shuffled reports whether the queue is in shuffled order.
func (q *Queue) Shuffled() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.shuffled
}

// CycleRepeatMode steps the repeat mode Off → All → One → Off.
func (q *Queue) CycleRepeatMode() RepeatMode {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.repeat = q.repeat.Next()
	return q.repeat
}

// SetRepeatMode sets the repeat mode.
func (q *Queue) SetRepeatMode(mode RepeatMode) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.repeat = mode
}

// RepeatMode returns the current repeat mode.
func (q *Queue) RepeatMode() RepeatMode {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.repeat
}

// Current returns a copy of the current track, or nil if the queue is empty.
func (q *Queue) Current() *catalog.Track {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.tracks.Track(q.currentIndex)
}

// CurrentIndex returns the current play-order index (-1 when empty).
func (q *Queue) CurrentIndex() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.currentIndex
}

// Tracks returns the tracks in play order.
func (q *Queue) Tracks() []catalog.Track {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.tracks.Tracks()
}

// OriginalTracks returns the tracks in the order they were given.
func (q *Queue) OriginalTracks() []catalog.Track {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.original.Tracks()
}

// Len returns the number of tracks in the queue.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.tracks.Len()
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Snapshot returns the queue state for persistence.
func (q *Queue) Snapshot() Snapshot {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.snapshotLocked()
}

func (q *Queue) snapshotLocked() Snapshot {
	return Snapshot{
		Tracks:        q.tracks.Tracks(),
		OriginalOrder: q.original.Tracks(),
		CurrentIndex:  q.currentIndex,
		Shuffled:      q.shuffled,
		RepeatMode:    q.repeat,
	}
}

// Restore replaces the queue with a persisted snapshot. Inconsistent
// snapshots are repaired: a mismatched original order is replaced by the
// play order, and an out-of-range index falls back to 0. History restarts
// from the restored state.
func (q *Queue) Restore(s Snapshot) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.applyLocked(s)
	q.repeat = s.RepeatMode
	q.history = NewQueueHistory(q.history.maxSize)
	q.history.Push(q.snapshotLocked())
}

func (q *Queue) applyLocked(s Snapshot) {
	q.tracks.Set(s.Tracks)
	order, ok := matchOrder(s.Tracks, s.OriginalOrder)
	if !ok || !s.Shuffled {
		q.original.Set(s.Tracks)
		q.order = nil
		q.shuffled = false
	} else {
		q.original.Set(s.OriginalOrder)
		q.order = order
		q.shuffled = true
	}

	switch n := len(s.Tracks); {
	case n == 0:
		q.currentIndex = -1
	case s.CurrentIndex < 0 || s.CurrentIndex >= n:
		q.currentIndex = 0
	default:
		q.currentIndex = s.CurrentIndex
	}
}

// matchOrder maps each track in play to a distinct position in original
// with the same id. It fails when the two are not the same multiset.
func matchOrder(play, original []catalog.Track) ([]int, bool) {
	if len(play) != len(original) {
		return nil, false
	}
	used := make([]bool, len(original))
	order := make([]int, len(play))
	for i, t := range play {
		found := false
		for j, o := range original {
			if !used[j] && o.ID == t.ID {
				used[j] = true
				order[i] = j
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return order, true
}

// Undo reverts the last content or order change. The current track stays
// current if it is still in the restored queue.
func (q *Queue) Undo() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	s, ok := q.history.Undo()
	if !ok {
		return false
	}
	q.applyHistoryLocked(s)
	return true
}

// Redo reapplies the last undone change.
func (q *Queue) Redo() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	s, ok := q.history.Redo()
	if !ok {
		return false
	}
	q.applyHistoryLocked(s)
	return true
}

func (q *Queue) applyHistoryLocked(s Snapshot) {
	cur := q.tracks.Track(q.currentIndex)
	q.applyLocked(s)
	if cur == nil {
		return
	}
	if idx := q.tracks.IndexOf(cur.ID); idx >= 0 {
		q.currentIndex = idx
	}
}

// CanUndo reports whether there is a change to undo.
func (q *Queue) CanUndo() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.history.CanUndo()
}

// CanRedo reports whether there is an undone change to reapply.
func (q *Queue) CanRedo() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.history.CanRedo()
}
