package playlist

// QueueHistory maintains a history of queue snapshots for undo/redo.
type QueueHistory struct {
	states  []Snapshot
	current int // index of current state (-1 = before any state)
	maxSize int
}

// NewQueueHistory creates a new history with the given maximum size.
func NewQueueHistory(maxSize int) *QueueHistory {
	return &QueueHistory{
		states:  make([]Snapshot, 0, maxSize),
		current: -1,
		maxSize: maxSize,
	}
}

// Push saves a snapshot of the queue.
// Clears any redo states and trims if over limit.
func (h *QueueHistory) Push(s Snapshot) {
	snapshot := s.clone()

	if h.current < len(h.states)-1 {
		h.states = h.states[:h.current+1]
	}

	h.states = append(h.states, snapshot)
	h.current = len(h.states) - 1

	if len(h.states) > h.maxSize {
		excess := len(h.states) - h.maxSize
		h.states = h.states[excess:]
		h.current -= excess
	}
}

// Undo returns the previous queue state.
// Returns false if nothing to undo.
func (h *QueueHistory) Undo() (Snapshot, bool) {
	if !h.CanUndo() {
		return Snapshot{}, false
	}
	h.current--
	return h.states[h.current].clone(), true
}

// Redo returns the next queue state.
// Returns false if nothing to redo.
func (h *QueueHistory) Redo() (Snapshot, bool) {
	if !h.CanRedo() {
		return Snapshot{}, false
	}
	h.current++
	return h.states[h.current].clone(), true
}

// CanUndo returns true if there is a previous state to undo to.
func (h *QueueHistory) CanUndo() bool {
	return h.current > 0
}

// CanRedo returns true if there is a next state to redo to.
func (h *QueueHistory) CanRedo() bool {
	return h.current < len(h.states)-1
}
