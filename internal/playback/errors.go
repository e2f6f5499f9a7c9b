package playback

import "errors"

var (
	// ErrEmptyQueue is returned by navigation on an empty queue.
	ErrEmptyQueue = errors.New("queue is empty")
	// ErrEndOfQueue is returned by Next at the last track with repeat off.
	ErrEndOfQueue = errors.New("end of queue")
	// ErrInvalidIndex is returned by JumpTo for an out-of-range index.
	ErrInvalidIndex = errors.New("queue index out of range")
	// ErrSuperseded is returned by a load that a newer load replaced before
	// it completed. The newer load owns the session state.
	ErrSuperseded = errors.New("load superseded by a newer track")
	// ErrNoTrack is returned by transport controls when nothing is loaded.
	ErrNoTrack = errors.New("no track loaded")
	// ErrNotReady is returned by transport controls while loading or after
	// a failure.
	ErrNotReady = errors.New("track not ready")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session closed")
)
