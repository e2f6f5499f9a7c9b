// internal/player/interface.go
package player

import (
	"context"
	"errors"
	"time"
)

// ErrNotLoaded is returned by transport calls made before a successful Load.
var ErrNotLoaded = errors.New("no track loaded")

// Status is the periodic report a backend emits while a track is loaded.
// Duration is zero until the backend knows it.
type Status struct {
	Position time.Duration
	Duration time.Duration
}

// Backend is the audio output the playback session drives.
//
// Load leaves the track paused at position 0. Callbacks registered with
// OnStatus and OnFinished may be invoked from any goroutine and must not
// block.
type Backend interface {
	Load(ctx context.Context, url string) error
	Play() error
	Pause() error
	Seek(pos time.Duration) error
	SetVolume(level float64) error
	OnStatus(fn func(Status))
	OnFinished(fn func())
	Close() error
}

// Verify implementations satisfy Backend at compile time.
var (
	_ Backend = (*Beep)(nil)
	_ Backend = (*Mock)(nil)
)
