package mpris

import (
	"context"
	"time"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/playback"
	"github.com/llehouerou/openspot/internal/playlist"
)

// Player is the part of a playback session the adapter drives.
type Player interface {
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Play() error
	Pause() error
	Toggle() error
	CommitSeek(pos time.Duration) error
	SeekBy(delta time.Duration) error
	DisplayPosition() time.Duration
	SetVolume(level float64) error
	SetRepeatMode(mode playlist.RepeatMode)
	SetShuffle(on bool)
	State() playback.State
	Snapshot() playback.Snapshot
}

var _ Player = (*playback.Session)(nil)

// CoverFunc returns a local cover art file for a track, if one exists.
type CoverFunc func(trackID int64) (string, bool)

// Option configures an Adapter.
type Option func(*playerAdapter)

// WithCovers prefers local cover art found by fn over catalog artwork.
func WithCovers(fn CoverFunc) Option {
	return func(p *playerAdapter) { p.covers = fn }
}

// CoverURL returns the art URL announced for track: a file:// URL when
// local finds a saved cover, else the catalog artwork.
func CoverURL(track catalog.Track, local CoverFunc) string {
	if local != nil {
		if path, ok := local(track.ID); ok {
			return "file://" + path
		}
	}
	return track.OptimalImage()
}
