package playlists

import (
	"slices"
	"sync"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/state"
)

// MaxRecentlyPlayed caps the recently played history.
const MaxRecentlyPlayed = 50

// RecentlyPlayed is the play history, newest first, with each track at most
// once.
type RecentlyPlayed struct {
	mu     sync.RWMutex
	store  state.Store
	tracks []catalog.Track
}

// NewRecentlyPlayed loads the play history from store.
func NewRecentlyPlayed(store state.Store) (*RecentlyPlayed, error) {
	tracks, _, err := state.GetJSON[[]catalog.Track](store, state.KeyRecentlyPlayed)
	if err != nil {
		return nil, err
	}
	if len(tracks) > MaxRecentlyPlayed {
		tracks = tracks[:MaxRecentlyPlayed]
	}
	return &RecentlyPlayed{store: store, tracks: tracks}, nil
}

// Add moves track to the front of the history, dropping the oldest entry
// beyond MaxRecentlyPlayed.
func (r *RecentlyPlayed) Add(track catalog.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.tracks) > 0 && r.tracks[0].ID == track.ID {
		return nil
	}
	next := make([]catalog.Track, 0, min(len(r.tracks)+1, MaxRecentlyPlayed))
	next = append(next, track)
	for _, t := range r.tracks {
		if len(next) == MaxRecentlyPlayed {
			break
		}
		if t.ID != track.ID {
			next = append(next, t)
		}
	}
	return r.saveLocked(next)
}

// List returns up to n tracks, newest first. n <= 0 returns all of them.
func (r *RecentlyPlayed) List(n int) []catalog.Track {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n <= 0 || n > len(r.tracks) {
		n = len(r.tracks)
	}
	return slices.Clone(r.tracks[:n])
}

// Count returns the number of tracks in the history.
func (r *RecentlyPlayed) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tracks)
}

// Clear empties the history.
func (r *RecentlyPlayed) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked([]catalog.Track{})
}

func (r *RecentlyPlayed) saveLocked(tracks []catalog.Track) error {
	if err := state.SetJSON(r.store, state.KeyRecentlyPlayed, tracks); err != nil {
		return err
	}
	r.tracks = tracks
	return nil
}
