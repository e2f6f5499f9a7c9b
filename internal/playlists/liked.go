// Package playlists stores the user's liked songs and named playlists.
package playlists

import (
	"slices"
	"sync"
	"time"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/state"
)

// DefaultRecentCount is how many songs Recent returns for n <= 0.
const DefaultRecentCount = 10

// LikedSong is the stored form of a liked track.
type LikedSong struct {
	ID         int64          `json:"id"`
	Title      string         `json:"title"`
	Artist     string         `json:"artist"`
	AlbumTitle string         `json:"albumTitle,omitempty"`
	Duration   int            `json:"duration,omitempty"`
	Images     catalog.Images `json:"images"`
	LikedAt    time.Time      `json:"likedAt"`
}

// Track converts the liked song back to a catalog track.
func (s LikedSong) Track() catalog.Track {
	return catalog.Track{
		ID:          s.ID,
		Title:       s.Title,
		Artist:      s.Artist,
		AlbumTitle:  s.AlbumTitle,
		AlbumCover:  s.Images.Large,
		DurationSec: s.Duration,
		Images:      s.Images,
	}
}

// LikedSongs is the liked songs list, newest first, persisted on every
// change.
type LikedSongs struct {
	mu    sync.RWMutex
	store state.Store
	songs []LikedSong
	now   func() time.Time
}

// NewLikedSongs loads the liked songs from store.
func NewLikedSongs(store state.Store) (*LikedSongs, error) {
	songs, _, err := state.GetJSON[[]LikedSong](store, state.KeyLikedSongs)
	if err != nil {
		return nil, err
	}
	return &LikedSongs{store: store, songs: songs, now: time.Now}, nil
}

// IsLiked reports whether trackID is liked.
func (l *LikedSongs) IsLiked(trackID int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.indexLocked(trackID) >= 0
}

// Like adds track at the front of the list. Liking a liked track does
// nothing.
func (l *LikedSongs) Like(track catalog.Track) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.indexLocked(track.ID) >= 0 {
		return nil
	}
	song := LikedSong{
		ID:         track.ID,
		Title:      track.Title,
		Artist:     track.Artist,
		AlbumTitle: track.AlbumTitle,
		Duration:   track.DurationSec,
		Images:     track.Images,
		LikedAt:    l.now().UTC(),
	}
	return l.saveLocked(slices.Insert(slices.Clone(l.songs), 0, song))
}

// Unlike removes trackID. Unliking a song that is not liked does nothing.
func (l *LikedSongs) Unlike(trackID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(trackID)
	if i < 0 {
		return nil
	}
	return l.saveLocked(slices.Delete(slices.Clone(l.songs), i, i+1))
}

// Toggle likes or unlikes track and returns whether it is now liked.
func (l *LikedSongs) Toggle(track catalog.Track) (bool, error) {
	if l.IsLiked(track.ID) {
		return false, l.Unlike(track.ID)
	}
	return true, l.Like(track)
}

// List returns all liked songs, newest first.
func (l *LikedSongs) List() []LikedSong {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.songs)
}

// Recent returns the n most recently liked songs.
func (l *LikedSongs) Recent(n int) []LikedSong {
	if n <= 0 {
		n = DefaultRecentCount
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.songs[:min(n, len(l.songs))])
}

// Count returns the number of liked songs.
func (l *LikedSongs) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.songs)
}

// Clear unlikes everything.
func (l *LikedSongs) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveLocked([]LikedSong{})
}

// Tracks returns the liked songs as catalog tracks, newest first.
func (l *LikedSongs) Tracks() []catalog.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]catalog.Track, len(l.songs))
	for i, s := range l.songs {
		out[i] = s.Track()
	}
	return out
}

func (l *LikedSongs) indexLocked(trackID int64) int {
	return slices.IndexFunc(l.songs, func(s LikedSong) bool { return s.ID == trackID })
}

// saveLocked persists songs and replaces the in-memory list only when the
// write succeeded.
func (l *LikedSongs) saveLocked(songs []LikedSong) error {
	if err := state.SetJSON(l.store, state.KeyLikedSongs, songs); err != nil {
		return err
	}
	l.songs = songs
	return nil
}
