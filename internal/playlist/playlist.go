package playlist

import (
	"github.com/samber/lo"

	"github.com/llehouerou/openspot/internal/catalog"
)

// Playlist holds an ordered collection of tracks.
type Playlist struct {
	tracks []catalog.Track
}

// NewPlaylist creates a new empty playlist.
func NewPlaylist() *Playlist {
	return &Playlist{
		tracks: make([]catalog.Track, 0),
	}
}

// Add appends tracks to the playlist.
func (p *Playlist) Add(tracks ...catalog.Track) {
	p.tracks = append(p.tracks, tracks...)
}

// Set replaces the contents with a copy of tracks.
func (p *Playlist) Set(tracks []catalog.Track) {
	p.tracks = append(make([]catalog.Track, 0, len(tracks)), tracks...)
}

// Remove removes the track at the given index.
// Returns false if index is out of bounds.
func (p *Playlist) Remove(index int) bool {
	if index < 0 || index >= len(p.tracks) {
		return false
	}
	p.tracks = append(p.tracks[:index], p.tracks[index+1:]...)
	return true
}

// Clear removes all tracks from the playlist.
func (p *Playlist) Clear() {
	p.tracks = p.tracks[:0]
}

// Tracks returns a copy of all tracks.
func (p *Playlist) Tracks() []catalog.Track {
	result := make([]catalog.Track, len(p.tracks))
	copy(result, p.tracks)
	return result
}

// Track returns a copy of the track at the given index, or nil if out of bounds.
func (p *Playlist) Track(index int) *catalog.Track {
	if index < 0 || index >= len(p.tracks) {
		return nil
	}
	t := p.tracks[index]
	return &t
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// IndexOf returns the position of the first track with the given id, or -1.
func (p *Playlist) IndexOf(id int64) int {
	_, idx, ok := lo.FindIndexOf(p.tracks, func(t catalog.Track) bool { return t.ID == id })
	if !ok {
		return -1
	}
	return idx
}

// Move moves the track at fromIndex to toIndex.
// Returns false if either index is out of bounds.
func (p *Playlist) Move(fromIndex, toIndex int) bool {
	if fromIndex < 0 || fromIndex >= len(p.tracks) {
		return false
	}
	if toIndex < 0 || toIndex >= len(p.tracks) {
		return false
	}
	if fromIndex == toIndex {
		return true
	}

	track := p.tracks[fromIndex]
	p.tracks = append(p.tracks[:fromIndex], p.tracks[fromIndex+1:]...)
	p.tracks = append(p.tracks[:toIndex], append([]catalog.Track{track}, p.tracks[toIndex:]...)...)
	return true
}

