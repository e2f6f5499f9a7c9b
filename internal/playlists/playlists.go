package playlists

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/state"
)

var (
	// ErrPlaylistExists is returned when creating or renaming to a taken name.
	ErrPlaylistExists = errors.New("playlist already exists")
	// ErrPlaylistNotFound is returned for an unknown playlist name.
	ErrPlaylistNotFound = errors.New("playlist not found")
	// ErrEmptyName is returned for a blank playlist name.
	ErrEmptyName = errors.New("playlist name is empty")
)

// Playlist is a named, ordered list of track ids.
type Playlist struct {
	Name     string   `json:"name"`
	Cover    string   `json:"cover"`
	TrackIDs []string `json:"trackIds"`
}

// IDs returns the track ids as integers, skipping malformed entries.
func (p Playlist) IDs() []int64 {
	out := make([]int64, 0, len(p.TrackIDs))
	for _, s := range p.TrackIDs {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// Contains reports whether the playlist holds trackID.
func (p Playlist) Contains(trackID int64) bool {
	return slices.Contains(p.TrackIDs, strconv.FormatInt(trackID, 10))
}

func (p Playlist) clone() Playlist {
	p.TrackIDs = slices.Clone(p.TrackIDs)
	return p
}

// Playlists is the user's playlist collection, persisted on every change.
type Playlists struct {
	mu    sync.RWMutex
	store state.Store
	lists []Playlist
}

// NewPlaylists loads the playlists from store.
func NewPlaylists(store state.Store) (*Playlists, error) {
	lists, _, err := state.GetJSON[[]Playlist](store, state.KeyPlaylists)
	if err != nil {
		return nil, err
	}
	return &Playlists{store: store, lists: lists}, nil
}

// List returns every playlist in creation order.
func (p *Playlists) List() []Playlist {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Playlist, len(p.lists))
	for i, pl := range p.lists {
		out[i] = pl.clone()
	}
	return out
}

// Get returns the playlist called name.
func (p *Playlists) Get(name string) (Playlist, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i := p.indexLocked(name)
	if i < 0 {
		return Playlist{}, ErrPlaylistNotFound
	}
	return p.lists[i].clone(), nil
}

// Create adds an empty playlist. Names are trimmed and must be unique.
func (p *Playlists) Create(name, cover string) (Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Playlist{}, ErrEmptyName
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.indexLocked(name) >= 0 {
		return Playlist{}, ErrPlaylistExists
	}
	pl := Playlist{Name: name, Cover: cover, TrackIDs: []string{}}
	if err := p.saveLocked(append(p.cloneLocked(), pl)); err != nil {
		return Playlist{}, err
	}
	return pl.clone(), nil
}

// Rename changes a playlist's name.
func (p *Playlists) Rename(from, to string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return ErrEmptyName
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.indexLocked(from)
	if i < 0 {
		return ErrPlaylistNotFound
	}
	if j := p.indexLocked(to); j >= 0 && j != i {
		return ErrPlaylistExists
	}
	lists := p.cloneLocked()
	lists[i].Name = to
	return p.saveLocked(lists)
}

// Delete removes a playlist.
func (p *Playlists) Delete(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.indexLocked(name)
	if i < 0 {
		return ErrPlaylistNotFound
	}
	return p.saveLocked(slices.Delete(p.cloneLocked(), i, i+1))
}

// AddTrack appends track to each named playlist that does not already hold
// it. Unknown names are ignored.
func (p *Playlists) AddTrack(track catalog.Track, names ...string) error {
	id := track.Key()
	p.mu.Lock()
	defer p.mu.Unlock()

	lists := p.cloneLocked()
	changed := false
	for i := range lists {
		if !slices.Contains(names, lists[i].Name) || slices.Contains(lists[i].TrackIDs, id) {
			continue
		}
		lists[i].TrackIDs = append(lists[i].TrackIDs, id)
		if lists[i].Cover == "" {
			lists[i].Cover = track.OptimalImage()
		}
		changed = true
	}
	if !changed {
		return nil
	}
	return p.saveLocked(lists)
}

// RemoveTrack removes trackID from the named playlist.
func (p *Playlists) RemoveTrack(trackID int64, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.indexLocked(name)
	if i < 0 {
		return ErrPlaylistNotFound
	}
	id := strconv.FormatInt(trackID, 10)
	if !slices.Contains(p.lists[i].TrackIDs, id) {
		return nil
	}
	lists := p.cloneLocked()
	lists[i].TrackIDs = slices.DeleteFunc(lists[i].TrackIDs, func(s string) bool { return s == id })
	return p.saveLocked(lists)
}

// TrackIDs returns the track ids of the named playlist in order.
func (p *Playlists) TrackIDs(name string) ([]int64, error) {
	pl, err := p.Get(name)
	if err != nil {
		return nil, err
	}
	return pl.IDs(), nil
}

// Containing returns the names of playlists holding trackID.
func (p *Playlists) Containing(trackID int64) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var names []string
	for _, pl := range p.lists {
		if pl.Contains(trackID) {
			names = append(names, pl.Name)
		}
	}
	return names
}

func (p *Playlists) indexLocked(name string) int {
	return slices.IndexFunc(p.lists, func(pl Playlist) bool { return pl.Name == name })
}

func (p *Playlists) cloneLocked() []Playlist {
	out := make([]Playlist, len(p.lists))
	for i, pl := range p.lists {
		out[i] = pl.clone()
	}
	return out
}

func (p *Playlists) saveLocked(lists []Playlist) error {
	if err := state.SetJSON(p.store, state.KeyPlaylists, lists); err != nil {
		return err
	}
	p.lists = lists
	return nil
}
