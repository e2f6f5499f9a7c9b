// internal/state/interface.go
package state

import (
	"github.com/llehouerou/openspot/internal/playlist"
)

// Storage keys.
const (
	KeyQueue          = "openspot_music_queue"
	KeyLikedSongs     = "openspot_liked_songs"
	KeyPlaylists      = "user_playlists"
	KeyRecentlyPlayed = "recentlyPlayed"
	KeyVolume         = "openspot_volume"
	OfflinePrefix     = "offline_"
)

// Store is an opaque key/value store of JSON blobs.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	SetMany(values map[string][]byte) error
	Delete(key string) error
	Keys(prefix string) ([]string, error)
}

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	Store
	SaveQueue(s playlist.Snapshot)
	GetQueue() (*playlist.Snapshot, error)
	SaveVolume(volume float64, muted bool) error
	GetVolume() (*VolumeState, error)
	Flush() error
	Close() error
}

// Verify implementations satisfy Interface at compile time.
var (
	_ Interface = (*Manager)(nil)
	_ Interface = (*Mock)(nil)
)
