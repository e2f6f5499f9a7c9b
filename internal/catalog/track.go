package catalog

import (
	"fmt"
	"strconv"
	"time"
)

// Images holds the artwork variants published for a track.
type Images struct {
	Small     string `json:"small"`
	Thumbnail string `json:"thumbnail"`
	Large     string `json:"large"`
	Back      string `json:"back,omitempty"`
}

// AudioQuality describes the best stream the catalog offers for a track.
type AudioQuality struct {
	MaximumBitDepth     int     `json:"maximumBitDepth"`
	MaximumSamplingRate float64 `json:"maximumSamplingRate"`
	IsHiRes             bool    `json:"isHiRes"`
}

// Track is an immutable catalog entry. Two tracks are the same track when
// their IDs match; every other field is passthrough metadata.
type Track struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Artist      string       `json:"artist"`
	ArtistID    int64        `json:"artistId,omitempty"`
	AlbumTitle  string       `json:"albumTitle,omitempty"`
	AlbumCover  string       `json:"albumCover,omitempty"`
	AlbumID     string       `json:"albumId,omitempty"`
	ReleaseDate string       `json:"releaseDate,omitempty"`
	Genre       string       `json:"genre,omitempty"`
	DurationSec int          `json:"duration"`
	Quality     AudioQuality `json:"audioQuality"`
	Images      Images       `json:"images"`

	Version          string `json:"version,omitempty"`
	Label            string `json:"label,omitempty"`
	UPC              string `json:"upc,omitempty"`
	ISRC             string `json:"isrc,omitempty"`
	ParentalWarning  bool   `json:"parental_warning,omitempty"`
	Streamable       bool   `json:"streamable,omitempty"`
	Purchasable      bool   `json:"purchasable,omitempty"`
	Previewable      bool   `json:"previewable,omitempty"`
	MaximumChannels  int    `json:"maximumChannelCount,omitempty"`
	ReleaseForStream string `json:"releaseDateStream,omitempty"`
}

// Duration returns the catalog-reported track length.
func (t Track) Duration() time.Duration {
	return time.Duration(t.DurationSec) * time.Second
}

// Equal reports whether t and other identify the same catalog track.
func (t Track) Equal(other Track) bool {
	return t.ID == other.ID
}

// Key returns the decimal form of the track ID, as used in storage keys.
func (t Track) Key() string {
	return strconv.FormatInt(t.ID, 10)
}

// OptimalImage returns the best available artwork URL.
func (t Track) OptimalImage() string {
	switch {
	case t.Images.Large != "":
		return t.Images.Large
	case t.Images.Small != "":
		return t.Images.Small
	default:
		return t.Images.Thumbnail
	}
}

// IsHighQuality reports whether the track is offered above CD quality.
func (t Track) IsHighQuality() bool {
	return t.Quality.IsHiRes || t.Quality.MaximumBitDepth >= 24
}

// QualityBadge returns a short label for high quality streams, or "".
func (t Track) QualityBadge() string {
	if t.Quality.IsHiRes {
		return "Hi-Res"
	}
	if t.Quality.MaximumBitDepth >= 24 {
		return "HD"
	}
	return ""
}

// FormatDuration renders d as m:ss.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}

// SearchType selects what kind of catalog entity a search targets.
type SearchType string

const (
	SearchTracks  SearchType = "track"
	SearchAlbums  SearchType = "album"
	SearchArtists SearchType = "artist"
)

// Pagination describes where a search page sits in the full result set.
type Pagination struct {
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

// SearchResponse is one page of search results.
type SearchResponse struct {
	Tracks     []Track    `json:"tracks"`
	Pagination Pagination `json:"pagination"`
}
