// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Catalog operations
	OpSearch        Op = "search"
	OpLoadMore      Op = "load more results"
	OpStreamResolve Op = "get stream URL"

	// Playback operations
	OpTrackLoad     Op = "load track"
	OpPlaybackStart Op = "start playback"
	OpPlaybackPause Op = "pause playback"
	OpPlaybackSeek  Op = "seek"
	OpVolume        Op = "set volume"

	// Queue operations
	OpQueueLoad Op = "load queue"
	OpQueueSave Op = "save queue"

	// Download operations
	OpDownload       Op = "download track"
	OpDownloadDelete Op = "delete download"
	OpThumbnail      Op = "save artwork"
	OpNotify         Op = "show notification"

	// Library operations
	OpLikeToggle       Op = "update liked songs"
	OpPlaylistCreate   Op = "create playlist"
	OpPlaylistDelete   Op = "delete playlist"
	OpPlaylistAddTrack Op = "add track to playlist"
	OpPlaylistRemove   Op = "remove track from playlist"
	OpRecentSave       Op = "update recently played"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
