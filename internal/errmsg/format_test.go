//nolint:goconst // test cases intentionally repeat strings for readability
package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpTrackLoad,
			err:      nil,
			expected: "",
		},
		{
			name:     "stream resolution",
			op:       OpStreamResolve,
			err:      errors.New("No stream URL received"),
			expected: "Failed to get stream URL: No stream URL received",
		},
		{
			name:     "download operation",
			op:       OpDownload,
			err:      errors.New("network error"),
			expected: "Failed to download track: network error",
		},
		{
			name:     "playback operation",
			op:       OpPlaybackStart,
			err:      errors.New("no audio device"),
			expected: "Failed to start playback: no audio device",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpPlaylistCreate,
			context:  "Road trip",
			expected: "",
		},
		{
			name:     "includes context",
			op:       OpPlaylistCreate,
			context:  "Road trip",
			err:      errors.New("already exists"),
			expected: "Failed to create playlist 'Road trip': already exists",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpQueueSave,
			err:      errors.New("disk full"),
			expected: "Failed to save queue: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}
