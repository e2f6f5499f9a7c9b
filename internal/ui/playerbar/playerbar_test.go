package playerbar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/downloads"
	"github.com/llehouerou/openspot/internal/playback"
	"github.com/llehouerou/openspot/internal/playlist"
	"github.com/llehouerou/openspot/internal/ui/testutil"
)

func TestNewState_FromSnapshot(t *testing.T) {
	snap := playback.Snapshot{
		PlaybackState: playback.PlaybackState{Position: 10 * time.Second, Seeking: true, Volume: 0.5},
		State:         playback.StatePlaying,
		Track:         &catalog.Track{ID: 1, Title: "Song", Artist: "Band", AlbumTitle: "LP", DurationSec: 200},
		SeekPreview:   42 * time.Second,
		RepeatMode:    playlist.RepeatOne,
	}

	s := NewState(snap)

	assert.Equal(t, 42*time.Second, s.Position, "seek preview is displayed")
	assert.Equal(t, 200*time.Second, s.Duration, "catalog duration until the backend reports one")
	assert.Equal(t, "Song", s.Title)
	assert.Equal(t, playlist.RepeatOne, s.Repeat)
}

func TestRender_IdleIsEmpty(t *testing.T) {
	assert.Empty(t, New().Render(State{Status: playback.StateIdle}, 80))
}

func TestRender_Playing(t *testing.T) {
	s := State{
		Status:   playback.StatePlaying,
		Title:    "Song",
		Artist:   "Band",
		Album:    "LP",
		Position: 83 * time.Second,
		Duration: 238 * time.Second,
		Volume:   0.8,
		Liked:    true,
		Shuffle:  true,
	}
	out := testutil.Plain(New().Render(s, 80))

	lines := strings.Split(out, "\n")
	require.Len(t, lines, Height)
	assert.Contains(t, lines[1], "▶ Song")
	assert.Contains(t, lines[1], "Band · LP")
	assert.Contains(t, lines[1], "♥")
	assert.Contains(t, lines[1], "⇄")
	assert.Contains(t, lines[2], "1:23 / 3:58")
	assert.Contains(t, lines[2], "vol  80%")
	assert.LessOrEqual(t, testutil.MaxWidth(out), 80)
}

func TestRender_ErrorAndDownload(t *testing.T) {
	s := State{Status: playback.StateError, Title: "Song", Error: "Failed to get stream URL: offline"}
	out := testutil.Plain(New().Render(s, 80))
	assert.Contains(t, out, "✗ Song")
	assert.Contains(t, out, "Failed to get stream URL: offline")

	s = State{
		Status:   playback.StatePaused,
		Title:    "Song",
		Download: downloads.JobState{Status: downloads.StatusDownloading, Progress: 40},
	}
	out = testutil.Plain(New().Render(s, 80))
	assert.Contains(t, out, "⏸ Song")
	assert.Contains(t, out, "↓40%")

	s.Download = downloads.JobState{Status: downloads.StatusSuccess, ShowSuccess: true}
	out = testutil.Plain(New().Render(s, 80))
	assert.Contains(t, out, "Saved for offline playback")
}

func TestRender_NarrowTruncates(t *testing.T) {
	s := State{Status: playback.StatePlaying, Title: strings.Repeat("long title ", 10)}
	out := testutil.Plain(New().Render(s, 30))
	assert.Contains(t, out, "…")
	assert.LessOrEqual(t, testutil.MaxWidth(out), 30)
}

func TestVolume(t *testing.T) {
	assert.Equal(t, "vol 100%", testutil.Plain(Volume(1, false)))
	assert.Equal(t, "mute  35%", testutil.Plain(Volume(0.35, true)))
}
