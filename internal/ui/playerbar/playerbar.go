// Package playerbar renders the now-playing panel.
package playerbar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/llehouerou/openspot/internal/downloads"
	"github.com/llehouerou/openspot/internal/icons"
	"github.com/llehouerou/openspot/internal/playback"
	"github.com/llehouerou/openspot/internal/playlist"
	"github.com/llehouerou/openspot/internal/ui/render"
	"github.com/llehouerou/openspot/internal/ui/styles"
)

const (
	loadingSymbol = "…"
	errorSymbol   = "✗"

	// Height is the rendered height including borders.
	Height = 5
)

// State holds everything needed to render the player bar.
type State struct {
	Status   playback.State
	Title    string
	Artist   string
	Album    string
	Position time.Duration
	Duration time.Duration
	Seeking  bool
	Volume   float64
	Muted    bool
	Shuffle  bool
	Repeat   playlist.RepeatMode
	Liked    bool
	Download downloads.JobState
	Error    string
}

// NewState builds a State from a session snapshot.
func NewState(snap playback.Snapshot) State {
	s := State{
		Status:   snap.State,
		Position: snap.DisplayPosition(),
		Duration: snap.Duration,
		Seeking:  snap.Seeking,
		Volume:   snap.Volume,
		Muted:    snap.Muted,
		Shuffle:  snap.Shuffled,
		Repeat:   snap.RepeatMode,
		Error:    snap.Error,
	}
	if t := snap.Track; t != nil {
		s.Title, s.Artist, s.Album = t.Title, t.Artist, t.AlbumTitle
		if s.Duration <= 0 {
			s.Duration = t.Duration()
		}
	}
	return s
}

// Model renders player bars with a shared progress bar.
type Model struct {
	bar progress.Model
}

// New creates a player bar renderer.
func New() Model {
	return Model{bar: progress.New(
		progress.WithSolidFill(string(styles.T().Primary)),
		progress.WithoutPercentage(),
		progress.WithFillCharacters('━', '─'),
	)}
}

// Render returns the player bar for the given width, or "" when nothing is
// loaded.
func (m Model) Render(s State, width int) string {
	if s.Status == playback.StateIdle {
		return ""
	}
	inner := max(width-4, 10)
	lines := []string{
		render.Row(titleLine(s, inner-cells(badges(s))-1), badges(s), inner),
		m.progressLine(s, inner),
		statusLine(s, inner),
	}
	return styles.T().S().Panel.Padding(0, 1).Width(width - 2).Render(strings.Join(lines, "\n"))
}

func titleLine(s State, width int) string {
	st := styles.T().S()
	title := s.Title
	if title == "" {
		title = "Unknown Track"
	}
	var info []string
	for _, part := range []string{s.Artist, s.Album} {
		if part != "" {
			info = append(info, part)
		}
	}
	icon := statusSymbol(s.Status)
	text := render.Truncate(title, max(width-2, 1))
	line := st.Playing.Render(icon) + " " + st.Title.Render(text)
	if rest := width - 2 - cells(text) - 3; rest > 3 && len(info) > 0 {
		line += "   " + st.Muted.Render(render.Truncate(strings.Join(info, " · "), rest))
	}
	return line
}

func badges(s State) string {
	st := styles.T().S()
	ic := icons.Get()
	var out []string
	if s.Liked {
		out = append(out, st.Liked.Render(ic.Liked))
	}
	switch s.Download.Status {
	case downloads.StatusDownloading:
		out = append(out, st.Warning.Render(fmt.Sprintf("%s%d%%", ic.Downloaded, s.Download.Progress)))
	case downloads.StatusSuccess:
		out = append(out, st.Success.Render(ic.Downloaded))
	case downloads.StatusError:
		out = append(out, st.Error.Render(ic.Downloaded + "!"))
	case downloads.StatusIdle:
	}
	if s.Shuffle {
		out = append(out, st.Muted.Render(ic.Shuffle))
	}
	switch s.Repeat {
	case playlist.RepeatAll:
		out = append(out, st.Muted.Render(ic.RepeatAll))
	case playlist.RepeatOne:
		out = append(out, st.Muted.Render(ic.RepeatOne))
	case playlist.RepeatOff:
	}
	return strings.Join(out, " ")
}

func (m Model) progressLine(s State, width int) string {
	st := styles.T().S()
	times := render.Clock(s.Position) + " / " + render.Clock(s.Duration)
	vol := Volume(s.Volume, s.Muted)
	barWidth := width - cells(times) - cells(vol) - 4
	if barWidth < 5 {
		return render.Row(st.Muted.Render(times), vol, width)
	}
	var ratio float64
	if s.Duration > 0 {
		ratio = min(float64(s.Position)/float64(s.Duration), 1)
	}
	bar := m.bar
	bar.Width = barWidth
	timeStyle := st.Muted
	if s.Seeking {
		timeStyle = st.Warning
	}
	return bar.ViewAs(ratio) + "  " + timeStyle.Render(times) + "  " + vol
}

func statusLine(s State, width int) string {
	st := styles.T().S()
	switch s.Status {
	case playback.StateError:
		return st.Error.Render(render.Truncate(s.Error, width))
	case playback.StateLoading:
		return st.Subtle.Render("Loading…")
	case playback.StateIdle, playback.StatePaused, playback.StatePlaying:
	}
	if s.Download.ShowSuccess {
		return st.Success.Render("Saved for offline playback")
	}
	if s.Download.Status == downloads.StatusError {
		return st.Error.Render(render.Truncate(s.Download.Err, width))
	}
	return ""
}

func statusSymbol(s playback.State) string {
	switch s {
	case playback.StatePlaying:
		return icons.Get().Playing
	case playback.StateLoading:
		return loadingSymbol
	case playback.StateError:
		return errorSymbol
	case playback.StateIdle, playback.StatePaused:
	}
	return icons.Get().Paused
}
