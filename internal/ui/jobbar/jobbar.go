// Package jobbar displays download progress at the bottom of the screen.
package jobbar

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/llehouerou/openspot/internal/downloads"
	"github.com/llehouerou/openspot/internal/ui/render"
	"github.com/llehouerou/openspot/internal/ui/styles"
)

// BorderHeight is the height of borders around the job bar.
const BorderHeight = 2

// Job is one download line.
type Job struct {
	Label string
	State downloads.JobState
}

// Visible reports whether the job belongs on the bar: running, failed, or
// showing its success banner.
func (j Job) Visible() bool {
	switch j.State.Status {
	case downloads.StatusDownloading, downloads.StatusError:
		return true
	case downloads.StatusSuccess:
		return j.State.ShowSuccess
	case downloads.StatusIdle:
	}
	return false
}

// State holds the jobs to display.
type State struct {
	Jobs []Job
}

// Visible returns the jobs that render, in input order.
func (s State) Visible() []Job {
	return slices.DeleteFunc(slices.Clone(s.Jobs), func(j Job) bool { return !j.Visible() })
}

// Height returns the rendered height of s.
func (s State) Height() int {
	n := len(s.Visible())
	if n == 0 {
		return 0
	}
	return n + BorderHeight
}

// Render renders the job bar with the given width.
// Returns empty string if no job is visible.
func Render(s State, width int) string {
	jobs := s.Visible()
	if len(jobs) == 0 {
		return ""
	}
	inner := width - 2
	lines := make([]string, len(jobs))
	for i, j := range jobs {
		lines[i] = renderLine(j, inner)
	}
	return styles.T().S().Panel.Width(inner).Render(strings.Join(lines, "\n"))
}

// renderLine renders: "↓ Label  [━━━━────]  42%  1.2 MiB / 3.0 MiB"
func renderLine(j Job, width int) string {
	st := styles.T().S()
	switch j.State.Status {
	case downloads.StatusSuccess:
		return labelled(st.Success.Render("✓"), j.Label, st.Success.Render("Downloaded"), width)
	case downloads.StatusError:
		return labelled(st.Error.Render("✗"), j.Label, st.Error.Render(j.State.Err), width)
	case downloads.StatusDownloading, downloads.StatusIdle:
	}

	right := fmt.Sprintf("%3d%%", j.State.Progress)
	if size := sizeText(j.State); size != "" {
		right += "  " + size
	}
	right = st.Muted.Render(right)

	const fixed = 2 + 2 + 2 + 2 // icon, gaps, brackets
	labelWidth := max((width-fixed-lipgloss.Width(right))/2, 10)
	barWidth := max(width-fixed-labelWidth-lipgloss.Width(right), 5)
	filled := min(barWidth*j.State.Progress/100, barWidth)
	bar := st.Playing.Render(strings.Repeat("━", filled)) + st.Subtle.Render(strings.Repeat("─", barWidth-filled))

	return render.Clip(st.Playing.Render("↓")+" "+st.Title.Render(render.Fit(j.Label, labelWidth))+"  ["+bar+"]  "+right, width)
}

func labelled(icon, label, right string, width int) string {
	labelWidth := max(width-2-lipgloss.Width(right)-2, 10)
	return render.Clip(icon+" "+styles.T().S().Title.Render(render.Fit(label, labelWidth))+"  "+right, width)
}

func sizeText(s downloads.JobState) string {
	if s.BytesWritten <= 0 {
		return ""
	}
	if s.BytesExpected <= 0 {
		return humanize.IBytes(uint64(s.BytesWritten))
	}
	return humanize.IBytes(uint64(s.BytesWritten)) + " / " + humanize.IBytes(uint64(s.BytesExpected))
}
