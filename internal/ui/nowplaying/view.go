package nowplaying

import (
	"fmt"
	"slices"
	"strings"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/downloads"
	"github.com/llehouerou/openspot/internal/icons"
	"github.com/llehouerou/openspot/internal/keymap"
	"github.com/llehouerou/openspot/internal/ui/jobbar"
	"github.com/llehouerou/openspot/internal/ui/playerbar"
	"github.com/llehouerou/openspot/internal/ui/render"
	"github.com/llehouerou/openspot/internal/ui/styles"
)

var helpText = keymap.Footer(keymap.Player)

// View renders the player.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	st := styles.T().S()
	snap := m.sess.Snapshot()

	bar := playerbar.NewState(snap)
	if snap.Track != nil {
		bar.Liked = m.liked(snap.Track.ID)
		bar.Download = m.jobState(snap.Track.ID)
	}
	player := m.bar.Render(bar, m.width)
	jobs := jobbar.Render(m.jobBarState(), m.width)

	footer := st.Subtle.Render(render.Truncate(helpText, m.width))
	if m.notice != "" {
		footer = st.Warning.Render(render.Truncate(m.notice, m.width))
	}

	used := 2 + lineCount(player) + lineCount(jobs)
	queueRows := max(m.height-used, 1)
	q := m.sess.QueueSnapshot()

	parts := []string{
		st.Title.Render(render.Row("openspot", st.Muted.Render(queueSummary(len(q.Tracks), q.CurrentIndex)), m.width)),
		m.renderQueue(q.Tracks, q.CurrentIndex, queueRows),
	}
	if jobs != "" {
		parts = append(parts, jobs)
	}
	if player != "" {
		parts = append(parts, player)
	}
	parts = append(parts, footer)
	return strings.Join(parts, "\n")
}

func (m Model) renderQueue(tracks []catalog.Track, current, rows int) string {
	st := styles.T().S()
	if len(tracks) == 0 {
		return padRows([]string{st.Muted.Render("Queue is empty")}, rows)
	}
	start := max(min(current-rows/2, len(tracks)-rows), 0)
	end := min(start+rows, len(tracks))

	lines := make([]string, 0, rows)
	for i := start; i < end; i++ {
		lines = append(lines, m.queueLine(tracks[i], i == current))
	}
	return padRows(lines, rows)
}

func (m Model) queueLine(t catalog.Track, current bool) string {
	st := styles.T().S()
	ic := icons.Get()
	marker := "  "
	if current {
		marker = st.Playing.Render(render.Fit(ic.Playing, 2))
	}
	flags := ""
	if m.liked(t.ID) {
		flags += st.Liked.Render(ic.Liked)
	}
	if m.jobState(t.ID).Status == downloads.StatusSuccess {
		flags += st.Success.Render(ic.Downloaded)
	}
	right := st.Muted.Render(render.Clock(t.Duration()))
	if flags != "" {
		right = flags + " " + right
	}
	labelWidth := max(m.width-2-cells(right)-1, 1)
	label := render.Truncate(trackLabel(t), labelWidth)
	if current {
		label = st.Playing.Render(label)
	} else {
		label = st.Base.Render(label)
	}
	return render.Clip(render.Row(marker+label, right, m.width), m.width)
}

func (m Model) jobBarState() jobbar.State {
	ids := make([]int64, 0, len(m.jobStates))
	for id := range m.jobStates {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	s := jobbar.State{Jobs: make([]jobbar.Job, 0, len(ids))}
	for _, id := range ids {
		label, ok := m.labels[id]
		if !ok {
			label = fmt.Sprintf("Track %d", id)
		}
		s.Jobs = append(s.Jobs, jobbar.Job{Label: label, State: m.jobStates[id]})
	}
	return s
}

func queueSummary(n, current int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d", current+1, n)
}

func padRows(lines []string, rows int) string {
	for len(lines) < rows {
		lines = append(lines, "")
	}
	return strings.Join(lines[:rows], "\n")
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
