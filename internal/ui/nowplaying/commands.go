package nowplaying

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/llehouerou/openspot/internal/downloads"
	"github.com/llehouerou/openspot/internal/playback"
)

// actionTimeout bounds catalog and backend work started from a key press.
const actionTimeout = 30 * time.Second

type (
	sessionEventMsg  struct{ event any }
	sessionClosedMsg struct{}
	jobMsg           downloads.JobState
	jobsClosedMsg    struct{}
	seekSettledMsg   struct{ version int }
	noticeExpiredMsg int
	actionResultMsg  struct {
		action string
		err    error
	}
)

// watchSession waits for the next session event.
func watchSession(sub *playback.Subscription) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case e := <-sub.StateChanged:
			return sessionEventMsg{e}
		case e := <-sub.TrackChanged:
			return sessionEventMsg{e}
		case e := <-sub.PositionChanged:
			return sessionEventMsg{e}
		case e := <-sub.QueueChanged:
			return sessionEventMsg{e}
		case e := <-sub.ModeChanged:
			return sessionEventMsg{e}
		case e := <-sub.VolumeChanged:
			return sessionEventMsg{e}
		case e := <-sub.Error:
			return sessionEventMsg{e}
		case <-sub.Done:
			return sessionClosedMsg{}
		}
	}
}

// watchJobs waits for the next download update.
func watchJobs(ch <-chan downloads.JobState) tea.Cmd {
	return waitForChannel(ch, func(st downloads.JobState, ok bool) tea.Msg {
		if !ok {
			return jobsClosedMsg{}
		}
		return jobMsg(st)
	})
}

// waitForChannel creates a command that waits for a value from a channel and converts it to a message.
func waitForChannel[T any](ch <-chan T, onResult func(T, bool) tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		result, ok := <-ch
		return onResult(result, ok)
	}
}

// run performs a session call off the update loop.
func run(action string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return actionResultMsg{action: action, err: fn(ctx)}
	}
}

func seekSettled(version int) tea.Cmd {
	return tea.Tick(seekSettle, func(time.Time) tea.Msg {
		return seekSettledMsg{version: version}
	})
}

func noticeExpiry(id int) tea.Cmd {
	return tea.Tick(noticeAfter, func(time.Time) tea.Msg {
		return noticeExpiredMsg(id)
	})
}

func cells(s string) int {
	return ansi.StringWidth(s)
}
