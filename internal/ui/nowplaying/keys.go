package nowplaying

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/openspot/internal/errmsg"
	"github.com/llehouerou/openspot/internal/keymap"
)

var keys = keymap.NewResolver(keymap.Player)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keys.Resolve(msg.String()) {
	case keymap.ActionQuit:
		m.quitting = true
		return m, tea.Quit
	case keymap.ActionPlayPause:
		return m, run("play/pause", func(context.Context) error { return m.sess.Toggle() })
	case keymap.ActionNext:
		return m, run("next", m.sess.Next)
	case keymap.ActionPrevious:
		return m, run("previous", m.sess.Previous)
	case keymap.ActionSeekForward:
		return m.beginSeek(seekStep)
	case keymap.ActionSeekBack:
		return m.beginSeek(-seekStep)
	case keymap.ActionSeekCancel:
		m.sess.CancelSeek()
		m.seekVersion++
		return m, nil
	case keymap.ActionSeekCommit:
		m.seekVersion++
		return m, m.commitSeek()
	case keymap.ActionVolumeUp:
		return m, run("volume", func(context.Context) error { return m.sess.AdjustVolume(volumeStep) })
	case keymap.ActionVolumeDown:
		return m, run("volume", func(context.Context) error { return m.sess.AdjustVolume(-volumeStep) })
	case keymap.ActionMute:
		return m, run("mute", func(context.Context) error {
			_, err := m.sess.ToggleMute()
			return err
		})
	case keymap.ActionShuffle:
		m.sess.ToggleShuffle()
		return m, nil
	case keymap.ActionRepeat:
		m.sess.CycleRepeatMode()
		return m, nil
	case keymap.ActionRetry:
		return m, run("retry", m.sess.Retry)
	case keymap.ActionUndo:
		m.sess.Undo()
		return m, nil
	case keymap.ActionRedo:
		m.sess.Redo()
		return m, nil
	case keymap.ActionLike:
		return m.toggleLike()
	case keymap.ActionDownload:
		return m.download()
	}
	return m, nil
}

func (m Model) toggleLike() (tea.Model, tea.Cmd) {
	t := m.sess.Track()
	if m.likes == nil || t == nil {
		return m, nil
	}
	liked, err := m.likes.Toggle(*t)
	if err != nil {
		return m.setNotice(errmsg.Format(errmsg.OpLikeToggle, err))
	}
	if liked {
		return m.setNotice("Added to liked songs")
	}
	return m.setNotice("Removed from liked songs")
}

func (m Model) download() (tea.Model, tea.Cmd) {
	t := m.sess.Track()
	if m.downloads == nil || t == nil {
		return m, nil
	}
	m.labels[t.ID] = trackLabel(*t)
	m.jobStates[t.ID] = m.downloads.RequestDownload(context.Background(), *t).Snapshot()
	return m, nil
}
