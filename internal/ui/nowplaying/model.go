// Package nowplaying is the terminal player: queue, player bar, download
// progress and key handling on top of a playback session.
package nowplaying

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/downloads"
	"github.com/llehouerou/openspot/internal/logging"
	"github.com/llehouerou/openspot/internal/playback"
	"github.com/llehouerou/openspot/internal/playlists"
	"github.com/llehouerou/openspot/internal/ui/playerbar"
)

const (
	seekStep    = 5 * time.Second
	volumeStep  = 0.05
	seekSettle  = 400 * time.Millisecond
	noticeAfter = 4 * time.Second
)

// Downloader is the download manager surface the view uses.
type Downloader interface {
	RequestDownload(ctx context.Context, track catalog.Track) *downloads.Job
	Job(trackID int64) *downloads.Job
	Subscribe() <-chan downloads.JobState
}

// Likes is the liked songs surface the view uses.
type Likes interface {
	IsLiked(trackID int64) bool
	Toggle(track catalog.Track) (bool, error)
}

var (
	_ Downloader = (*downloads.Manager)(nil)
	_ Likes      = (*playlists.LikedSongs)(nil)
)

// Option configures a Model.
type Option func(*Model)

// WithDownloads enables the download key and progress bar.
func WithDownloads(d Downloader) Option {
	return func(m *Model) { m.downloads = d }
}

// WithLikes enables the like key and markers.
func WithLikes(l Likes) Option {
	return func(m *Model) { m.likes = l }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Model) { m.log = l }
}

// Model is the bubbletea model of the player.
type Model struct {
	sess      *playback.Session
	sub       *playback.Subscription
	downloads Downloader
	jobs      <-chan downloads.JobState
	likes     Likes
	log       *log.Logger

	bar           playerbar.Model
	width, height int

	jobStates map[int64]downloads.JobState
	labels    map[int64]string

	seekVersion int
	notice      string
	noticeID    int
	quitting    bool
}

// New creates the player view for sess.
func New(sess *playback.Session, opts ...Option) Model {
	m := Model{
		sess:      sess,
		bar:       playerbar.New(),
		width:     80,
		height:    24,
		jobStates: make(map[int64]downloads.JobState),
		labels:    make(map[int64]string),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.log = logging.Component(logging.OrDiscard(m.log), "ui")
	m.sub = sess.Subscribe()
	if m.downloads != nil {
		m.jobs = m.downloads.Subscribe()
	}
	return m
}

// Init starts listening for session and download events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(watchSession(m.sub), watchJobs(m.jobs))
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case sessionEventMsg:
		return m.handleSessionEvent(msg)
	case sessionClosedMsg:
		m.quitting = true
		return m, tea.Quit
	case jobMsg:
		m.jobStates[msg.TrackID] = downloads.JobState(msg)
		return m, watchJobs(m.jobs)
	case jobsClosedMsg:
		m.jobs = nil
		return m, nil
	case seekSettledMsg:
		if msg.version != m.seekVersion {
			return m, nil
		}
		return m, m.commitSeek()
	case actionResultMsg:
		if msg.err != nil {
			m.log.Warn("action failed", "action", msg.action, "err", msg.err)
			return m.setNotice(fmt.Sprintf("%s: %v", msg.action, msg.err))
		}
		return m, nil
	case noticeExpiredMsg:
		if int(msg) == m.noticeID {
			m.notice = ""
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleSessionEvent(msg sessionEventMsg) (tea.Model, tea.Cmd) {
	switch ev := msg.event.(type) {
	case playback.QueueChange:
		for _, t := range ev.Tracks {
			m.labels[t.ID] = trackLabel(t)
		}
	case playback.TrackChange:
		if ev.Current != nil {
			m.labels[ev.Current.ID] = trackLabel(*ev.Current)
		}
	case playback.ErrorEvent:
		next, cmd := m.setNotice(ev.Message)
		return next, tea.Batch(cmd, watchSession(m.sub))
	}
	return m, watchSession(m.sub)
}

func (m Model) setNotice(text string) (Model, tea.Cmd) {
	m.noticeID++
	m.notice = text
	return m, noticeExpiry(m.noticeID)
}

// beginSeek moves the seek preview by delta and schedules the commit once
// the key stops repeating.
func (m Model) beginSeek(delta time.Duration) (tea.Model, tea.Cmd) {
	snap := m.sess.Snapshot()
	if !snap.State.IsLoaded() {
		return m, nil
	}
	if !snap.Seeking {
		m.sess.BeginSeek()
	}
	m.sess.UpdateSeekPreview(m.sess.DisplayPosition() + delta)
	m.seekVersion++
	return m, seekSettled(m.seekVersion)
}

func (m Model) commitSeek() tea.Cmd {
	snap := m.sess.Snapshot()
	if !snap.Seeking {
		return nil
	}
	pos := snap.SeekPreview
	return run("seek", func(context.Context) error { return m.sess.CommitSeek(pos) })
}

func (m Model) jobState(trackID int64) downloads.JobState {
	if st, ok := m.jobStates[trackID]; ok {
		return st
	}
	if m.downloads != nil {
		if j := m.downloads.Job(trackID); j != nil {
			return j.Snapshot()
		}
	}
	return downloads.JobState{}
}

func (m Model) liked(trackID int64) bool {
	return m.likes != nil && m.likes.IsLiked(trackID)
}

func trackLabel(t catalog.Track) string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}
