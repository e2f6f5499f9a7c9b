// Package downloads keeps tracks available offline.
//
// The Manager runs at most one transfer per track id. Requesting a track that
// is already downloading returns the running job, and requesting one that
// finished returns the finished job. Completed downloads are recorded in the
// state store under offline_<id> so they survive restarts.
package downloads

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/errmsg"
	"github.com/llehouerou/openspot/internal/logging"
	"github.com/llehouerou/openspot/internal/state"
)

// DefaultSuccessBanner is how long a finished job reports ShowSuccess.
const DefaultSuccessBanner = 2500 * time.Millisecond

const eventBufferSize = 64

var (
	// ErrNoJob is returned for a track with no download job.
	ErrNoJob = errors.New("no download for track")
	// ErrNotRetryable is returned by Retry for a running or finished job.
	ErrNotRetryable = errors.New("download is running or complete")
	// ErrMissingFile is returned when a finished transfer left no file behind.
	ErrMissingFile = errors.New("downloaded file is missing")
)

// StreamResolver resolves a downloadable URL for a track.
type StreamResolver interface {
	StreamURL(ctx context.Context, trackID int64) (string, error)
}

// Manager owns download jobs keyed by track id.
type Manager struct {
	dir       string
	streams   StreamResolver
	store     state.Store
	transfer  Transferer
	thumbs    Thumbnailer
	bannerFor time.Duration
	now       func() time.Time
	log       *log.Logger

	mu   sync.Mutex
	jobs map[int64]*Job

	subsMu sync.Mutex
	subs   []chan JobState
	closed bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Manager.
type Option func(*Manager)

// WithTransferer replaces the HTTP transfer.
func WithTransferer(t Transferer) Option {
	return func(m *Manager) { m.transfer = t }
}

// WithThumbnailer replaces the cover art fetcher. nil disables cover art.
func WithThumbnailer(t Thumbnailer) Option {
	return func(m *Manager) { m.thumbs = t }
}

// WithHTTPClient sets the client used by the default transfer and cover
// fetcher.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		if t, ok := m.transfer.(*HTTPTransfer); ok {
			t.Client = c
		}
		if t, ok := m.thumbs.(*HTTPThumbnailer); ok {
			t.Client = c
		}
	}
}

// WithThumbnailWidth sets the width of saved cover art.
func WithThumbnailWidth(w int) Option {
	return func(m *Manager) {
		if t, ok := m.thumbs.(*HTTPThumbnailer); ok && w > 0 {
			t.Width = uint(w)
		}
	}
}

// WithSuccessBanner sets how long ShowSuccess stays set after completion.
func WithSuccessBanner(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.bannerFor = d
		}
	}
}

// WithLogger sets the manager logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithClock replaces time.Now for job timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a manager storing files under dir.
func New(dir string, streams StreamResolver, store state.Store, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		dir:       dir,
		streams:   streams,
		store:     store,
		transfer:  &HTTPTransfer{},
		thumbs:    &HTTPThumbnailer{Width: DefaultThumbnailWidth},
		bannerFor: DefaultSuccessBanner,
		now:       time.Now,
		jobs:      make(map[int64]*Job),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = logging.Component(logging.OrDiscard(m.log), "downloads")
	return m
}

// Dir returns the download directory.
func (m *Manager) Dir() string { return m.dir }

// FilePath returns the destination of a track's audio file.
func (m *Manager) FilePath(trackID int64) string {
	return filepath.Join(m.dir, fmt.Sprintf("offline_%d.mp3", trackID))
}

// ThumbnailPath returns the destination of a track's cover art.
func (m *Manager) ThumbnailPath(trackID int64) string {
	return filepath.Join(m.dir, fmt.Sprintf("offline_%d.jpg", trackID))
}

// RequestDownload returns the job for track, starting a transfer unless one
// is running or already completed. ctx only bounds the request; the transfer
// runs until it finishes, fails, is cancelled or the manager is closed.
func (m *Manager) RequestDownload(ctx context.Context, track catalog.Track) *Job {
	m.mu.Lock()
	j := m.jobs[track.ID]
	if j != nil {
		if st := j.Snapshot().Status; st == StatusDownloading || st == StatusSuccess {
			m.mu.Unlock()
			return j
		}
	} else {
		j = newJob(track, m.FilePath(track.ID), m.ThumbnailPath(track.ID))
		m.jobs[track.ID] = j
	}
	st := m.startLocked(ctx, j)
	m.mu.Unlock()

	m.emit(st)
	return j
}

// Retry starts a fresh attempt for a failed or cancelled job.
func (m *Manager) Retry(trackID int64) (*Job, error) {
	m.mu.Lock()
	j := m.jobs[trackID]
	if j == nil {
		m.mu.Unlock()
		return nil, ErrNoJob
	}
	if st := j.Snapshot().Status; st == StatusDownloading || st == StatusSuccess {
		m.mu.Unlock()
		return j, ErrNotRetryable
	}
	st := m.startLocked(m.ctx, j)
	m.mu.Unlock()

	m.emit(st)
	return j, nil
}

// startLocked begins an attempt on j. The attempt keeps parent's values but
// not its cancellation; it stops on Cancel or Close. m.mu must be held.
func (m *Manager) startLocked(parent context.Context, j *Job) JobState {
	attempt := uuid.NewString()
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	stop := context.AfterFunc(m.ctx, cancel)
	st := j.begin(attempt, cancel, m.now())

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer stop()
		defer cancel()
		m.run(ctx, j, attempt)
	}()

	m.log.Info("download started", "id", st.TrackID, "attempt", attempt)
	return st
}

func (m *Manager) run(ctx context.Context, j *Job, attempt string) {
	// A cancelled attempt may still be writing the file; wait for it.
	j.xfer.Lock()
	defer j.xfer.Unlock()
	if err := ctx.Err(); err != nil {
		m.fail(j, attempt, errmsg.OpDownload, err)
		return
	}

	track := j.Track()
	dest := m.FilePath(track.ID)
	started := m.now()

	url, err := m.streams.StreamURL(ctx, track.ID)
	if err != nil {
		m.fail(j, attempt, errmsg.OpStreamResolve, err)
		return
	}

	err = m.transfer.Transfer(ctx, url, dest, func(written, expected int64) {
		if st, changed := j.progress(attempt, written, expected, m.now()); changed {
			m.emit(st)
		}
	})
	if err != nil {
		m.fail(j, attempt, errmsg.OpDownload, err)
		return
	}

	info, err := os.Stat(dest)
	if err != nil {
		m.fail(j, attempt, errmsg.OpDownload, ErrMissingFile)
		return
	}

	thumb := m.saveThumbnail(ctx, track)
	rec := OfflineRecord{
		TrackID:       track.ID,
		FilePath:      dest,
		ThumbnailPath: thumb,
		Track:         track,
		Size:          info.Size(),
		DownloadedAt:  m.now(),
	}
	if err := ctx.Err(); err != nil {
		m.fail(j, attempt, errmsg.OpDownload, err)
		return
	}
	if err := state.SetJSON(m.store, OfflineKey(track.ID), rec); err != nil {
		m.fail(j, attempt, errmsg.OpDownload, err)
		return
	}

	st, ok := j.finish(attempt, thumb, nil, m.now())
	if !ok {
		return
	}
	m.log.Info("download complete",
		"id", track.ID,
		"title", track.Title,
		"size", humanize.IBytes(uint64(info.Size())), //nolint:gosec // file sizes are non-negative
		"took", m.now().Sub(started).Round(time.Millisecond),
	)
	m.emit(st)
	j.showBanner(m.bannerFor, func() { m.emit(j.Snapshot()) })
}

// saveThumbnail stores the track's cover art and returns its path, or ""
// when there is none or it could not be fetched.
func (m *Manager) saveThumbnail(ctx context.Context, track catalog.Track) string {
	img := track.OptimalImage()
	if m.thumbs == nil || img == "" {
		return ""
	}
	dest := m.ThumbnailPath(track.ID)
	if err := m.thumbs.Save(ctx, img, dest); err != nil {
		m.log.Warn(errmsg.Format(errmsg.OpThumbnail, err), "id", track.ID)
		return ""
	}
	return dest
}

func (m *Manager) fail(j *Job, attempt string, op errmsg.Op, err error) {
	st, ok := j.finish(attempt, "", errors.New(errmsg.Format(op, err)), m.now())
	if !ok {
		return
	}
	m.log.Error("download failed", "id", st.TrackID, "op", op, "err", err)
	m.emit(st)
}

// Cancel aborts a running download and returns its job to idle. It reports
// whether anything was cancelled. The partial file is kept.
func (m *Manager) Cancel(trackID int64) bool {
	m.mu.Lock()
	j := m.jobs[trackID]
	m.mu.Unlock()
	if j == nil {
		return false
	}
	st, ok := j.abort(m.now())
	if !ok {
		return false
	}
	m.log.Info("download cancelled", "id", trackID)
	m.emit(st)
	return true
}

// Job returns the job for trackID, or nil.
func (m *Manager) Job(trackID int64) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[trackID]
}

// Status returns the status of trackID's job, StatusIdle if there is none.
func (m *Manager) Status(trackID int64) Status {
	if j := m.Job(trackID); j != nil {
		return j.Snapshot().Status
	}
	return StatusIdle
}

// Jobs returns the state of every job.
func (m *Manager) Jobs() []JobState {
	m.mu.Lock()
	jobs := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, j)
	}
	m.mu.Unlock()

	out := make([]JobState, len(jobs))
	for i, j := range jobs {
		out[i] = j.Snapshot()
	}
	return out
}

// Clear forgets a job that is not running. The offline record and files are
// kept.
func (m *Manager) Clear(trackID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.jobs[trackID]
	if j == nil || !j.Snapshot().Status.IsTerminal() {
		return false
	}
	j.stopBanner()
	delete(m.jobs, trackID)
	return true
}

// Subscribe returns a channel of job state changes. Slow subscribers miss
// updates rather than block transfers. The channel is closed by Close.
func (m *Manager) Subscribe() <-chan JobState {
	ch := make(chan JobState, eventBufferSize)
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	if m.closed {
		close(ch)
		return ch
	}
	m.subs = append(m.subs, ch)
	return ch
}

func (m *Manager) emit(st JobState) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- st:
		default:
		}
	}
}

// Close cancels running transfers, waits for them and closes subscriptions.
func (m *Manager) Close() error {
	m.cancel()
	m.wg.Wait()

	m.mu.Lock()
	for _, j := range m.jobs {
		j.stopBanner()
	}
	m.mu.Unlock()

	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for _, ch := range m.subs {
		close(ch)
	}
	m.subs = nil
	return nil
}
