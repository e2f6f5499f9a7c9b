// Package app wires the catalog, playback, downloads and library stores
// into one running player.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/config"
	"github.com/llehouerou/openspot/internal/downloads"
	"github.com/llehouerou/openspot/internal/errmsg"
	"github.com/llehouerou/openspot/internal/logging"
	"github.com/llehouerou/openspot/internal/mpris"
	"github.com/llehouerou/openspot/internal/notify"
	"github.com/llehouerou/openspot/internal/playback"
	"github.com/llehouerou/openspot/internal/player"
	"github.com/llehouerou/openspot/internal/playlist"
	"github.com/llehouerou/openspot/internal/playlists"
	"github.com/llehouerou/openspot/internal/state"
)

// App owns every long-lived component.
type App struct {
	Log       *log.Logger
	Store     state.Interface
	Catalog   *catalog.Deduplicated
	Queue     *playlist.Queue
	Backend   player.Backend
	Session   *playback.Session
	Downloads *downloads.Manager
	Liked     *playlists.LikedSongs
	Playlists *playlists.Playlists
	Recent    *playlists.RecentlyPlayed

	mpris     *mpris.Adapter
	persisted chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Option overrides a component, mainly for tests.
type Option func(*options)

type options struct {
	log         *log.Logger
	store       state.Interface
	catalog     catalog.Service
	backend     player.Backend
	downloadDir string
	transfer    downloads.Transferer
	noThumbs    bool
}

// WithLogger sets the root logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithStore replaces the SQLite state store.
func WithStore(s state.Interface) Option {
	return func(o *options) { o.store = s }
}

// WithCatalog replaces the HTTP catalog client.
func WithCatalog(c catalog.Service) Option {
	return func(o *options) { o.catalog = c }
}

// WithBackend replaces the speaker backend.
func WithBackend(b player.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithDownloadDir overrides the configured download directory.
func WithDownloadDir(dir string) Option {
	return func(o *options) { o.downloadDir = dir }
}

// WithTransferer replaces the HTTP download transfer.
func WithTransferer(t downloads.Transferer) Option {
	return func(o *options) { o.transfer = t }
}

// WithoutThumbnails disables cover art downloads.
func WithoutThumbnails() Option {
	return func(o *options) { o.noThumbs = true }
}

// New builds the application from cfg and restores the saved queue, volume
// and offline downloads.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrDiscard(o.log)

	cc := cfg.GetCatalogConfig()
	pc := cfg.GetPlaybackConfig()
	dc := cfg.GetDownloadsConfig()
	if o.downloadDir != "" {
		dc.Dir = o.downloadDir
	}

	a := &App{Log: logger, Queue: playlist.NewQueue(), persisted: make(chan struct{})}

	a.Store = o.store
	if a.Store == nil {
		mgr, err := state.Open(state.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("open state: %w", err)
		}
		a.Store = mgr
	}

	svc := o.catalog
	if svc == nil {
		svc = catalog.NewClient(cc.BaseURL,
			catalog.WithTimeouts(cc.SearchTimeout, cc.StreamTimeout),
			catalog.WithRateLimit(cc.RateLimit),
		)
	}
	a.Catalog = catalog.NewDeduplicated(svc)

	dlOpts := []downloads.Option{
		downloads.WithLogger(logger),
		downloads.WithSuccessBanner(dc.SuccessBanner),
		downloads.WithThumbnailWidth(dc.ThumbnailWidth),
	}
	if o.transfer != nil {
		dlOpts = append(dlOpts, downloads.WithTransferer(o.transfer))
	}
	if o.noThumbs {
		dlOpts = append(dlOpts, downloads.WithThumbnailer(nil))
	}
	a.Downloads = downloads.New(dc.Dir, a.Catalog, a.Store, dlOpts...)
	if n, err := a.Downloads.Restore(); err != nil {
		logger.Warn("restore downloads", "err", err)
	} else if n > 0 {
		logger.Info("restored downloads", "count", n)
	}

	var err error
	if a.Liked, err = playlists.NewLikedSongs(a.Store); err != nil {
		return nil, a.abort(fmt.Errorf("load liked songs: %w", err))
	}
	if a.Playlists, err = playlists.NewPlaylists(a.Store); err != nil {
		return nil, a.abort(fmt.Errorf("load playlists: %w", err))
	}
	if a.Recent, err = playlists.NewRecentlyPlayed(a.Store); err != nil {
		return nil, a.abort(fmt.Errorf("load recently played: %w", err))
	}

	a.Backend = o.backend
	if a.Backend == nil {
		a.Backend = player.NewBeep(player.WithTickInterval(pc.TickInterval))
	}

	level, muted := a.savedVolume(pc)
	a.Session = playback.New(a.Backend, a.Queue, a.Downloads.LocalFirst(a.Catalog),
		playback.WithLogger(logger),
		playback.WithTickInterval(pc.TickInterval),
		playback.WithSeekDebounce(pc.SeekDebounce),
		playback.WithVolume(level, muted),
	)

	if snap, err := a.Store.GetQueue(); err != nil {
		logger.Warn(errmsg.Format(errmsg.OpQueueLoad, err))
	} else if snap != nil {
		a.Session.RestoreQueue(*snap)
	}

	go a.persist(a.Session.Subscribe())
	return a, nil
}

// savedVolume returns the stored volume, else the configured one, else full.
func (a *App) savedVolume(pc config.PlaybackConfig) (float64, bool) {
	if _, ok, err := a.Store.Get(state.KeyVolume); err == nil && ok {
		if v, err := a.Store.GetVolume(); err == nil {
			return v.Volume, v.Muted
		}
	}
	if pc.Volume != nil {
		return *pc.Volume, false
	}
	return 1, false
}

// StartMPRIS exposes the session over D-Bus until Close.
func (a *App) StartMPRIS() error {
	adapter, err := mpris.New(a.Session, mpris.WithCovers(a.Downloads.LocalThumbnail))
	if err != nil {
		return err
	}
	a.mpris = adapter
	return nil
}

// StartNotifications posts a desktop notification whenever a download
// finishes or fails, until Close.
func (a *App) StartNotifications(n notify.Notifier) {
	updates := a.Downloads.Subscribe()
	go notify.Downloads(context.Background(), n, updates, a.downloadTrack, a.Log)
}

func (a *App) downloadTrack(trackID int64) (catalog.Track, bool) {
	j := a.Downloads.Job(trackID)
	if j == nil {
		return catalog.Track{}, false
	}
	return j.Track(), true
}

// Close stops playback, saves the queue and releases every component in
// reverse construction order. Later calls return the first result.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		var errs []error
		if a.mpris != nil {
			errs = append(errs, a.mpris.Close())
		}
		errs = append(errs, a.Session.Close())
		<-a.persisted
		a.Store.SaveQueue(a.Session.QueueSnapshot())
		errs = append(errs, a.Downloads.Close(), a.Backend.Close(), a.Store.Close())
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}

// abort releases what New built before failing.
func (a *App) abort(err error) error {
	return errors.Join(err, a.Downloads.Close(), a.Store.Close())
}
