package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/config"
	"github.com/llehouerou/openspot/internal/downloads"
	"github.com/llehouerou/openspot/internal/notify"
	"github.com/llehouerou/openspot/internal/player"
	"github.com/llehouerou/openspot/internal/playlist"
	"github.com/llehouerou/openspot/internal/state"
)

type fixture struct {
	store   *state.Mock
	catalog *catalog.Mock
	backend *player.Mock
}

func newFixture() *fixture {
	return &fixture{store: state.NewMock(), catalog: catalog.NewMock(), backend: player.NewMock()}
}

func (f *fixture) open(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	a, err := New(cfg,
		WithStore(f.store),
		WithCatalog(f.catalog),
		WithBackend(f.backend),
		WithDownloadDir(t.TempDir()),
		WithoutThumbnails(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func sampleTracks() []catalog.Track {
	return []catalog.Track{
		{ID: 1, Title: "One", Artist: "A", DurationSec: 100},
		{ID: 2, Title: "Two", Artist: "A", DurationSec: 100},
		{ID: 3, Title: "Three", Artist: "A", DurationSec: 100},
	}
}

func TestNew_RestoresQueue(t *testing.T) {
	f := newFixture()
	f.store.SaveQueue(playlist.Snapshot{
		Tracks:        sampleTracks(),
		OriginalOrder: sampleTracks(),
		CurrentIndex:  1,
		RepeatMode:    playlist.RepeatAll,
	})

	a := f.open(t, nil)

	snap := a.Session.Snapshot()
	assert.Equal(t, 3, snap.QueueLen)
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, playlist.RepeatAll, snap.RepeatMode)
}

func TestNew_VolumeSources(t *testing.T) {
	t.Run("saved volume wins", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.store.SaveVolume(0.3, true))
		v := 0.9
		a := f.open(t, &config.Config{Playback: config.PlaybackConfig{Volume: &v}})

		snap := a.Session.Snapshot()
		assert.InDelta(t, 0.3, snap.Volume, 1e-9)
		assert.True(t, snap.Muted)
	})

	t.Run("config when nothing saved", func(t *testing.T) {
		v := 0.6
		a := newFixture().open(t, &config.Config{Playback: config.PlaybackConfig{Volume: &v}})
		assert.InDelta(t, 0.6, a.Session.Snapshot().Volume, 1e-9)
	})

	t.Run("full volume by default", func(t *testing.T) {
		a := newFixture().open(t, nil)
		assert.InDelta(t, 1.0, a.Session.Snapshot().Volume, 1e-9)
	})
}

func TestPersist_VolumeAndQueue(t *testing.T) {
	f := newFixture()
	a := f.open(t, nil)

	require.NoError(t, a.Session.SetVolume(0.4))
	assert.Eventually(t, func() bool {
		v, err := f.store.GetVolume()
		return err == nil && v.Volume > 0.39 && v.Volume < 0.41
	}, time.Second, 5*time.Millisecond)

	a.Session.Enqueue(sampleTracks()...)
	assert.Eventually(t, func() bool {
		snap, err := f.store.GetQueue()
		return err == nil && snap != nil && len(snap.Tracks) == 3
	}, time.Second, 5*time.Millisecond)
}

func TestPersist_RecentlyPlayed(t *testing.T) {
	f := newFixture()
	a := f.open(t, nil)
	ctx := context.Background()

	require.NoError(t, a.Session.PlayQueue(ctx, sampleTracks(), 0))
	require.NoError(t, a.Session.Next(ctx))
	require.NoError(t, a.Session.Previous(ctx))

	ids := func() []int64 {
		var out []int64
		for _, t := range a.Recent.List(0) {
			out = append(out, t.ID)
		}
		return out
	}
	assert.Eventually(t, func() bool {
		return slices.Equal(ids(), []int64{1, 2})
	}, time.Second, 5*time.Millisecond)

	saved, ok, err := state.GetJSON[[]catalog.Track](f.store, state.KeyRecentlyPlayed)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, saved, 2)
}

func TestClose_SavesQueueAndReleases(t *testing.T) {
	f := newFixture()
	a := f.open(t, nil)
	require.NoError(t, a.Session.PlayQueue(context.Background(), sampleTracks(), 2))

	require.NoError(t, a.Close())
	require.NoError(t, a.Close(), "second close is a no-op")

	assert.True(t, f.store.IsClosed())
	assert.True(t, f.backend.Closed())

	snap, err := f.store.GetQueue()
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 2, snap.CurrentIndex)
}

func TestSearch_FollowsPages(t *testing.T) {
	f := newFixture()
	f.catalog.SetPage("rock", 0, &catalog.SearchResponse{
		Tracks:     sampleTracks()[:2],
		Pagination: catalog.Pagination{HasMore: true},
	})
	f.catalog.SetPage("rock", 2, &catalog.SearchResponse{
		Tracks: sampleTracks()[2:],
	})
	a := f.open(t, nil)

	got, err := a.Search(context.Background(), "rock", 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = a.Search(context.Background(), "rock", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = a.Search(context.Background(), "rock", 0)
	require.NoError(t, err)
	assert.Len(t, got, 2, "first page only")
}

func TestSearch_LoadMoreFailure(t *testing.T) {
	f := newFixture()
	f.catalog.SetPage("rock", 0, &catalog.SearchResponse{
		Tracks:     sampleTracks()[:2],
		Pagination: catalog.Pagination{HasMore: true},
	})
	boom := errors.New("gateway timeout")
	f.catalog.SetPageError("rock", 2, boom)
	a := f.open(t, nil)

	_, err := a.Search(context.Background(), "rock", 10)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "load more results")

	f.catalog.SetSearchError(boom)
	_, err = a.Search(context.Background(), "rock", 10)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "search")
}

func TestStreams_FallBackToCatalog(t *testing.T) {
	f := newFixture()
	a := f.open(t, nil)
	require.NoError(t, a.Session.PlayQueue(context.Background(), sampleTracks()[:1], 0))
	assert.Equal(t, "https://stream.test/1.mp3", f.backend.Loaded())
}

type fileTransfer struct{}

func (fileTransfer) Transfer(_ context.Context, _, dest string, _ downloads.ProgressFunc) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("audio"), 0o600)
}

type notifications struct {
	mu    sync.Mutex
	posts []notify.Notification
}

func (n *notifications) Notify(x notify.Notification) (uint32, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.posts = append(n.posts, x)
	return uint32(len(n.posts)), nil
}

func (n *notifications) Close(uint32) error { return nil }

func (n *notifications) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.posts))
	for i, p := range n.posts {
		out[i] = p.Title + ": " + p.Body
	}
	return out
}

func TestStartNotifications_DownloadFinished(t *testing.T) {
	f := newFixture()
	a, err := New(&config.Config{},
		WithStore(f.store),
		WithCatalog(f.catalog),
		WithBackend(f.backend),
		WithDownloadDir(t.TempDir()),
		WithoutThumbnails(),
		WithTransferer(fileTransfer{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	n := &notifications{}
	a.StartNotifications(n)

	job := a.Downloads.RequestDownload(context.Background(), sampleTracks()[0])
	_, err = job.Wait(context.Background())
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return slices.Equal(n.titles(), []string{"Downloaded: A - One"})
	}, time.Second, 5*time.Millisecond)
}
