package downloads

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/state"
)

// fakeTransfer writes body to dest, optionally waiting on gate first.
type fakeTransfer struct {
	mu    sync.Mutex
	calls int
	urls  []string
	gate  chan struct{}
	err   error
	body  []byte
}

func (f *fakeTransfer) Transfer(ctx context.Context, url, dest string, progress ProgressFunc) error {
	f.mu.Lock()
	f.calls++
	f.urls = append(f.urls, url)
	gate, err, body := f.gate, f.err, f.body
	f.mu.Unlock()

	expected := int64(len(body))
	progress(0, expected)
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	half := body[:len(body)/2]
	if err != nil {
		// Leave a partial file behind like an interrupted transfer.
		_ = os.WriteFile(dest, half, 0o600)
		progress(int64(len(half)), expected)
		return err
	}
	if err := os.WriteFile(dest, body, 0o600); err != nil {
		return err
	}
	progress(int64(len(half)), expected)
	progress(expected, expected)
	return nil
}

func (f *fakeTransfer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeThumbs struct{}

func (fakeThumbs) Save(_ context.Context, _, dest string) error {
	return os.WriteFile(dest, []byte("jpeg"), 0o600)
}

type fixture struct {
	mgr      *Manager
	transfer *fakeTransfer
	catalog  *catalog.Mock
	store    *state.Mock
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		transfer: &fakeTransfer{body: make([]byte, 1000)},
		catalog:  catalog.NewMock(),
		store:    state.NewMock(),
	}
	opts = append([]Option{WithTransferer(f.transfer), WithThumbnailer(nil)}, opts...)
	f.mgr = New(t.TempDir(), catalog.NewDeduplicated(f.catalog), f.store, opts...)
	t.Cleanup(func() { _ = f.mgr.Close() })
	return f
}

func testTrack(id int64) catalog.Track {
	return catalog.Track{ID: id, Title: "Song", Artist: "Band", DurationSec: 200}
}

func TestRequestDownload_AttachesToRunningJob(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		gate := make(chan struct{})
		f.transfer.gate = gate
		ctx := context.Background()

		j1 := f.mgr.RequestDownload(ctx, testTrack(1))
		j2 := f.mgr.RequestDownload(ctx, testTrack(1))
		synctest.Wait()

		assert.Same(t, j1, j2)
		assert.Equal(t, 1, f.transfer.Calls())
		assert.Equal(t, StatusDownloading, j1.Snapshot().Status)

		close(gate)
		st, err := j2.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, st.Status)
		assert.Equal(t, 100, st.Progress)
		assert.Equal(t, int64(1000), st.BytesExpected)
		assert.Equal(t, j1.Snapshot(), st, "both callers observe the same job")

		j3 := f.mgr.RequestDownload(ctx, testTrack(1))
		assert.Same(t, j1, j3)
		assert.Equal(t, 1, f.transfer.Calls(), "success is returned without downloading again")
	})
}

func TestRequestDownload_PersistsOfflineRecord(t *testing.T) {
	f := newFixture(t, WithThumbnailer(fakeThumbs{}))
	track := testTrack(7)
	track.Images.Large = "https://img.test/7.jpg"

	st, err := f.mgr.RequestDownload(context.Background(), track).Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, st.Status)

	rec, ok, err := state.GetJSON[OfflineRecord](f.store, "offline_7")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, f.mgr.FilePath(7), rec.FilePath)
	assert.Equal(t, f.mgr.ThumbnailPath(7), rec.ThumbnailPath)
	assert.Equal(t, int64(1000), rec.Size)
	assert.Equal(t, "Song", rec.Track.Title)
	assert.FileExists(t, rec.FilePath)
	assert.FileExists(t, rec.ThumbnailPath)
	assert.Equal(t, []string{"https://stream.test/7.mp3"}, f.transfer.urls)
}

func TestRequestDownload_TransferFailureKeepsPartialFile(t *testing.T) {
	f := newFixture(t)
	f.transfer.err = errors.New("connection reset")

	st, err := f.mgr.RequestDownload(context.Background(), testTrack(2)).Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "Failed to download track: connection reset", st.Err)
	assert.Equal(t, 50, st.Progress)
	assert.FileExists(t, f.mgr.FilePath(2), "partial file is left for retry")

	_, ok, _ := f.store.Get(OfflineKey(2))
	assert.False(t, ok)
}

func TestRequestDownload_StreamFailure(t *testing.T) {
	f := newFixture(t)
	f.catalog.SetStreamError(3, catalog.ErrNoStream)

	st, _ := f.mgr.RequestDownload(context.Background(), testTrack(3)).Wait(context.Background())
	assert.Equal(t, StatusError, st.Status)
	assert.Contains(t, st.Err, "Failed to get stream URL")
	assert.Zero(t, f.transfer.Calls())
}

func TestRetry_StartsFreshAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.mgr.Retry(9)
	require.ErrorIs(t, err, ErrNoJob)

	f.transfer.err = errors.New("disk full")
	j := f.mgr.RequestDownload(ctx, testTrack(4))
	first, _ := j.Wait(ctx)
	require.Equal(t, StatusError, first.Status)

	f.transfer.mu.Lock()
	f.transfer.err = nil
	f.transfer.mu.Unlock()

	j2, err := f.mgr.Retry(4)
	require.NoError(t, err)
	assert.Same(t, j, j2)
	second, _ := j2.Wait(ctx)
	assert.Equal(t, StatusSuccess, second.Status)
	assert.NotEqual(t, first.Attempt, second.Attempt)
	assert.Empty(t, second.Err)

	data, err := os.ReadFile(f.mgr.FilePath(4))
	require.NoError(t, err)
	assert.Len(t, data, 1000, "retry overwrites the partial file")

	_, err = f.mgr.Retry(4)
	require.ErrorIs(t, err, ErrNotRetryable)
}

func TestCancel_ReturnsToIdle(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		gate := make(chan struct{})
		f.transfer.gate = gate

		j := f.mgr.RequestDownload(context.Background(), testTrack(5))
		synctest.Wait()

		assert.True(t, f.mgr.Cancel(5))
		<-j.Done()
		synctest.Wait()

		st := j.Snapshot()
		assert.Equal(t, StatusIdle, st.Status, "cancellation is not a failure")
		assert.Empty(t, st.Err)
		assert.False(t, f.mgr.Cancel(5), "nothing left to cancel")
		assert.False(t, f.mgr.Cancel(99))

		close(gate)
		j2 := f.mgr.RequestDownload(context.Background(), testTrack(5))
		assert.Same(t, j, j2)
		st, _ = j2.Wait(context.Background())
		assert.Equal(t, StatusSuccess, st.Status)
		assert.Equal(t, 2, f.transfer.Calls())
	})
}

func TestSuccessBanner_Expires(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		events := f.mgr.Subscribe()

		st, _ := f.mgr.RequestDownload(context.Background(), testTrack(6)).Wait(context.Background())
		synctest.Wait()
		assert.True(t, st.ShowSuccess)

		time.Sleep(DefaultSuccessBanner)
		synctest.Wait()

		st = f.mgr.Job(6).Snapshot()
		assert.False(t, st.ShowSuccess)
		assert.Equal(t, StatusSuccess, st.Status, "job stays queryable after the banner")

		var last JobState
		for len(events) > 0 {
			last = <-events
		}
		assert.False(t, last.ShowSuccess)
		assert.Equal(t, StatusSuccess, last.Status)
	})
}

func TestSubscribe_ReceivesTransitions(t *testing.T) {
	f := newFixture(t)
	events := f.mgr.Subscribe()

	f.mgr.RequestDownload(context.Background(), testTrack(8))

	first := <-events
	assert.Equal(t, StatusDownloading, first.Status)
	var progress []int
	for e := range events {
		progress = append(progress, e.Progress)
		if e.Status == StatusSuccess {
			break
		}
	}
	assert.Equal(t, []int{50, 100, 100}, progress)

	require.NoError(t, f.mgr.Close())
	for range events {
	}
}

func TestClear(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		gate := make(chan struct{})
		f.transfer.gate = gate

		f.mgr.RequestDownload(context.Background(), testTrack(1))
		synctest.Wait()
		assert.False(t, f.mgr.Clear(1), "running job is kept")

		close(gate)
		_, _ = f.mgr.Job(1).Wait(context.Background())
		synctest.Wait()
		assert.True(t, f.mgr.Clear(1))
		assert.Nil(t, f.mgr.Job(1))
		assert.Equal(t, StatusIdle, f.mgr.Status(1))
	})
}

func TestRestore_PrunesMissingFiles(t *testing.T) {
	f := newFixture(t)
	present := filepath.Join(f.mgr.Dir(), "offline_1.mp3")
	require.NoError(t, os.MkdirAll(f.mgr.Dir(), 0o755))
	require.NoError(t, os.WriteFile(present, []byte("x"), 0o600))

	require.NoError(t, state.SetJSON(f.store, OfflineKey(1), OfflineRecord{TrackID: 1, FilePath: present, Track: testTrack(1)}))
	require.NoError(t, state.SetJSON(f.store, OfflineKey(2), OfflineRecord{TrackID: 2, FilePath: "/nope/offline_2.mp3"}))

	n, err := f.mgr.Restore()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, StatusSuccess, f.mgr.Status(1))
	assert.Equal(t, StatusIdle, f.mgr.Status(2))

	_, ok, _ := f.store.Get(OfflineKey(2))
	assert.False(t, ok, "stale record pruned")

	res := f.mgr.LocalFirst(f.catalog)
	u, err := res.StreamURL(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, present, u)
	u, err = res.StreamURL(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "https://stream.test/2.mp3", u)
}

func TestOffline_NewestFirst(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []int64{1, 2, 3} {
		rec := OfflineRecord{TrackID: id, DownloadedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, state.SetJSON(f.store, OfflineKey(id), rec))
	}

	recs, err := f.mgr.Offline()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{recs[0].TrackID, recs[1].TrackID, recs[2].TrackID})
}

func TestRemove_DeletesFilesAndRecord(t *testing.T) {
	f := newFixture(t, WithThumbnailer(fakeThumbs{}))
	track := testTrack(10)
	track.Images.Small = "https://img.test/10.jpg"
	_, _ = f.mgr.RequestDownload(context.Background(), track).Wait(context.Background())
	require.FileExists(t, f.mgr.FilePath(10))

	require.NoError(t, f.mgr.Remove(10))

	assert.NoFileExists(t, f.mgr.FilePath(10))
	assert.NoFileExists(t, f.mgr.ThumbnailPath(10))
	_, ok, _ := f.store.Get(OfflineKey(10))
	assert.False(t, ok)
	assert.Equal(t, StatusIdle, f.mgr.Status(10))
	require.NoError(t, f.mgr.Remove(10), "removing twice is harmless")
}

func TestPercent(t *testing.T) {
	tests := []struct {
		written, expected int64
		want              int
	}{
		{0, 100, 0},
		{50, 200, 25},
		{199, 200, 99},
		{200, 200, 100},
		{300, 200, 100},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := percent(tt.written, tt.expected); got != tt.want {
			t.Errorf("percent(%d, %d) = %d, want %d", tt.written, tt.expected, got, tt.want)
		}
	}
}

func TestJobProgress_IndeterminateAndStale(t *testing.T) {
	j := newJob(testTrack(1), "/tmp/x", "")
	j.begin("a1", func() {}, time.Now())

	st, changed := j.progress("a1", 40, 100, time.Now())
	assert.True(t, changed)
	assert.Equal(t, 40, st.Progress)

	st, changed = j.progress("a1", 80, 0, time.Now())
	assert.False(t, changed, "unknown size keeps the last percentage")
	assert.Equal(t, 40, st.Progress)
	assert.Equal(t, int64(80), st.BytesWritten)

	_, changed = j.progress("old", 100, 100, time.Now())
	assert.False(t, changed)
	assert.Equal(t, 40, j.Snapshot().Progress, "stale attempt ignored")
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Downloaded", StatusSuccess.Label())
	assert.True(t, StatusError.IsTerminal())
	assert.False(t, StatusDownloading.IsTerminal())
}
