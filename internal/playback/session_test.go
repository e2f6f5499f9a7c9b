package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/player"
	"github.com/llehouerou/openspot/internal/playlist"
)

type fixture struct {
	backend *player.Mock
	catalog *catalog.Mock
	queue   *playlist.Queue
	sess    *Session
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		backend: player.NewMock(),
		catalog: catalog.NewMock(),
		queue:   playlist.NewQueue(),
	}
	f.sess = New(f.backend, f.queue, catalog.NewDeduplicated(f.catalog), opts...)
	t.Cleanup(func() { _ = f.sess.Close() })
	return f
}

func testTracks(ids ...int64) []catalog.Track {
	out := make([]catalog.Track, len(ids))
	for i, id := range ids {
		out[i] = catalog.Track{ID: id, Title: fmt.Sprintf("Track %d", id), Artist: "Artist", DurationSec: 180}
	}
	return out
}

func streamURL(id int64) string {
	return fmt.Sprintf("https://stream.test/%d.mp3", id)
}

func TestLoadTrack_EntersPaused(t *testing.T) {
	f := newFixture(t)
	track := testTracks(1)[0]

	require.NoError(t, f.sess.LoadTrack(context.Background(), track))

	snap := f.sess.Snapshot()
	assert.Equal(t, StatePaused, snap.State)
	assert.False(t, snap.Playing)
	assert.Equal(t, time.Duration(0), snap.Position)
	assert.Equal(t, 180*time.Second, snap.Duration)
	require.NotNil(t, snap.Track)
	assert.Equal(t, int64(1), snap.Track.ID)
	assert.Equal(t, streamURL(1), f.backend.Loaded())
	assert.Equal(t, []float64{1}, f.backend.VolumeCalls(), "volume applied after load")
}

func TestLoadTrack_SameTrackIsNoOp(t *testing.T) {
	f := newFixture(t)
	track := testTracks(1)[0]

	require.NoError(t, f.sess.LoadTrack(context.Background(), track))
	require.NoError(t, f.sess.LoadTrack(context.Background(), track))

	assert.Len(t, f.backend.LoadCalls(), 1)
	assert.Equal(t, []int64{1}, f.catalog.StreamCalls())
}

func TestLoadTrack_SupersededDuringStreamLookup(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		tracks := testTracks(1, 2)
		release := f.catalog.Gate(1)
		defer release()

		var errA error
		done := make(chan struct{})
		go func() {
			defer close(done)
			errA = f.sess.LoadTrack(context.Background(), tracks[0])
		}()
		synctest.Wait()
		assert.Equal(t, StateLoading, f.sess.State())

		require.NoError(t, f.sess.LoadTrack(context.Background(), tracks[1]))
		<-done
		release()
		synctest.Wait()

		require.ErrorIs(t, errA, ErrSuperseded)
		assert.Equal(t, []string{streamURL(2)}, f.backend.LoadCalls(), "the stale track never reaches the backend")
		assert.Equal(t, int64(2), f.sess.Track().ID)
		assert.Equal(t, StatePaused, f.sess.State())
	})
}

func TestLoadTrack_SupersededDuringBackendLoad(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		tracks := testTracks(1, 2)
		release := f.backend.Gate(streamURL(1))
		defer release()

		var errA error
		done := make(chan struct{})
		go func() {
			defer close(done)
			errA = f.sess.LoadTrack(context.Background(), tracks[0])
		}()
		synctest.Wait()

		require.NoError(t, f.sess.LoadTrack(context.Background(), tracks[1]))
		<-done

		require.ErrorIs(t, errA, ErrSuperseded)
		assert.Equal(t, streamURL(2), f.backend.Loaded())
		assert.Equal(t, int64(2), f.sess.Track().ID)
	})
}

func TestLoadTrack_StreamErrorThenRetry(t *testing.T) {
	f := newFixture(t)
	f.queue.SetTracks(testTracks(1), 0)
	f.catalog.SetStreamError(1, catalog.ErrNoStream)

	err := f.sess.LoadCurrent(context.Background())
	require.ErrorIs(t, err, catalog.ErrNoStream)

	snap := f.sess.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, "Failed to get stream URL: no stream URL received", snap.Error)
	assert.Equal(t, 0, snap.Index, "a failed load does not advance the queue")
	assert.Empty(t, f.backend.LoadCalls())

	f.catalog.SetStreamError(1, nil)
	require.NoError(t, f.sess.Retry(context.Background()))

	snap = f.sess.Snapshot()
	assert.Equal(t, StatePlaying, snap.State)
	assert.True(t, snap.Playing)
	assert.Empty(t, snap.Error)
}

func TestLoadTrack_BackendErrorEntersError(t *testing.T) {
	f := newFixture(t)
	f.backend.SetLoadError(errors.New("unsupported format"))

	err := f.sess.LoadTrack(context.Background(), testTracks(1)[0])
	require.Error(t, err)
	assert.Equal(t, StateError, f.sess.State())
	assert.Equal(t, "Failed to load track: unsupported format", f.sess.Snapshot().Error)
}

func TestRetry_NoOpUnlessError(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.Retry(context.Background()))
	assert.Equal(t, StateIdle, f.sess.State())
}

func TestPlay_WaitsForBackendAck(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.sess.Play(), ErrNoTrack)

	require.NoError(t, f.sess.LoadTrack(context.Background(), testTracks(1)[0]))
	f.backend.SetPlayError(errors.New("no audio device"))

	require.Error(t, f.sess.Play())
	snap := f.sess.Snapshot()
	assert.False(t, snap.Playing)
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, "Failed to start playback: no audio device", snap.Error)
}

func TestPauseRejected_StaysPlaying(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.PlayQueue(context.Background(), testTracks(1), 0))
	f.backend.SetPauseError(errors.New("busy"))

	require.Error(t, f.sess.Pause())
	assert.Equal(t, StatePlaying, f.sess.State())
	assert.True(t, f.sess.Snapshot().Playing)
}

func TestToggle(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.LoadTrack(context.Background(), testTracks(1)[0]))

	require.NoError(t, f.sess.Toggle())
	assert.Equal(t, StatePlaying, f.sess.State())
	require.NoError(t, f.sess.Toggle())
	assert.Equal(t, StatePaused, f.sess.State())
	assert.Equal(t, player.Paused, f.backend.State())
}

func TestCommitSeek_TickInDebounceWindowIgnored(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.sess.PlayQueue(context.Background(), testTracks(1), 0))

		require.NoError(t, f.sess.CommitSeek(5000*time.Millisecond))
		f.backend.EmitStatus(player.Status{Position: 1200 * time.Millisecond, Duration: 180 * time.Second})

		assert.Equal(t, 5000*time.Millisecond, f.sess.Snapshot().Position)
		assert.Equal(t, int64(1), f.sess.DroppedTicks())
		assert.Equal(t, []time.Duration{5 * time.Second}, f.backend.SeekCalls())

		time.Sleep(f.sess.SeekDebounce())
		f.backend.EmitStatus(player.Status{Position: 5300 * time.Millisecond, Duration: 180 * time.Second})
		assert.Equal(t, 5300*time.Millisecond, f.sess.Snapshot().Position)
	})
}

func TestSeekPreview_TicksDroppedWhileSeeking(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.PlayQueue(context.Background(), testTracks(1), 0))

	f.sess.BeginSeek()
	f.sess.UpdateSeekPreview(42 * time.Second)
	assert.False(t, f.sess.OnBackendPositionTick(10*time.Second))

	snap := f.sess.Snapshot()
	assert.True(t, snap.Seeking)
	assert.Equal(t, time.Duration(0), snap.Position)
	assert.Equal(t, 42*time.Second, snap.DisplayPosition())
	assert.Empty(t, f.backend.SeekCalls(), "preview never touches the backend")

	require.NoError(t, f.sess.CommitSeek(42*time.Second))
	snap = f.sess.Snapshot()
	assert.False(t, snap.Seeking)
	assert.Equal(t, 42*time.Second, snap.Position)
}

func TestCommitSeek_Clamped(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.sess.CommitSeek(time.Second), ErrNotReady)

	require.NoError(t, f.sess.LoadTrack(context.Background(), testTracks(1)[0]))
	require.NoError(t, f.sess.CommitSeek(-time.Second))
	assert.Equal(t, time.Duration(0), f.sess.DisplayPosition())
	require.NoError(t, f.sess.CommitSeek(time.Hour))
	assert.Equal(t, 180*time.Second, f.sess.DisplayPosition())
}

func TestCommitSeek_BackendRejects(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.LoadTrack(context.Background(), testTracks(1)[0]))
	f.backend.SetSeekError(errors.New("not seekable"))

	require.Error(t, f.sess.CommitSeek(10*time.Second))
	assert.Equal(t, StateError, f.sess.State())
}

func TestPositionTick_DroppedWhileLoading(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		release := f.catalog.Gate(1)
		go func() { _ = f.sess.LoadTrack(context.Background(), testTracks(1)[0]) }()
		synctest.Wait()

		assert.False(t, f.sess.OnBackendPositionTick(3*time.Second))
		release()
		synctest.Wait()
		assert.True(t, f.sess.OnBackendPositionTick(3*time.Second))
	})
}

func TestOnBackendDurationReport(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.LoadTrack(context.Background(), testTracks(1)[0]))

	f.sess.OnBackendDurationReport(200 * time.Second)
	assert.Equal(t, 200*time.Second, f.sess.Snapshot().Duration)
	f.sess.OnBackendDurationReport(0)
	assert.Equal(t, 200*time.Second, f.sess.Snapshot().Duration)
}

func TestStatus_PreviousTrackIgnoredWhileLoading(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		tracks := testTracks(1, 2)
		tracks[1].DurationSec = 60
		require.NoError(t, f.sess.PlayQueue(context.Background(), tracks, 0))

		release := f.catalog.Gate(2)
		defer release()
		done := make(chan error, 1)
		go func() { done <- f.sess.Next(context.Background()) }()
		synctest.Wait()
		require.Equal(t, StateLoading, f.sess.State())

		dropped := f.sess.DroppedTicks()
		f.backend.EmitStatus(player.Status{Position: 90 * time.Second, Duration: 180 * time.Second})
		assert.Equal(t, 60*time.Second, f.sess.Snapshot().Duration)
		assert.Equal(t, dropped+1, f.sess.DroppedTicks())

		release()
		require.NoError(t, <-done)
		snap := f.sess.Snapshot()
		assert.Equal(t, StatePlaying, snap.State)
		assert.Equal(t, 60*time.Second, snap.Duration)
		assert.Equal(t, time.Duration(0), snap.Position)
	})
}

func TestPlayTrack_SameTrackWhileLoading(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		release := f.catalog.Gate(1)
		defer release()

		done := make(chan error, 1)
		go func() { done <- f.sess.PlayQueue(context.Background(), testTracks(1, 2), 0) }()
		synctest.Wait()
		require.Equal(t, StateLoading, f.sess.State())

		require.NoError(t, f.sess.JumpTo(context.Background(), 0))

		release()
		require.NoError(t, <-done)
		assert.Equal(t, StatePlaying, f.sess.State())
		assert.Equal(t, []string{streamURL(1)}, f.backend.LoadCalls())
	})
}

func TestFinished_AdvancesQueue(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.PlayQueue(context.Background(), testTracks(1, 2, 3), 0))

	f.backend.SimulateFinished()

	assert.Equal(t, streamURL(2), f.backend.Loaded())
	assert.Equal(t, StatePlaying, f.sess.State())
	assert.Equal(t, 1, f.queue.CurrentIndex())
}

func TestFinished_RepeatOneRestarts(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.PlayQueue(context.Background(), testTracks(1, 2), 0))
	f.sess.SetRepeatMode(playlist.RepeatOne)

	f.backend.SimulateFinished()

	assert.Equal(t, []time.Duration{0}, f.backend.SeekCalls())
	assert.Len(t, f.backend.LoadCalls(), 1, "same track, no reload")
	assert.Equal(t, 2, f.backend.PlayCalls())
	assert.Equal(t, player.Playing, f.backend.State())
	assert.Equal(t, StatePlaying, f.sess.State())
	assert.Equal(t, 0, f.queue.CurrentIndex())
}

func TestFinished_EndOfQueue(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.PlayQueue(context.Background(), testTracks(1, 2), 1))

	f.backend.SimulateFinished()

	snap := f.sess.Snapshot()
	assert.Equal(t, StatePaused, snap.State)
	assert.False(t, snap.Playing)
	assert.Equal(t, snap.Duration, snap.Position, "last track left at its end")
	assert.Equal(t, streamURL(2), f.backend.Loaded())
	assert.Equal(t, 1, snap.Index)
}

func TestFinished_RepeatAllSingleTrackRestarts(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.PlayQueue(context.Background(), testTracks(1), 0))
	f.sess.SetRepeatMode(playlist.RepeatAll)

	f.backend.SimulateFinished()

	assert.Len(t, f.backend.LoadCalls(), 1)
	assert.Equal(t, []time.Duration{0}, f.backend.SeekCalls())
	assert.Equal(t, StatePlaying, f.sess.State())
}

func TestFinished_IgnoredWhenPaused(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.LoadTrack(context.Background(), testTracks(1)[0]))
	require.NoError(t, f.sess.OnBackendFinished(context.Background()))
	assert.Equal(t, StatePaused, f.sess.State())
}

func TestNavigation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.ErrorIs(t, f.sess.Next(ctx), ErrEmptyQueue)
	require.ErrorIs(t, f.sess.Previous(ctx), ErrEmptyQueue)

	require.NoError(t, f.sess.PlayQueue(ctx, testTracks(1, 2, 3), 0))
	require.NoError(t, f.sess.Next(ctx))
	assert.Equal(t, int64(2), f.sess.Track().ID)

	require.NoError(t, f.sess.JumpTo(ctx, 2))
	assert.Equal(t, int64(3), f.sess.Track().ID)
	require.ErrorIs(t, f.sess.JumpTo(ctx, 9), ErrInvalidIndex)
	assert.Equal(t, 2, f.queue.CurrentIndex())

	require.ErrorIs(t, f.sess.Next(ctx), ErrEndOfQueue)
	assert.Equal(t, 2, f.queue.CurrentIndex())

	require.NoError(t, f.sess.Previous(ctx))
	assert.Equal(t, int64(2), f.sess.Track().ID)
	assert.Equal(t, StatePlaying, f.sess.State())
}

func TestNext_RepeatOneRestartsCurrent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.PlayQueue(context.Background(), testTracks(1, 2, 3), 0))
	f.sess.SetRepeatMode(playlist.RepeatOne)
	require.NoError(t, f.sess.CommitSeek(30*time.Second))

	require.NoError(t, f.sess.Next(context.Background()))

	assert.Equal(t, int64(1), f.sess.Track().ID)
	assert.Equal(t, 0, f.queue.CurrentIndex())
	assert.Equal(t, time.Duration(0), f.sess.Snapshot().Position)
	assert.Equal(t, []time.Duration{30 * time.Second, 0}, f.backend.SeekCalls())
}

func TestVolumeAndMute(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.sess.SetVolume(1.5))
	assert.InDelta(t, 1.0, f.sess.Snapshot().Volume, 1e-9)

	require.NoError(t, f.sess.SetVolume(0.6))
	require.NoError(t, f.sess.SetMuted(true))
	assert.InDelta(t, 0.0, f.backend.Volume(), 1e-9)

	require.NoError(t, f.sess.SetVolume(0.3))
	assert.InDelta(t, 0.0, f.backend.Volume(), 1e-9, "muted backend stays silent")
	assert.InDelta(t, 0.3, f.sess.Snapshot().Volume, 1e-9)

	muted, err := f.sess.ToggleMute()
	require.NoError(t, err)
	assert.False(t, muted)
	assert.InDelta(t, 0.3, f.backend.Volume(), 1e-9, "unmute restores the saved level")

	require.NoError(t, f.sess.AdjustVolume(-0.5))
	assert.InDelta(t, 0.0, f.sess.Snapshot().Volume, 1e-9)
}

func TestLoadTrack_AppliesMute(t *testing.T) {
	f := newFixture(t, WithVolume(0.4, true))
	require.NoError(t, f.sess.LoadTrack(context.Background(), testTracks(1)[0]))
	assert.Equal(t, []float64{0}, f.backend.VolumeCalls())
	assert.InDelta(t, 0.4, f.sess.Snapshot().Volume, 1e-9)
}

func TestSeekDebounce_AtLeastTickInterval(t *testing.T) {
	f := newFixture(t, WithSeekDebounce(100*time.Millisecond), WithTickInterval(250*time.Millisecond))
	assert.Equal(t, 250*time.Millisecond, f.sess.SeekDebounce())

	f = newFixture(t)
	assert.Equal(t, DefaultSeekDebounce, f.sess.SeekDebounce())
}

func TestClearQueue_GoesIdle(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.PlayQueue(context.Background(), testTracks(1, 2), 0))

	f.sess.ClearQueue()

	snap := f.sess.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Track)
	assert.Equal(t, -1, snap.Index)
	assert.Equal(t, player.Paused, f.backend.State())
}

func TestShuffleKeepsCurrentTrack(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.PlayQueue(context.Background(), testTracks(1, 2, 3, 4, 5), 2))
	sub := f.sess.Subscribe()

	assert.True(t, f.sess.ToggleShuffle())
	assert.Equal(t, int64(3), f.queue.Current().ID)
	assert.Equal(t, int64(3), f.sess.Track().ID)

	m := <-sub.ModeChanged
	assert.True(t, m.Shuffle)
	q := <-sub.QueueChanged
	assert.Len(t, q.Tracks, 5)

	assert.Equal(t, playlist.RepeatAll, f.sess.CycleRepeatMode())
	m = <-sub.ModeChanged
	assert.Equal(t, playlist.RepeatAll, m.RepeatMode)
}

func TestSubscribe_LoadEvents(t *testing.T) {
	f := newFixture(t)
	sub := f.sess.Subscribe()

	require.NoError(t, f.sess.LoadTrack(context.Background(), testTracks(1)[0]))

	assert.Equal(t, StateChange{Previous: StateIdle, Current: StateLoading}, <-sub.StateChanged)
	tc := <-sub.TrackChanged
	assert.Nil(t, tc.Previous)
	require.NotNil(t, tc.Current)
	assert.Equal(t, int64(1), tc.Current.ID)
	assert.Equal(t, StateChange{Previous: StateLoading, Current: StatePaused}, <-sub.StateChanged)
}

func TestSubscribe_ErrorEvent(t *testing.T) {
	f := newFixture(t)
	sub := f.sess.Subscribe()
	f.catalog.SetStreamError(1, catalog.ErrNoStream)

	_ = f.sess.LoadTrack(context.Background(), testTracks(1)[0])

	ev := <-sub.Error
	assert.Equal(t, int64(1), ev.TrackID)
	require.ErrorIs(t, ev.Err, catalog.ErrNoStream)
	assert.NotEmpty(t, ev.Message)
}

func TestClose_Idempotent(t *testing.T) {
	f := newFixture(t)
	sub := f.sess.Subscribe()

	require.NoError(t, f.sess.Close())
	require.NoError(t, f.sess.Close())

	<-sub.Done
	<-f.sess.Subscribe().Done
	require.ErrorIs(t, f.sess.LoadTrack(context.Background(), testTracks(1)[0]), ErrClosed)
	assert.False(t, f.backend.Closed(), "the session does not own the backend")
}

func TestSession_ConcurrentUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sess.PlayQueue(ctx, testTracks(1, 2, 3, 4), 0))
	f.sess.SetRepeatMode(playlist.RepeatAll)

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Go(func() {
			for j := range 20 {
				switch (i + j) % 4 {
				case 0:
					_ = f.sess.Next(ctx)
				case 1:
					f.sess.OnBackendPositionTick(time.Duration(j) * time.Second)
				case 2:
					_ = f.sess.SetVolume(float64(j) / 20)
				case 3:
					_ = f.sess.Snapshot()
				}
			}
		})
	}
	wg.Wait()

	snap := f.sess.Snapshot()
	require.NotNil(t, snap.Track)
	assert.GreaterOrEqual(t, snap.Index, 0)
}
