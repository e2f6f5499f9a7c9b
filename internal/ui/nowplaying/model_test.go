package nowplaying

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/downloads"
	"github.com/llehouerou/openspot/internal/playback"
	"github.com/llehouerou/openspot/internal/player"
	"github.com/llehouerou/openspot/internal/playlist"
	"github.com/llehouerou/openspot/internal/playlists"
	"github.com/llehouerou/openspot/internal/ui/testutil"
	"github.com/llehouerou/openspot/internal/state"
)

type writeTransfer struct{}

func (writeTransfer) Transfer(_ context.Context, _, dest string, progress downloads.ProgressFunc) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	progress(4, 4)
	return os.WriteFile(dest, []byte("data"), 0o600)
}

type fixture struct {
	backend *player.Mock
	sess    *playback.Session
	liked   *playlists.LikedSongs
	mgr     *downloads.Manager
	model   Model
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{backend: player.NewMock()}
	cat := catalog.NewMock()
	f.sess = playback.New(f.backend, playlist.NewQueue(), cat)
	t.Cleanup(func() { _ = f.sess.Close() })

	store := state.NewMock()
	var err error
	f.liked, err = playlists.NewLikedSongs(store)
	require.NoError(t, err)

	f.mgr = downloads.New(t.TempDir(), cat, store,
		downloads.WithTransferer(writeTransfer{}),
		downloads.WithThumbnailer(nil),
	)
	t.Cleanup(func() { _ = f.mgr.Close() })

	f.model = New(f.sess, WithLikes(f.liked), WithDownloads(f.mgr))
	f.model = f.update(t, tea.WindowSizeMsg{Width: 80, Height: 20})
	return f
}

func (f *fixture) update(t *testing.T, msg tea.Msg) Model {
	t.Helper()
	next, _ := f.model.Update(msg)
	return next.(Model)
}

// press sends a key and drops the command it returns.
func (f *fixture) press(t *testing.T, key tea.KeyMsg) {
	t.Helper()
	f.model = f.update(t, key)
}

// do sends a key, runs the session action it starts and feeds the result
// back into the model.
func (f *fixture) do(t *testing.T, key tea.KeyMsg) {
	t.Helper()
	next, cmd := f.model.Update(key)
	f.model = next.(Model)
	require.NotNil(t, cmd)
	res, ok := cmd().(actionResultMsg)
	require.True(t, ok)
	f.model = f.update(t, res)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func tracks() []catalog.Track {
	return []catalog.Track{
		{ID: 1, Title: "First", Artist: "Band", DurationSec: 200},
		{ID: 2, Title: "Second", Artist: "Band", DurationSec: 150},
	}
}

func TestView_EmptyQueue(t *testing.T) {
	f := newFixture(t)
	out := testutil.Plain(f.model.View())
	assert.Contains(t, out, "Queue is empty")
	assert.Contains(t, out, "space play/pause")
}

func TestView_QueueAndPlayer(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.PlayQueue(context.Background(), tracks(), 0))

	out := testutil.Plain(f.model.View())
	assert.Contains(t, out, "▶ Band - First")
	assert.Contains(t, out, "Band - Second")
	assert.Contains(t, out, "1/2")
	assert.Contains(t, out, "0:00 / 3:20")
	assert.Len(t, splitLines(out), 20)
}

func TestKeys_ToggleAndNext(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.PlayQueue(context.Background(), tracks(), 0))

	f.do(t, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, playback.StatePaused, f.sess.State())

	f.do(t, runes("n"))
	require.NotNil(t, f.sess.Track())
	assert.Equal(t, int64(2), f.sess.Track().ID)

	f.do(t, runes("n"))
	assert.Contains(t, f.model.notice, "next")
}

func TestKeys_SeekPreviewCommitsWhenSettled(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.PlayQueue(context.Background(), tracks(), 0))

	f.press(t, tea.KeyMsg{Type: tea.KeyRight})
	f.press(t, tea.KeyMsg{Type: tea.KeyRight})
	snap := f.sess.Snapshot()
	assert.True(t, snap.Seeking)
	assert.Equal(t, 10*time.Second, snap.SeekPreview)
	assert.Empty(t, f.backend.SeekCalls(), "nothing sent while the key repeats")

	f.model = f.update(t, seekSettledMsg{version: f.model.seekVersion - 1})
	assert.True(t, f.sess.Snapshot().Seeking, "stale settle is ignored")

	next, cmd := f.model.Update(seekSettledMsg{version: f.model.seekVersion})
	f.model = next.(Model)
	require.NotNil(t, cmd)
	res := cmd().(actionResultMsg)
	require.NoError(t, res.err)
	assert.Equal(t, []time.Duration{10 * time.Second}, f.backend.SeekCalls())
	assert.False(t, f.sess.Snapshot().Seeking)
}

func TestKeys_EscCancelsSeek(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.PlayQueue(context.Background(), tracks(), 0))

	f.press(t, tea.KeyMsg{Type: tea.KeyLeft})
	f.press(t, tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, f.sess.Snapshot().Seeking)
	assert.Empty(t, f.backend.SeekCalls())
}

func TestKeys_LikeShowsNoticeAndMarker(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.PlayQueue(context.Background(), tracks(), 0))

	f.press(t, runes("l"))
	assert.True(t, f.liked.IsLiked(1))
	assert.Equal(t, "Added to liked songs", f.model.notice)
	assert.Contains(t, testutil.Plain(f.model.View()), "♥")

	f.model = f.update(t, noticeExpiredMsg(f.model.noticeID))
	assert.Empty(t, f.model.notice)

	f.press(t, runes("l"))
	assert.False(t, f.liked.IsLiked(1))
}

func TestKeys_DownloadProgressAndBanner(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.PlayQueue(context.Background(), tracks(), 0))

	f.press(t, runes("d"))
	job := f.mgr.Job(1)
	require.NotNil(t, job)
	st, err := job.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, downloads.StatusSuccess, st.Status)

	f.model = f.update(t, jobMsg(st))
	out := testutil.Plain(f.model.View())
	assert.Contains(t, out, "Downloaded")
	assert.Contains(t, out, "Saved for offline playback")
}

func TestUpdate_ErrorEventBecomesNotice(t *testing.T) {
	f := newFixture(t)
	f.model = f.update(t, sessionEventMsg{playback.ErrorEvent{Message: "Failed to load track: boom"}})
	assert.Equal(t, "Failed to load track: boom", f.model.notice)
	assert.Contains(t, testutil.Plain(f.model.View()), "Failed to load track: boom")
}

func TestUpdate_SessionClosedQuits(t *testing.T) {
	f := newFixture(t)
	next, cmd := f.model.Update(sessionClosedMsg{})
	require.NotNil(t, cmd)
	assert.Empty(t, next.(Model).View())
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := range len(s) {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}
