package cmd

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/llehouerou/openspot/internal/app"
	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/keymap"
	"github.com/llehouerou/openspot/internal/notify"
	"github.com/llehouerou/openspot/internal/stderr"
	"github.com/llehouerou/openspot/internal/ui/nowplaying"
)

var playCmd = &cobra.Command{
	Use:   "play [query]",
	Short: "Play search results, or resume the saved queue",
	Long: `Search the catalog and play the results in the terminal player.
Without a query the queue saved by the last session is resumed.

Keys:
` + keymap.Describe(keymap.Player),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().IntP("limit", "n", defaultLimit, "number of results to queue")
	playCmd.Flags().Bool("shuffle", false, "shuffle the queue")
}

func runPlay(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	shuffle, _ := cmd.Flags().GetBool("shuffle")

	a, done, err := openApp(true)
	if err != nil {
		return err
	}
	defer done()

	var tracks []catalog.Track
	if len(args) > 0 {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		tracks, err = a.Search(ctx, strings.Join(args, " "), limit)
		cancel()
		if err != nil {
			return err
		}
		if len(tracks) == 0 {
			return errors.New("no tracks found")
		}
	}
	return playTracks(cmd.Context(), a, tracks, shuffle)
}

// playTracks replaces the queue with tracks, or resumes the restored queue
// when tracks is empty, and runs the terminal player until it quits.
func playTracks(ctx context.Context, a *app.App, tracks []catalog.Track, shuffle bool) error {
	restore, err := stderr.Capture(a.Log)
	if err != nil {
		a.Log.Warn("stderr capture unavailable", "err", err)
	}
	defer restore()

	if err := a.StartMPRIS(); err != nil {
		a.Log.Warn("media keys unavailable", "err", err)
	}
	a.StartNotifications(notify.New("openspot"))

	start := func(ctx context.Context) error {
		if len(tracks) > 0 {
			first := 0
			if shuffle {
				first = rand.IntN(len(tracks))
			}
			if err := a.Session.PlayQueue(ctx, tracks, first); err != nil {
				return err
			}
			a.Session.SetShuffle(shuffle)
			return nil
		}
		if shuffle {
			a.Session.SetShuffle(true)
		}
		if a.Session.QueueSnapshot().CurrentIndex < 0 {
			return nil
		}
		if err := a.Session.LoadCurrent(ctx); err != nil {
			return err
		}
		return a.Session.Play()
	}

	model := nowplaying.New(a.Session,
		nowplaying.WithDownloads(a.Downloads),
		nowplaying.WithLikes(a.Liked),
		nowplaying.WithLogger(a.Log),
	)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		if err := start(ctx); err != nil {
			a.Log.Warn("start playback", "err", err)
		}
	}()

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
