package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/openspot/internal/downloads"
)

var downloadCmd = &cobra.Command{
	Use:   "download <query>",
	Short: "Download the first matching track for offline playback",
	Args: func(cmd *cobra.Command, args []string) error {
		if id, _ := cmd.Flags().GetInt64("id"); id > 0 {
			return nil
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().Int64("id", 0, "download the track with this catalog id")
}

func runDownload(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetInt64("id")

	a, done, err := openApp(false)
	if err != nil {
		return err
	}
	defer done()

	ctx := cmd.Context()
	lookupCtx, cancel := context.WithTimeout(ctx, time.Minute)
	track, err := firstMatch(lookupCtx, a, strings.Join(args, " "), id)
	cancel()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if a.Downloads.Status(track.ID) == downloads.StatusSuccess {
		if path, ok := a.Downloads.LocalPath(track.ID); ok {
			fmt.Fprintf(out, "Already downloaded: %s\n", path)
			return nil
		}
	}

	fmt.Fprintf(out, "Downloading %s - %s\n", track.Artist, track.Title)
	updates := a.Downloads.Subscribe()
	job := a.Downloads.RequestDownload(ctx, track)

	waitCtx, stop := context.WithCancel(ctx)
	defer stop()
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		last := -1
		for {
			select {
			case st, ok := <-updates:
				if !ok {
					return
				}
				if st.TrackID != track.ID || st.Status != downloads.StatusDownloading || st.Progress == last {
					continue
				}
				last = st.Progress
				fmt.Fprintf(out, "\r%3d%%  %s", st.Progress, transferred(st))
			case <-waitCtx.Done():
				return
			}
		}
	}()

	st, err := job.Wait(ctx)
	stop()
	<-printed
	fmt.Fprintln(out)
	if err != nil {
		a.Downloads.Cancel(track.ID)
		return err
	}
	if st.Status == downloads.StatusError {
		return fmt.Errorf("download failed: %s", st.Err)
	}
	fmt.Fprintf(out, "Saved %s (%s)\n", st.Destination, humanize.IBytes(uint64(st.BytesWritten))) //nolint:gosec // byte counts are non-negative
	return nil
}

func transferred(st downloads.JobState) string {
	if st.BytesExpected <= 0 {
		return humanize.IBytes(uint64(st.BytesWritten)) //nolint:gosec // byte counts are non-negative
	}
	return humanize.IBytes(uint64(st.BytesWritten)) + " / " + humanize.IBytes(uint64(st.BytesExpected)) //nolint:gosec // byte counts are non-negative
}
