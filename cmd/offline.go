package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/openspot/internal/ui/render"
	"github.com/llehouerou/openspot/internal/ui/styles"
)

var offlineCmd = &cobra.Command{
	Use:   "offline",
	Short: "List tracks downloaded for offline playback",
	Args:  cobra.NoArgs,
	RunE:  runOffline,
}

var offlineRmCmd = &cobra.Command{
	Use:   "rm <track-id>...",
	Short: "Delete downloaded tracks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runOfflineRm,
}

func init() {
	rootCmd.AddCommand(offlineCmd)
	offlineCmd.AddCommand(offlineRmCmd)
}

func runOffline(cmd *cobra.Command, _ []string) error {
	a, done, err := openApp(false)
	if err != nil {
		return err
	}
	defer done()

	records, err := a.Downloads.Offline()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No offline tracks.")
		return nil
	}

	var total uint64
	rows := make([][]string, len(records))
	for i, r := range records {
		total += uint64(r.Size) //nolint:gosec // sizes are non-negative
		rows[i] = []string{
			strconv.FormatInt(r.TrackID, 10),
			render.Truncate(r.Track.Title, 40),
			render.Truncate(r.Track.Artist, 30),
			humanize.IBytes(uint64(r.Size)), //nolint:gosec // sizes are non-negative
			humanize.Time(r.DownloadedAt),
		}
	}

	st := styles.T().S()
	fmt.Fprintln(out, table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("ID", "TITLE", "ARTIST", "SIZE", "SAVED").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.Muted.Bold(true).PaddingRight(2)
			}
			return st.Base.PaddingRight(2)
		}).
		String())
	fmt.Fprintf(out, "%d tracks, %s in %s\n", len(records), humanize.IBytes(total), a.Downloads.Dir())
	return nil
}

func runOfflineRm(cmd *cobra.Command, args []string) error {
	ids := make([]int64, len(args))
	for i, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid track id %q", arg)
		}
		ids[i] = id
	}

	a, done, err := openApp(false)
	if err != nil {
		return err
	}
	defer done()

	for _, id := range ids {
		if err := a.Downloads.Remove(id); err != nil {
			return fmt.Errorf("remove %d: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d\n", id)
	}
	return nil
}
