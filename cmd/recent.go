package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently played tracks, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRecent,
}

var recentPlayCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the recently played tracks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		shuffle, _ := cmd.Flags().GetBool("shuffle")
		a, done, err := openApp(true)
		if err != nil {
			return err
		}
		defer done()
		tracks := a.Recent.List(0)
		if len(tracks) == 0 {
			return fmt.Errorf("nothing played yet")
		}
		return playTracks(cmd.Context(), a, tracks, shuffle)
	},
}

var recentClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the play history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, done, err := openApp(false)
		if err != nil {
			return err
		}
		defer done()
		return a.Recent.Clear()
	},
}

func init() {
	rootCmd.AddCommand(recentCmd)
	recentCmd.AddCommand(recentPlayCmd, recentClearCmd)
	recentCmd.Flags().IntP("limit", "n", 0, "only show the most recent tracks")
	recentPlayCmd.Flags().Bool("shuffle", false, "shuffle the queue")
}

func runRecent(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	a, done, err := openApp(false)
	if err != nil {
		return err
	}
	defer done()

	tracks := a.Recent.List(limit)
	if len(tracks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing played yet.")
		return nil
	}
	liked := make([]bool, len(tracks))
	for i, t := range tracks {
		liked[i] = a.Liked.IsLiked(t.ID)
	}
	fmt.Fprintln(cmd.OutOrStdout(), trackTable(tracks, liked))
	return nil
}
