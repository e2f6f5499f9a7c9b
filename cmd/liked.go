package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llehouerou/openspot/internal/catalog"
)

var likedCmd = &cobra.Command{
	Use:   "liked",
	Short: "List liked songs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runLiked,
}

var likedPlayCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the liked songs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		shuffle, _ := cmd.Flags().GetBool("shuffle")
		a, done, err := openApp(true)
		if err != nil {
			return err
		}
		defer done()
		tracks := a.Liked.Tracks()
		if len(tracks) == 0 {
			return fmt.Errorf("no liked songs")
		}
		return playTracks(cmd.Context(), a, tracks, shuffle)
	},
}

func init() {
	rootCmd.AddCommand(likedCmd)
	likedCmd.AddCommand(likedPlayCmd)
	likedCmd.Flags().IntP("recent", "r", 0, "only show the most recent songs")
	likedPlayCmd.Flags().Bool("shuffle", false, "shuffle the queue")
}

func runLiked(cmd *cobra.Command, _ []string) error {
	recent, _ := cmd.Flags().GetInt("recent")

	a, done, err := openApp(false)
	if err != nil {
		return err
	}
	defer done()

	songs := a.Liked.List()
	if cmd.Flags().Changed("recent") {
		songs = a.Liked.Recent(recent)
	}
	if len(songs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No liked songs.")
		return nil
	}

	tracks := make([]catalog.Track, len(songs))
	liked := make([]bool, len(songs))
	for i, s := range songs {
		tracks[i] = s.Track()
		liked[i] = true
	}
	fmt.Fprintln(cmd.OutOrStdout(), trackTable(tracks, liked))
	return nil
}
