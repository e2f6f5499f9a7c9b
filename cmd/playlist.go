package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var playlistCmd = &cobra.Command{
	Use:     "playlist",
	Aliases: []string{"pl"},
	Short:   "Manage playlists",
	Args:    cobra.NoArgs,
	RunE:    runPlaylistList,
}

var playlistCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, done, err := openApp(false)
		if err != nil {
			return err
		}
		defer done()
		p, err := a.Playlists.Create(args[0], "")
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %q\n", p.Name)
		return nil
	},
}

var playlistAddCmd = &cobra.Command{
	Use:   "add <name> <query>",
	Short: "Add the first matching track to a playlist",
	Args: func(cmd *cobra.Command, args []string) error {
		if id, _ := cmd.Flags().GetInt64("id"); id > 0 {
			return cobra.MinimumNArgs(1)(cmd, args)
		}
		return cobra.MinimumNArgs(2)(cmd, args)
	},
	RunE: runPlaylistAdd,
}

var playlistRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, done, err := openApp(false)
		if err != nil {
			return err
		}
		defer done()
		if err := a.Playlists.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", args[0])
		return nil
	},
}

var playlistShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "List the tracks of a playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, done, err := openApp(false)
		if err != nil {
			return err
		}
		defer done()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		tracks, err := a.Playlists.Resolve(ctx, args[0], a.Catalog, a.Log)
		if err != nil {
			return err
		}
		if len(tracks) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Playlist is empty.")
			return nil
		}
		liked := make([]bool, len(tracks))
		for i, t := range tracks {
			liked[i] = a.Liked.IsLiked(t.ID)
		}
		fmt.Fprintln(cmd.OutOrStdout(), trackTable(tracks, liked))
		return nil
	},
}

var playlistPlayCmd = &cobra.Command{
	Use:   "play <name>",
	Short: "Play a playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		shuffle, _ := cmd.Flags().GetBool("shuffle")
		a, done, err := openApp(true)
		if err != nil {
			return err
		}
		defer done()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		tracks, err := a.Playlists.Resolve(ctx, args[0], a.Catalog, a.Log)
		cancel()
		if err != nil {
			return err
		}
		if len(tracks) == 0 {
			return fmt.Errorf("playlist %q has no playable tracks", args[0])
		}
		return playTracks(cmd.Context(), a, tracks, shuffle)
	},
}

func init() {
	rootCmd.AddCommand(playlistCmd)
	playlistCmd.AddCommand(playlistCreateCmd, playlistAddCmd, playlistRmCmd, playlistShowCmd, playlistPlayCmd)
	playlistAddCmd.Flags().Int64("id", 0, "add the track with this catalog id")
	playlistPlayCmd.Flags().Bool("shuffle", false, "shuffle the queue")
}

func runPlaylistList(cmd *cobra.Command, _ []string) error {
	a, done, err := openApp(false)
	if err != nil {
		return err
	}
	defer done()

	lists := a.Playlists.List()
	out := cmd.OutOrStdout()
	if len(lists) == 0 {
		fmt.Fprintln(out, "No playlists.")
		return nil
	}
	for _, p := range lists {
		fmt.Fprintf(out, "%s (%d)\n", p.Name, len(p.TrackIDs))
	}
	return nil
}

func runPlaylistAdd(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetInt64("id")

	a, done, err := openApp(false)
	if err != nil {
		return err
	}
	defer done()

	if _, err := a.Playlists.Get(args[0]); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()
	track, err := firstMatch(ctx, a, strings.Join(args[1:], " "), id)
	if err != nil {
		return err
	}
	if err := a.Playlists.AddTrack(track, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s - %s to %q\n", track.Artist, track.Title, args[0])
	return nil
}
