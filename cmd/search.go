package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/llehouerou/openspot/internal/app"
	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/icons"
	"github.com/llehouerou/openspot/internal/ui/render"
	"github.com/llehouerou/openspot/internal/ui/styles"
)

const defaultLimit = 20

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalog for tracks",
	Long: `Search the catalog for tracks. Without a query, popular tracks are listed,
or recommended ones with --recommended.`,
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntP("limit", "n", defaultLimit, "maximum number of results")
	searchCmd.Flags().Bool("recommended", false, "list recommended tracks when no query is given")
}

func runSearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	a, done, err := openApp(false)
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()
	var tracks []catalog.Track
	switch recommended, _ := cmd.Flags().GetBool("recommended"); {
	case len(args) > 0:
		if tracks, err = a.Search(ctx, strings.Join(args, " "), limit); err != nil {
			return err
		}
	case recommended:
		tracks = catalog.Recommended(ctx, a.Catalog)
	default:
		tracks = catalog.Popular(ctx, a.Catalog)
	}
	if len(tracks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tracks found.")
		return nil
	}

	liked := make([]bool, len(tracks))
	for i, t := range tracks {
		liked[i] = a.Liked.IsLiked(t.ID)
	}
	fmt.Fprintln(cmd.OutOrStdout(), trackTable(tracks, liked))
	return nil
}

// trackTable renders tracks as an aligned table, marking liked ones.
func trackTable(tracks []catalog.Track, liked []bool) string {
	st := styles.T().S()
	rows := make([][]string, len(tracks))
	for i, t := range tracks {
		mark := ""
		if i < len(liked) && liked[i] {
			mark = icons.Get().Liked
		}
		quality := ""
		if t.IsHighQuality() {
			quality = "hi-res"
		}
		rows[i] = []string{
			strconv.FormatInt(t.ID, 10),
			render.Truncate(t.Title, 40),
			render.Truncate(t.Artist, 30),
			render.Clock(t.Duration()),
			quality,
			mark,
		}
	}
	return table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("ID", "TITLE", "ARTIST", "TIME", "", "").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.Muted.Bold(true).PaddingRight(2)
			}
			return st.Base.PaddingRight(2)
		}).
		String()
}

// firstMatch returns the track with the given id, or the first search hit
// for query.
func firstMatch(ctx context.Context, a *app.App, query string, id int64) (catalog.Track, error) {
	if id > 0 {
		query = strconv.FormatInt(id, 10)
	}
	tracks, err := a.Search(ctx, query, defaultLimit)
	if err != nil {
		return catalog.Track{}, err
	}
	for _, t := range tracks {
		if id <= 0 || t.ID == id {
			return t, nil
		}
	}
	return catalog.Track{}, fmt.Errorf("no track matches %q", query)
}
