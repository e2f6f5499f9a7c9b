package playlists

import (
	"context"
	"errors"
	"strconv"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/logging"
)

var errTrackNotFound = errors.New("track not found in catalog")

// resolveConcurrency bounds parallel catalog lookups in Resolve.
const resolveConcurrency = 4

// Searcher is the catalog lookup Resolve needs.
type Searcher interface {
	Search(ctx context.Context, query string, offset int, kind catalog.SearchType) (*catalog.SearchResponse, error)
}

// Resolve fetches the tracks of the named playlist from the catalog, in
// playlist order. Ids the catalog cannot find are skipped.
func (p *Playlists) Resolve(ctx context.Context, name string, svc Searcher, logger *log.Logger) ([]catalog.Track, error) {
	ids, err := p.TrackIDs(name)
	if err != nil {
		return nil, err
	}
	logger = logging.OrDiscard(logger).With("playlist", name)

	found := make([]*catalog.Track, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			t, err := lookup(ctx, svc, id, logger)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("skip playlist track", "id", id, "err", err)
				return nil
			}
			found[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tracks := make([]catalog.Track, 0, len(ids))
	for _, t := range found {
		if t != nil {
			tracks = append(tracks, *t)
		}
	}
	return tracks, nil
}

// lookup searches the catalog for id and returns the matching track. With no
// exact match the first result stands in for it.
func lookup(ctx context.Context, svc Searcher, id int64, logger *log.Logger) (*catalog.Track, error) {
	resp, err := svc.Search(ctx, strconv.FormatInt(id, 10), 0, catalog.SearchTracks)
	if err != nil {
		return nil, err
	}
	for i := range resp.Tracks {
		if resp.Tracks[i].ID == id {
			return &resp.Tracks[i], nil
		}
	}
	if len(resp.Tracks) > 0 {
		logger.Warn("no exact match for playlist track, using first result",
			"id", id, "using", resp.Tracks[0].ID, "title", resp.Tracks[0].Title)
		return &resp.Tracks[0], nil
	}
	return nil, errTrackNotFound
}
