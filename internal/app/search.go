package app

import (
	"context"
	"fmt"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/errmsg"
)

// Search returns up to limit tracks matching query, following result pages
// as needed. limit <= 0 returns the first page.
func (a *App) Search(ctx context.Context, query string, limit int) ([]catalog.Track, error) {
	s := catalog.NewSearchSession(a.Catalog)
	if err := s.Search(ctx, query); err != nil {
		return nil, fmt.Errorf("%s: %w", errmsg.OpSearch, err)
	}
	for {
		st := s.State()
		if limit <= 0 {
			return st.Results, nil
		}
		if len(st.Results) >= limit || !st.HasMore {
			return st.Results[:min(limit, len(st.Results))], nil
		}
		if err := s.LoadMore(ctx); err != nil {
			a.Log.Warn(errmsg.Format(errmsg.OpLoadMore, err), "query", query, "have", len(st.Results))
			return nil, fmt.Errorf("%s: %w", errmsg.OpLoadMore, err)
		}
	}
}
