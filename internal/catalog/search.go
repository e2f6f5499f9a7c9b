package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrSuperseded is returned when a search result arrives after a newer query
// replaced the one it was issued for. The result is discarded.
var ErrSuperseded = errors.New("search superseded by a newer query")

const featuredLimit = 10

// SearchState is a snapshot of a search session.
type SearchState struct {
	Query   string
	Results []Track
	HasMore bool
	Loading bool
	Err     error
}

// SearchSession accumulates paged results for the current query.
// Results of a query that has since been replaced never reach the session.
type SearchSession struct {
	svc  Service
	kind SearchType

	mu      sync.Mutex
	gen     uint64
	query   string
	results []Track
	hasMore bool
	offset  int
	loading bool
	err     error
}

// NewSearchSession creates a track search session over svc.
func NewSearchSession(svc Service) *SearchSession {
	return &SearchSession{svc: svc, kind: SearchTracks}
}

// Search replaces the current query and fetches its first page.
// A blank query clears the results without a request.
func (s *SearchSession) Search(ctx context.Context, query string) error {
	trimmed := strings.TrimSpace(query)

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.query = trimmed
	s.results = nil
	s.hasMore = false
	s.offset = 0
	s.err = nil
	s.loading = trimmed != ""
	s.mu.Unlock()

	if trimmed == "" {
		return nil
	}

	resp, err := s.svc.Search(ctx, trimmed, 0, s.kind)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return ErrSuperseded
	}
	s.loading = false
	if err != nil {
		s.err = err
		return err
	}
	s.results = append([]Track(nil), resp.Tracks...)
	s.hasMore = resp.Pagination.HasMore
	s.offset = len(resp.Tracks)
	return nil
}

// LoadMore appends the next page. It is a no-op while a page is loading or
// when the catalog reported no further results.
func (s *SearchSession) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.query == "" || s.loading || !s.hasMore {
		s.mu.Unlock()
		return nil
	}
	gen := s.gen
	query, offset := s.query, s.offset
	s.loading = true
	s.mu.Unlock()

	resp, err := s.svc.Search(ctx, query, offset, s.kind)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return ErrSuperseded
	}
	s.loading = false
	if err != nil {
		s.err = err
		return err
	}
	s.results = append(s.results, resp.Tracks...)
	s.hasMore = resp.Pagination.HasMore
	s.offset += len(resp.Tracks)
	return nil
}

// Clear drops the query and any results.
func (s *SearchSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.query = ""
	s.results = nil
	s.hasMore = false
	s.offset = 0
	s.loading = false
	s.err = nil
}

// State returns a copy of the session state.
func (s *SearchSession) State() SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SearchState{
		Query:   s.query,
		Results: append([]Track(nil), s.results...),
		HasMore: s.hasMore,
		Loading: s.loading,
		Err:     s.err,
	}
}

// Popular returns up to ten popular tracks, or nil if the catalog fails.
func Popular(ctx context.Context, svc Service) []Track {
	return featured(ctx, svc, "popular")
}

// Recommended returns up to ten recommended tracks, or nil if the catalog fails.
func Recommended(ctx context.Context, svc Service) []Track {
	return featured(ctx, svc, "recommended")
}

func featured(ctx context.Context, svc Service, query string) []Track {
	resp, err := svc.Search(ctx, query, 0, SearchTracks)
	if err != nil || resp == nil {
		return nil
	}
	if len(resp.Tracks) > featuredLimit {
		return resp.Tracks[:featuredLimit]
	}
	return resp.Tracks
}
