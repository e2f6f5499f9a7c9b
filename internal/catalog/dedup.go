package catalog

import (
	"context"

	"github.com/llehouerou/openspot/internal/dedup"
)

// Deduplicated wraps a Service so that concurrent identical requests share
// one in-flight call. Searches and stream lookups use separate groups so a
// slow search can never be confused with a stream lookup for the same id.
type Deduplicated struct {
	inner   Service
	search  dedup.Group[*SearchResponse]
	streams dedup.Group[string]
}

// Verify Deduplicated implements Service at compile time.
var _ Service = (*Deduplicated)(nil)

// NewDeduplicated wraps inner.
func NewDeduplicated(inner Service) *Deduplicated {
	return &Deduplicated{inner: inner}
}

// Search shares one request across concurrent callers of the same page.
func (d *Deduplicated) Search(ctx context.Context, query string, offset int, kind SearchType) (*SearchResponse, error) {
	if kind == "" {
		kind = SearchTracks
	}
	key := dedup.SearchKey(query, offset, string(kind))
	resp, _, err := d.search.Do(ctx, key, func(ctx context.Context) (*SearchResponse, error) {
		return d.inner.Search(ctx, query, offset, kind)
	})
	return resp, err
}

// StreamURL shares one resolution across concurrent callers for a track.
func (d *Deduplicated) StreamURL(ctx context.Context, trackID int64) (string, error) {
	u, _, err := d.streams.Do(ctx, dedup.StreamKey(trackID), func(ctx context.Context) (string, error) {
		return d.inner.StreamURL(ctx, trackID)
	})
	return u, err
}

// PendingSearches returns the number of searches in flight.
func (d *Deduplicated) PendingSearches() int { return d.search.Pending() }

// PendingStreams returns the number of stream lookups in flight.
func (d *Deduplicated) PendingStreams() int { return d.streams.Pending() }

// ForgetStream drops the pending stream lookup for trackID.
func (d *Deduplicated) ForgetStream(trackID int64) {
	d.streams.Forget(dedup.StreamKey(trackID))
}

// ForgetSearch drops the pending search for the given page.
func (d *Deduplicated) ForgetSearch(query string, offset int, kind SearchType) {
	if kind == "" {
		kind = SearchTracks
	}
	d.search.Forget(dedup.SearchKey(query, offset, string(kind)))
}
