package catalog

import (
	"context"
	"fmt"
	"sync"
)

// Mock is a test double for Service.
type Mock struct {
	mu          sync.Mutex
	streamURLs  map[int64]string
	streamErr   map[int64]error
	gates       map[int64]chan struct{}
	pages       map[string]*SearchResponse
	pageErrs    map[string]error
	searchErr   error
	streamCalls []int64
	searchCalls []string
}

// NewMock creates a catalog mock where every track resolves to
// "https://stream.test/<id>.mp3" unless overridden.
func NewMock() *Mock {
	return &Mock{
		streamURLs: make(map[int64]string),
		streamErr:  make(map[int64]error),
		gates:      make(map[int64]chan struct{}),
		pages:      make(map[string]*SearchResponse),
		pageErrs:   make(map[string]error),
	}
}

func (m *Mock) Search(ctx context.Context, query string, offset int, kind SearchType) (*SearchResponse, error) {
	m.mu.Lock()
	m.searchCalls = append(m.searchCalls, fmt.Sprintf("%s@%d", query, offset))
	err := m.searchErr
	if err == nil {
		err = m.pageErrs[pageKey(query, offset)]
	}
	page, ok := m.pages[pageKey(query, offset)]
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return &SearchResponse{Pagination: Pagination{Offset: offset}}, nil
	}
	return page, nil
}

func (m *Mock) StreamURL(ctx context.Context, trackID int64) (string, error) {
	m.mu.Lock()
	m.streamCalls = append(m.streamCalls, trackID)
	gate := m.gates[trackID]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.streamErr[trackID]; err != nil {
		return "", err
	}
	if u, ok := m.streamURLs[trackID]; ok {
		return u, nil
	}
	return fmt.Sprintf("https://stream.test/%d.mp3", trackID), nil
}

// Test helpers

// SetStreamURL overrides the URL returned for trackID.
func (m *Mock) SetStreamURL(trackID int64, u string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamURLs[trackID] = u
}

// SetStreamError makes StreamURL fail for trackID. A nil err clears it.
func (m *Mock) SetStreamError(trackID int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.streamErr, trackID)
		return
	}
	m.streamErr[trackID] = err
}

// Gate blocks StreamURL for trackID until the returned func is called.
func (m *Mock) Gate(trackID int64) (release func()) {
	ch := make(chan struct{})
	m.mu.Lock()
	m.gates[trackID] = ch
	m.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.gates, trackID)
			m.mu.Unlock()
			close(ch)
		})
	}
}

// SetPage registers the response for a search page.
func (m *Mock) SetPage(query string, offset int, resp *SearchResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[pageKey(query, offset)] = resp
}

// SetPageError makes the search for one page fail.
func (m *Mock) SetPageError(query string, offset int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageErrs[pageKey(query, offset)] = err
}

// SetSearchError makes every Search fail.
func (m *Mock) SetSearchError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchErr = err
}

// StreamCalls returns the track ids passed to StreamURL, in order.
func (m *Mock) StreamCalls() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.streamCalls...)
}

// SearchCalls returns "query@offset" for each Search call, in order.
func (m *Mock) SearchCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.searchCalls...)
}

func pageKey(query string, offset int) string {
	return fmt.Sprintf("%s\x00%d", query, offset)
}

// Verify Mock implements Service at compile time.
var _ Service = (*Mock)(nil)
