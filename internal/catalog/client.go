// Package catalog provides the remote music catalog: track types, the HTTP
// client for search and stream resolution, request deduplication and paged
// search sessions.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL       = "https://dab.yeet.su/api"
	DefaultSearchTimeout = 30 * time.Second
	DefaultStreamTimeout = 15 * time.Second

	userAgent = "openspot/0.1 (https://github.com/llehouerou/openspot)"
)

// ErrNoStream is returned when the catalog has no playable stream for a track.
var ErrNoStream = errors.New("no stream URL received")

// StatusError reports a non-200 catalog response.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: API returned status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: API returned status %d: %s", e.Op, e.Code, e.Body)
}

// Service is the catalog contract consumed by the playback core.
type Service interface {
	Search(ctx context.Context, query string, offset int, kind SearchType) (*SearchResponse, error)
	StreamURL(ctx context.Context, trackID int64) (string, error)
}

// Verify Client implements Service at compile time.
var _ Service = (*Client)(nil)

// Client talks to the catalog HTTP API.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	limiter       *rate.Limiter
	searchTimeout time.Duration
	streamTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithTimeouts sets the per-request timeouts. Zero keeps the default.
func WithTimeouts(search, stream time.Duration) Option {
	return func(cl *Client) {
		if search > 0 {
			cl.searchTimeout = search
		}
		if stream > 0 {
			cl.streamTimeout = stream
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero or negative disables it.
func WithRateLimit(perSecond float64) Option {
	return func(cl *Client) {
		if perSecond <= 0 {
			cl.limiter = nil
			return
		}
		cl.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient creates a catalog client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		httpClient:    &http.Client{},
		searchTimeout: DefaultSearchTimeout,
		streamTimeout: DefaultStreamTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search fetches one page of results for query.
func (c *Client) Search(ctx context.Context, query string, offset int, kind SearchType) (*SearchResponse, error) {
	if kind == "" {
		kind = SearchTracks
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("offset", strconv.Itoa(offset))
	params.Set("type", string(kind))

	ctx, cancel := context.WithTimeout(ctx, c.searchTimeout)
	defer cancel()

	var result SearchResponse
	if err := c.get(ctx, "search", "/search?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StreamURL resolves the playable URL for a track.
func (c *Client) StreamURL(ctx context.Context, trackID int64) (string, error) {
	params := url.Values{}
	params.Set("trackId", strconv.FormatInt(trackID, 10))

	ctx, cancel := context.WithTimeout(ctx, c.streamTimeout)
	defer cancel()

	var result struct {
		URL string `json:"url"`
	}
	if err := c.get(ctx, "stream", "/stream?"+params.Encode(), &result); err != nil {
		return "", err
	}
	if result.URL == "" {
		return "", ErrNoStream
	}
	return result.URL, nil
}

func (c *Client) get(ctx context.Context, op, path string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: rate limit: %w", op, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: execute request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
