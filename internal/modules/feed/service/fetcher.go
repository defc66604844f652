package service

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/domain"
	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/parser"
	"github.com/samber/oops"
	"golang.org/x/sync/singleflight"
)

const (
	defaultFetchTimeout = 10 * time.Second
	maxFeedBytes        = 5 * 1024 * 1024
)

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetcherOption configures the Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient = httpClient
	}
}

// WithTimeout overrides the fetch timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// Fetcher downloads feed bytes and hands them to the normalizer. Concurrent
// fetches of the same URL collapse into a single request.
type Fetcher struct {
	httpClient HTTPClient
	timeout    time.Duration
	group      singleflight.Group
}

// NewFetcher creates a feed fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{Timeout: defaultFetchTimeout},
		timeout:    defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads and normalizes the feed at a validated feed URL.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (*domain.Feed, error) {
	result, err, _ := f.group.Do(feedURL, func() (any, error) {
		return f.fetch(ctx, feedURL)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Feed), nil
}

func (f *Fetcher) fetch(ctx context.Context, feedURL string) (*domain.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, oops.With("url", feedURL).Wrap(err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, oops.With("url", feedURL, "context", "feed fetch failed").Wrap(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, oops.With("url", feedURL).Errorf("feed fetch returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, oops.With("url", feedURL, "context", "failed to read feed body").Wrap(err)
	}

	feed, err := parser.Parse(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	if feed.SourceURL == "" {
		feed.SourceURL = feedURL
	}
	return feed, nil
}
