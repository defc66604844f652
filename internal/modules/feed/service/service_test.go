package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/discovery"
	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/domain"
	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/video"
	sharederrors "github.com/reshetovitsme/nostr-feed-reader/internal/shared/errors"
)

const serviceSampleRSS = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Example Blog</title>
    <link>https://example.com</link>
    <description>Posts</description>
    <item>
      <title>First Post</title>
      <link>https://example.com/first</link>
      <guid>post-1</guid>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    </item>
  </channel>
</rss>`

func newTestService(t *testing.T, handler http.Handler) (*Service, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	locator := discovery.NewLocator(discovery.WithHTTPClient(server.Client()))
	fetcher := NewFetcher(WithHTTPClient(server.Client()))
	channels := video.NewChannelResolver(video.WithHTTPClient(server.Client()))
	return New(locator, fetcher, channels), server
}

func TestPreview(t *testing.T) {
	svc, server := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(serviceSampleRSS))
	}))

	feed, err := svc.Preview(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if feed.Title != "Example Blog" {
		t.Errorf("Title = %q, want %q", feed.Title, "Example Blog")
	}
	if len(feed.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(feed.Items))
	}
	if feed.Items[0].URL != "https://example.com/first" {
		t.Errorf("item URL = %q", feed.Items[0].URL)
	}
}

// rewriteClient sends every request to the test server regardless of host,
// recording the URLs it was asked for.
type rewriteClient struct {
	target string
	asked  []string
}

func (c *rewriteClient) Do(req *http.Request) (*http.Response, error) {
	c.asked = append(c.asked, req.URL.String())
	rewritten, _ := http.NewRequestWithContext(req.Context(), req.Method, c.target, nil)
	return http.DefaultClient.Do(rewritten)
}

func TestPreview_ChannelPageBypassesDiscovery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(serviceSampleRSS))
	}))
	defer server.Close()

	client := &rewriteClient{target: server.URL}
	svc := New(
		discovery.NewLocator(discovery.WithHTTPClient(client)),
		NewFetcher(WithHTTPClient(client)),
		video.NewChannelResolver(video.WithHTTPClient(client)),
	)

	feed, err := svc.Preview(context.Background(), "https://www.youtube.com/channel/UCabc123")
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if feed.Title != "Example Blog" {
		t.Errorf("Title = %q", feed.Title)
	}

	// The channel URL maps straight to the feed endpoint; the cascade and
	// its probes never run.
	if len(client.asked) != 1 {
		t.Fatalf("requests = %v, want exactly one", client.asked)
	}
	if want := "https://www.youtube.com/feeds/videos.xml?channel_id=UCabc123"; client.asked[0] != want {
		t.Errorf("fetched %q, want %q", client.asked[0], want)
	}
}

func TestPreview_NoFeedFound(t *testing.T) {
	svc, server := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><head></head><body>no feed here</body></html>"))
	}))

	_, err := svc.Preview(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected an error when the cascade is exhausted")
	}
	if !errors.Is(err, sharederrors.ErrFeedNotFound) {
		t.Errorf("err = %v, want ErrFeedNotFound", err)
	}
}

func TestRender(t *testing.T) {
	svc := New(nil, nil, nil)

	feed := &domain.Feed{
		Title:       "Example Blog",
		SourceURL:   "https://example.com/feed.xml",
		Description: "Posts",
		Items: []domain.Item{
			{
				Title:       "A Video Post",
				URL:         "https://example.com/video",
				GUID:        "post-1",
				Author:      "Alice",
				PublishedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
				EmbedURL:    "https://www.youtube.com/embed/abc123",
			},
			{
				Title: "A Plain Post",
				URL:   "https://example.com/plain",
			},
		},
	}

	rss, err := svc.Render(feed)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{
		"<title>Example Blog</title>",
		"<title>A Video Post</title>",
		"https://www.youtube.com/embed/abc123",
		"<title>A Plain Post</title>",
	} {
		if !strings.Contains(rss, want) {
			t.Errorf("rendered RSS missing %q", want)
		}
	}
}

func TestFetch_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	fetcher := NewFetcher(WithHTTPClient(server.Client()))
	if _, err := fetcher.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestFetch_BackfillsSourceURL(t *testing.T) {
	// No channel link, so the fetcher falls back to the request URL
	linkless := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Linkless</title></channel></rss>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(linkless))
	}))
	defer server.Close()

	fetcher := NewFetcher(WithHTTPClient(server.Client()))
	feedURL := server.URL + "/feed.xml"
	feed, err := fetcher.Fetch(context.Background(), feedURL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if feed.SourceURL != feedURL {
		t.Errorf("SourceURL = %q, want %q", feed.SourceURL, feedURL)
	}
}
