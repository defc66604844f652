package video

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResolveChannelFeed_DirectChannelID(t *testing.T) {
	r := NewChannelResolver()

	got := r.ResolveChannelFeed(context.Background(), "https://www.youtube.com/channel/UCabc123_-xyz")
	want := "https://www.youtube.com/feeds/videos.xml?channel_id=UCabc123_-xyz"
	if got != want {
		t.Errorf("ResolveChannelFeed = %q, want %q", got, want)
	}
}

// scrapeClient rewrites every request to the test server, standing in for
// the real channel page.
type scrapeClient struct {
	target string
}

func (c *scrapeClient) Do(req *http.Request) (*http.Response, error) {
	rewritten, _ := http.NewRequestWithContext(req.Context(), req.Method, c.target, nil)
	return http.DefaultClient.Do(rewritten)
}

func TestResolveChannelFeed_ScrapedChannelID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><script>var x = {"channelId":"UCscraped0001"};</script></html>`))
	}))
	defer server.Close()

	r := NewChannelResolver(WithHTTPClient(&scrapeClient{target: server.URL}))

	got := r.ResolveChannelFeed(context.Background(), "https://www.youtube.com/@somehandle")
	want := "https://www.youtube.com/feeds/videos.xml?channel_id=UCscraped0001"
	if got != want {
		t.Errorf("ResolveChannelFeed = %q, want %q", got, want)
	}
}

func TestResolveChannelFeed_ScrapeFailureFallsBackToBridge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	r := NewChannelResolver(WithHTTPClient(&scrapeClient{target: server.URL}))

	got := r.ResolveChannelFeed(context.Background(), "https://www.youtube.com/@somehandle")
	if !strings.Contains(got, "rsshub.app/youtube/user/@somehandle") {
		t.Errorf("expected bridge fallback, got %q", got)
	}
}

func TestResolveChannelFeed_LegacyPathsUseHandle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	r := NewChannelResolver(WithHTTPClient(&scrapeClient{target: server.URL}))

	got := r.ResolveChannelFeed(context.Background(), "https://www.youtube.com/c/SomeCreator")
	if !strings.Contains(got, "rsshub.app/youtube/user/@SomeCreator") {
		t.Errorf("expected bridge fallback for /c/ path, got %q", got)
	}
}

func TestResolveChannelFeed_RumbleAlwaysBridges(t *testing.T) {
	r := NewChannelResolver()

	got := r.ResolveChannelFeed(context.Background(), "https://rumble.com/c/SomeChannel")
	want := "https://rsshub.app/rumble/channel/SomeChannel"
	if got != want {
		t.Errorf("ResolveChannelFeed = %q, want %q", got, want)
	}

	got = r.ResolveChannelFeed(context.Background(), "https://rumble.com/user/SomeUser")
	want = "https://rsshub.app/rumble/user/SomeUser"
	if got != want {
		t.Errorf("ResolveChannelFeed = %q, want %q", got, want)
	}
}

func TestResolveChannelFeed_UnknownPlatform(t *testing.T) {
	r := NewChannelResolver()

	if got := r.ResolveChannelFeed(context.Background(), "https://example.com/channel/abc"); got != "" {
		t.Errorf("expected empty result for unknown platform, got %q", got)
	}
}
