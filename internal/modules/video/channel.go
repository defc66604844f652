package video

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const defaultScrapeTimeout = 5 * time.Second

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ChannelResolverOption configures the ChannelResolver.
type ChannelResolverOption func(*ChannelResolver)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) ChannelResolverOption {
	return func(r *ChannelResolver) {
		r.httpClient = httpClient
	}
}

// WithScrapeTimeout overrides the channel-page scrape timeout.
func WithScrapeTimeout(d time.Duration) ChannelResolverOption {
	return func(r *ChannelResolver) {
		r.timeout = d
	}
}

// ChannelResolver maps a channel page URL to the feed URL serving that
// channel's uploads. This is the resolver's only networked piece: channel
// pages that do not expose their id in the URL need one bounded scrape.
type ChannelResolver struct {
	httpClient HTTPClient
	timeout    time.Duration
}

// NewChannelResolver creates a new channel feed resolver.
func NewChannelResolver(opts ...ChannelResolverOption) *ChannelResolver {
	r := &ChannelResolver{
		httpClient: &http.Client{Timeout: defaultScrapeTimeout},
		timeout:    defaultScrapeTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var ytChannelPathRe = regexp.MustCompile(`^/channel/(UC[A-Za-z0-9_-]+)`)

// Known spots where YouTube embeds the channel id in a channel page.
// Checked in order; first match wins.
var ytChannelIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"channelId":"(UC[A-Za-z0-9_-]+)"`),
	regexp.MustCompile(`"externalId":"(UC[A-Za-z0-9_-]+)"`),
	regexp.MustCompile(`channel_id=(UC[A-Za-z0-9_-]+)`),
	regexp.MustCompile(`itemprop="identifier" content="(UC[A-Za-z0-9_-]+)"`),
}

// ResolveChannelFeed returns the feed URL for a channel page, or "" when the
// URL is not a recognizable channel. Scrape failures are swallowed into the
// bridging fallback, never returned.
func (r *ChannelResolver) ResolveChannelFeed(ctx context.Context, rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	switch DetectPlatform(rawURL) {
	case PlatformYoutube:
		return r.resolveYoutube(ctx, u)
	case PlatformRumble:
		// Rumble has no first-party channel feed; always bridge.
		return rumbleBridgeURL(u)
	default:
		return ""
	}
}

func (r *ChannelResolver) resolveYoutube(ctx context.Context, u *url.URL) string {
	// /channel/<id> maps directly onto the feed template
	if m := ytChannelPathRe.FindStringSubmatch(u.Path); m != nil {
		return youtubeFeedURL(m[1])
	}

	handle := youtubeHandle(u.Path)
	if handle == "" {
		return ""
	}

	// /c/, /user/ and /@handle pages embed the channel id in the page body
	if id := r.scrapeChannelID(ctx, u.String()); id != "" {
		return youtubeFeedURL(id)
	}

	slog.Debug("channel scrape failed, using bridge feed", "url", u.String())
	return fmt.Sprintf("https://rsshub.app/youtube/user/%s", handle)
}

func (r *ChannelResolver) scrapeChannelID(ctx context.Context, pageURL string) string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	// Channel ids appear in the first scripts of the page; 512KiB is plenty.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return ""
	}

	for _, re := range ytChannelIDPatterns {
		if m := re.FindSubmatch(body); m != nil {
			return string(m[1])
		}
	}
	return ""
}

func youtubeFeedURL(channelID string) string {
	return fmt.Sprintf("https://www.youtube.com/feeds/videos.xml?channel_id=%s", channelID)
}

// youtubeHandle extracts the channel handle from /c/, /user/ and /@handle paths.
func youtubeHandle(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	switch {
	case strings.HasPrefix(segments[0], "@"):
		return segments[0]
	case (segments[0] == "c" || segments[0] == "user") && len(segments) > 1:
		return "@" + segments[1]
	default:
		return ""
	}
}

func rumbleBridgeURL(u *url.URL) string {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 {
		return ""
	}
	switch segments[0] {
	case "c":
		return fmt.Sprintf("https://rsshub.app/rumble/channel/%s", segments[1])
	case "user":
		return fmt.Sprintf("https://rsshub.app/rumble/user/%s", segments[1])
	default:
		return ""
	}
}
