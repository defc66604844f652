// Package discovery resolves an arbitrary user URL into a validated feed
// endpoint via a three-stage, short-circuiting cascade: direct check, HTML
// alternate-link scan, then common-path probes.
package discovery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/domain"
	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/parser"
	sharederrors "github.com/reshetovitsme/nostr-feed-reader/internal/shared/errors"
	"golang.org/x/net/html"
)

const (
	defaultFetchTimeout = 10 * time.Second
	maxBodyBytes        = 2 * 1024 * 1024
)

// commonFeedPaths is probed in order against the site origin when the
// first two stages find nothing.
var commonFeedPaths = []string{
	"/feed",
	"/feed/",
	"/rss",
	"/rss.xml",
	"/atom.xml",
	"/feed.xml",
	"/index.xml",
	"/blog/feed",
	"/blog/rss",
	"/?feed=rss2",
	"/feeds/posts/default",
}

// feedMIMETypes is the <link rel=alternate> type attribute set recognized
// in stage 2.
var feedMIMETypes = map[string]struct{}{
	"application/rss+xml":   {},
	"application/atom+xml":  {},
	"application/feed+json": {},
	"application/json":      {},
}

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// LocatorOption configures the Locator.
type LocatorOption func(*Locator)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) LocatorOption {
	return func(l *Locator) {
		l.httpClient = httpClient
	}
}

// WithFetchTimeout overrides the per-request timeout.
func WithFetchTimeout(d time.Duration) LocatorOption {
	return func(l *Locator) {
		l.timeout = d
	}
}

// Locator runs the discovery cascade. Stages run strictly sequentially and
// every network or validation failure inside a stage converts into "no
// match, continue"; only the scheme pre-check is a hard error.
type Locator struct {
	httpClient HTTPClient
	timeout    time.Duration
	logger     *slog.Logger
}

// NewLocator creates a feed locator.
func NewLocator(opts ...LocatorOption) *Locator {
	l := &Locator{
		httpClient: &http.Client{Timeout: defaultFetchTimeout},
		timeout:    defaultFetchTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Discover resolves a user-entered URL to a validated feed endpoint.
// Non-http(s) input fails immediately with ErrInvalidInput, before any
// network call. A fully exhausted cascade is a negative result, not an
// error.
func (l *Locator) Discover(ctx context.Context, rawURL string) (domain.LocatorResult, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.LocatorResult{}, sharederrors.ErrInvalidInput
	}

	// Stage 1: the URL may already be a feed
	if result, ok := l.probe(ctx, u.String()); ok {
		return result, nil
	}

	// Stage 2: scan the page HTML for an advertised feed link
	if result, ok := l.scanHTML(ctx, u); ok {
		return result, nil
	}

	// Stage 3: probe well-known feed paths on the origin
	if result, ok := l.probeCommonPaths(ctx, u); ok {
		return result, nil
	}

	return domain.LocatorResult{
		Found:   false,
		Message: fmt.Sprintf("no feed found for %s; tried the URL itself, its HTML links and %d common paths", u.String(), len(commonFeedPaths)),
	}, nil
}

// probe fetches one candidate URL and classifies the body. Any fetch or
// classification failure is a non-match.
func (l *Locator) probe(ctx context.Context, candidate string) (domain.LocatorResult, bool) {
	contentType, body, err := l.fetch(ctx, candidate)
	if err != nil {
		l.logger.Debug("Probe failed", "url", candidate, "error", err)
		return domain.LocatorResult{}, false
	}

	kind, ok := parser.Classify(contentType, body)
	if !ok {
		return domain.LocatorResult{}, false
	}

	return domain.LocatorResult{
		Found:   true,
		FeedURL: candidate,
		Title:   parser.ExtractTitle(kind, body),
		Kind:    kind,
	}, true
}

func (l *Locator) scanHTML(ctx context.Context, page *url.URL) (domain.LocatorResult, bool) {
	_, body, err := l.fetch(ctx, page.String())
	if err != nil {
		l.logger.Debug("HTML fetch failed", "url", page.String(), "error", err)
		return domain.LocatorResult{}, false
	}

	href := firstAlternateLink(body)
	if href == "" {
		return domain.LocatorResult{}, false
	}

	candidate, err := page.Parse(href)
	if err != nil {
		return domain.LocatorResult{}, false
	}

	// Only a candidate that validates as a real feed counts
	return l.probe(ctx, candidate.String())
}

func (l *Locator) probeCommonPaths(ctx context.Context, page *url.URL) (domain.LocatorResult, bool) {
	origin := fmt.Sprintf("%s://%s", page.Scheme, page.Host)
	for _, path := range commonFeedPaths {
		if result, ok := l.probe(ctx, origin+path); ok {
			return result, true
		}
	}
	return domain.LocatorResult{}, false
}

func (l *Locator) fetch(ctx context.Context, rawURL string) (string, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("User-Agent", "nostr-feed-reader/1.0 (+feed discovery)")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", nil, err
	}
	return resp.Header.Get("Content-Type"), body, nil
}

// firstAlternateLink returns the href of the first <link rel="alternate">
// element in document order whose type is a known feed MIME type.
func firstAlternateLink(body []byte) string {
	tokenizer := html.NewTokenizer(strings.NewReader(string(body)))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if token.DataAtom.String() != "link" && token.Data != "link" {
				continue
			}

			var rel, typ, href string
			for _, attr := range token.Attr {
				switch strings.ToLower(attr.Key) {
				case "rel":
					rel = strings.ToLower(attr.Val)
				case "type":
					typ = strings.ToLower(strings.TrimSpace(attr.Val))
				case "href":
					href = attr.Val
				}
			}

			if !strings.Contains(rel, "alternate") || href == "" {
				continue
			}
			if _, ok := feedMIMETypes[typ]; ok {
				return href
			}
		}
	}
}
