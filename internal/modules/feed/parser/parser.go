// Package parser normalizes raw feed bytes (RSS, Atom, JSON-feed) and relay
// events into the canonical feed model.
package parser

import (
	"bytes"
	"regexp"
	"strings"
	"time"

	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/domain"
	sharederrors "github.com/reshetovitsme/nostr-feed-reader/internal/shared/errors"
	"github.com/samber/oops"
)

const (
	atomNamespace         = "http://www.w3.org/2005/Atom"
	jsonFeedVersionPrefix = "https://jsonfeed.org/version/"
)

// Classify decides whether a body is a feed and of which kind, using the
// content-type hint first and body markers second.
func Classify(contentType string, body []byte) (domain.FeedKind, bool) {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "application/rss+xml"):
		return domain.FeedKindRss, true
	case strings.Contains(ct, "application/atom+xml"):
		return domain.FeedKindAtom, true
	case strings.Contains(ct, "application/feed+json"):
		return domain.FeedKindJson, true
	}

	head := body
	if len(head) > 4096 {
		head = head[:4096]
	}

	switch {
	case bytes.Contains(head, []byte("<rss")):
		return domain.FeedKindRss, true
	case bytes.Contains(head, []byte("<feed")) || bytes.Contains(head, []byte(atomNamespace)):
		return domain.FeedKindAtom, true
	case bytes.Contains(head, []byte(jsonFeedVersionPrefix)):
		return domain.FeedKindJson, true
	}
	return "", false
}

var (
	xmlTitleRe  = regexp.MustCompile(`<title[^>]*>\s*(?:<!\[CDATA\[)?(.*?)(?:\]\]>)?\s*</title>`)
	jsonTitleRe = regexp.MustCompile(`"title"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// ExtractTitle pulls the feed title out of a raw body using the first
// matching title pattern for the classified format. "" when no match.
func ExtractTitle(kind domain.FeedKind, body []byte) string {
	switch kind {
	case domain.FeedKindRss, domain.FeedKindAtom:
		if m := xmlTitleRe.FindSubmatch(body); m != nil {
			return strings.TrimSpace(string(m[1]))
		}
	case domain.FeedKindJson:
		if m := jsonTitleRe.FindSubmatch(body); m != nil {
			return strings.TrimSpace(string(m[1]))
		}
	}
	return ""
}

// Parse normalizes raw feed bytes into the canonical model. The optional
// content-type hint speeds up classification; body markers decide otherwise.
func Parse(raw []byte, contentTypeHint string) (*domain.Feed, error) {
	kind, ok := Classify(contentTypeHint, raw)
	if !ok {
		return nil, sharederrors.ErrUnsupportedFormat
	}

	switch kind {
	case domain.FeedKindRss:
		return parseRSS(raw)
	case domain.FeedKindAtom:
		return parseAtom(raw)
	case domain.FeedKindJson:
		return parseJSONFeed(raw)
	default:
		return nil, sharederrors.ErrUnsupportedFormat
	}
}

// Feed dates arrive in whatever format the publisher felt like that day.
var dateFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate is deliberately lenient: an unparseable or missing date
// becomes now() rather than an error.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s != "" {
		for _, format := range dateFormats {
			if t, err := time.Parse(format, s); err == nil {
				return t
			}
		}
	}
	return time.Now()
}

func wrapParseError(kind domain.FeedKind, err error) error {
	return oops.With("kind", kind.String(), "context", "malformed feed body").Wrap(err)
}
