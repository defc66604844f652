package service

import (
	"net/url"
	"regexp"
	"strings"
)

// NormalizeURL reduces a feed URL to its canonical comparison key:
// lower-cased host, trailing slash stripped from the path, query parameters
// sorted, scheme dropped. The result is idempotent, so keys can be
// re-normalized safely.
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	// Already-normalized keys carry no scheme; give them one so url.Parse
	// fills in the host
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(raw))
	}

	host := strings.ToLower(u.Host)
	path := strings.TrimSuffix(u.Path, "/")

	key := host + path
	if query := u.Query().Encode(); query != "" { // Encode sorts by key
		key += "?" + query
	}
	return key
}

var identifierRe = regexp.MustCompile(`(npub1[a-z0-9]+)`)

// NormalizeIdentifier reduces an author reference to its canonical key: the
// embedded bech32 identifier when one is present (bare or inside a URL),
// lower-cased; otherwise the whole input lower-cased.
func NormalizeIdentifier(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if m := identifierRe.FindString(s); m != "" {
		return m
	}
	return s
}
