package parser

import (
	"strconv"
	"strings"

	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/relay"
)

// iMeta is the decoded media descriptor of a video event's imeta tag.
type iMeta struct {
	URL      string
	Image    string
	Duration int
}

// parseIMeta scans the imeta tag's space-delimited, key-prefixed tokens
// positionally. url and duration are last-occurrence-wins; image is
// first-occurrence-wins. The asymmetry is the documented contract of the
// producing clients, kept verbatim.
func parseIMeta(tag relay.Tag) iMeta {
	var out iMeta
	if len(tag) < 2 {
		return out
	}

	for _, token := range tag[1:] {
		key, rest, found := strings.Cut(token, " ")
		if !found || rest == "" {
			continue
		}
		switch key {
		case "url":
			out.URL = rest
		case "duration":
			if secs, err := strconv.Atoi(rest); err == nil {
				out.Duration = secs
			}
		case "image":
			if out.Image == "" {
				out.Image = rest
			}
		}
	}
	return out
}
