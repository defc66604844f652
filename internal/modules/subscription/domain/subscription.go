package domain

import "time"

// Subscription is one locally tracked source: an RSS/Atom/JSON feed or a
// relay author identifier.
type Subscription struct {
	ID         string     `json:"id"`
	Kind       SourceKind `json:"kind"`
	URL        string     `json:"url,omitempty"`        // feed URL, rss kind
	Identifier string     `json:"identifier,omitempty"` // author identifier, nostr kind
	Title      string     `json:"title,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	AddedAt    time.Time  `json:"added_at"`
}

// List is the published subscription-list payload. It is a replaceable
// record: among all versions published under the same (author, slug) pair
// the one with the greatest LastUpdated is authoritative.
type List struct {
	RSS         []string            `json:"rss"`
	Nostr       []string            `json:"nostr"`
	TagsByKey   map[string][]string `json:"tags"`
	LastUpdated int64               `json:"lastUpdated"`
}

// EmptyList returns a valid empty list, distinct from a fetch error.
func EmptyList() List {
	return List{
		RSS:       []string{},
		Nostr:     []string{},
		TagsByKey: map[string][]string{},
	}
}

// RemoteEntry is one remote-only entry surfaced by a merge.
type RemoteEntry struct {
	Kind  SourceKind `json:"kind"`
	Value string     `json:"value"`
	Tags  []string   `json:"tags,omitempty"`
}

// MergeResult classifies the difference between local subscriptions and a
// remote list. Merging never mutates either side; applying the result is
// the caller's business.
type MergeResult struct {
	ToAdd     []RemoteEntry  `json:"to_add"`
	LocalOnly []Subscription `json:"local_only"`
}
