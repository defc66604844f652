package domain

import "time"

// Item is the canonical representation of one feed entry, independent of
// the source protocol (RSS, Atom, JSON-feed or relay event).
type Item struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Author      string    `json:"author,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	URL         string    `json:"url,omitempty"`
	GUID        string    `json:"guid,omitempty"`
	VideoID     string    `json:"video_id,omitempty"`
	EmbedURL    string    `json:"embed_url,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

// DedupKey is the identity used for deduplication within a feed: guid when
// present, otherwise the item URL.
func (i Item) DedupKey() string {
	if i.GUID != "" {
		return i.GUID
	}
	return i.URL
}

// Feed is a normalized feed. Items keep source document order for RSS/Atom;
// relay-sourced feeds are sorted by publish time, newest first.
type Feed struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
	Items       []Item `json:"items"`
}

// LocatorResult is the outcome of one feed discovery call.
type LocatorResult struct {
	Found   bool     `json:"found"`
	FeedURL string   `json:"feed_url,omitempty"`
	Title   string   `json:"title,omitempty"`
	Kind    FeedKind `json:"kind,omitempty"`
	Message string   `json:"message,omitempty"`
}
