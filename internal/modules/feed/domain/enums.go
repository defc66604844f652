//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// FeedKind represents the wire format of a discovered feed
// ENUM(rss,atom,json)
type FeedKind string
