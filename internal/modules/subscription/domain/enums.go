//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// SourceKind represents where a subscription's content comes from
// ENUM(rss,nostr)
type SourceKind string
