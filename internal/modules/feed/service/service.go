package service

import (
	"context"
	"time"

	"github.com/gorilla/feeds"
	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/discovery"
	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/domain"
	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/video"
	sharederrors "github.com/reshetovitsme/nostr-feed-reader/internal/shared/errors"
	"github.com/samber/oops"
)

// Service turns a user URL into a rendered, normalized feed: discover the
// endpoint, fetch and parse it, then re-emit it as clean RSS.
type Service struct {
	locator  *discovery.Locator
	fetcher  *Fetcher
	channels *video.ChannelResolver
}

// New creates a new feed service
func New(locator *discovery.Locator, fetcher *Fetcher, channels *video.ChannelResolver) *Service {
	return &Service{
		locator:  locator,
		fetcher:  fetcher,
		channels: channels,
	}
}

// Preview discovers and normalizes the feed behind a user URL. Video channel
// pages map straight to their known feed endpoint; everything else goes
// through the discovery cascade.
func (s *Service) Preview(ctx context.Context, rawURL string) (*domain.Feed, error) {
	if s.channels != nil {
		if feedURL := s.channels.ResolveChannelFeed(ctx, rawURL); feedURL != "" {
			return s.fetcher.Fetch(ctx, feedURL)
		}
	}

	result, err := s.locator.Discover(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !result.Found {
		return nil, oops.With("url", rawURL, "detail", result.Message).Wrap(sharederrors.ErrFeedNotFound)
	}

	return s.fetcher.Fetch(ctx, result.FeedURL)
}

// Render re-emits a normalized feed as RSS for feed readers.
func (s *Service) Render(feed *domain.Feed) (string, error) {
	out := &feeds.Feed{
		Title:       feed.Title,
		Link:        &feeds.Link{Href: feed.SourceURL},
		Description: feed.Description,
		Created:     time.Now(),
	}

	var items []*feeds.Item
	for _, entry := range feed.Items {
		items = append(items, itemToFeedItem(entry))
	}
	out.Items = items

	rss, err := out.ToRss()
	if err != nil {
		return "", oops.With("feed_title", feed.Title, "context", "failed to render feed").Wrap(err)
	}
	return rss, nil
}

func itemToFeedItem(entry domain.Item) *feeds.Item {
	item := &feeds.Item{
		Title:       entry.Title,
		Link:        &feeds.Link{Href: entry.URL},
		Description: entry.Content,
		Author:      &feeds.Author{Name: entry.Author},
		Created:     entry.PublishedAt,
		Id:          entry.DedupKey(),
	}
	if entry.EmbedURL != "" {
		item.Enclosure = &feeds.Enclosure{Url: entry.EmbedURL, Type: "text/html"}
	}
	return item
}
