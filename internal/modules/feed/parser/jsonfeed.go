package parser

import (
	"encoding/json"
	"strings"

	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/domain"
	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/video"
)

// JSON-feed v1/v1.1 (https://jsonfeed.org).
type jsonFeed struct {
	Version     string         `json:"version"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	HomePageURL string         `json:"home_page_url"`
	Authors     []jsonAuthor   `json:"authors"`
	Author      *jsonAuthor    `json:"author"` // v1 single-author form
	Items       []jsonFeedItem `json:"items"`
}

type jsonAuthor struct {
	Name string `json:"name"`
}

type jsonFeedItem struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	ContentHTML   string       `json:"content_html"`
	ContentText   string       `json:"content_text"`
	Summary       string       `json:"summary"`
	URL           string       `json:"url"`
	Image         string       `json:"image"`
	BannerImage   string       `json:"banner_image"`
	DatePublished string       `json:"date_published"`
	Authors       []jsonAuthor `json:"authors"`
	Tags          []string     `json:"tags"`
}

func parseJSONFeed(raw []byte) (*domain.Feed, error) {
	var doc jsonFeed
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, wrapParseError(domain.FeedKindJson, err)
	}

	feedAuthor := ""
	if len(doc.Authors) > 0 {
		feedAuthor = doc.Authors[0].Name
	} else if doc.Author != nil {
		feedAuthor = doc.Author.Name
	}

	feed := &domain.Feed{
		Title:       strings.TrimSpace(doc.Title),
		Description: strings.TrimSpace(doc.Description),
		SourceURL:   strings.TrimSpace(doc.HomePageURL),
		Items:       make([]domain.Item, 0, len(doc.Items)),
	}

	for _, raw := range doc.Items {
		feed.Items = append(feed.Items, jsonToItem(raw, feedAuthor))
	}
	return feed, nil
}

func jsonToItem(raw jsonFeedItem, feedAuthor string) domain.Item {
	content := raw.ContentHTML
	if content == "" {
		content = raw.ContentText
	}
	if content == "" {
		content = raw.Summary
	}

	author := feedAuthor
	if len(raw.Authors) > 0 {
		author = raw.Authors[0].Name
	}

	guid := strings.TrimSpace(raw.ID)
	if guid == "" {
		guid = strings.TrimSpace(raw.URL)
	}

	item := domain.Item{
		Title:       strings.TrimSpace(raw.Title),
		Content:     content,
		Author:      strings.TrimSpace(author),
		PublishedAt: parseDate(raw.DatePublished),
		URL:         strings.TrimSpace(raw.URL),
		GUID:        guid,
		Tags:        raw.Tags,
	}

	if meta := video.Resolve(item.URL); meta != nil {
		item.VideoID = meta.VideoID
		item.EmbedURL = meta.EmbedURL
		item.Thumbnail = meta.Thumbnail
	}
	if item.Thumbnail == "" {
		if raw.Image != "" {
			item.Thumbnail = raw.Image
		} else {
			item.Thumbnail = raw.BannerImage
		}
	}
	return item
}
