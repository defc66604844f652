package parser

import (
	"encoding/xml"
	"strings"

	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/domain"
	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/video"
)

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Description string    `xml:"description"`
	Link        string    `xml:"link"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title          string     `xml:"title"`
	Link           string     `xml:"link"`
	Description    string     `xml:"description"`
	ContentEncoded string     `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
	Author         string     `xml:"author"`
	DCCreator      string     `xml:"http://purl.org/dc/elements/1.1/ creator"`
	PubDate        string     `xml:"pubDate"`
	GUID           string     `xml:"guid"`
	MediaThumbnail mediaRef   `xml:"http://search.yahoo.com/mrss/ thumbnail"`
	MediaContent   mediaRef   `xml:"http://search.yahoo.com/mrss/ content"`
	MediaGroup     mediaGroup `xml:"http://search.yahoo.com/mrss/ group"`
}

type mediaRef struct {
	URL string `xml:"url,attr"`
}

type mediaGroup struct {
	Thumbnail mediaRef `xml:"http://search.yahoo.com/mrss/ thumbnail"`
}

func parseRSS(raw []byte) (*domain.Feed, error) {
	var doc rssDoc
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, wrapParseError(domain.FeedKindRss, err)
	}

	feed := &domain.Feed{
		Title:       strings.TrimSpace(doc.Channel.Title),
		Description: strings.TrimSpace(doc.Channel.Description),
		SourceURL:   strings.TrimSpace(doc.Channel.Link),
		Items:       make([]domain.Item, 0, len(doc.Channel.Items)),
	}

	for _, raw := range doc.Channel.Items {
		feed.Items = append(feed.Items, rssToItem(raw))
	}
	return feed, nil
}

func rssToItem(raw rssItem) domain.Item {
	content := raw.ContentEncoded
	if content == "" {
		content = raw.Description
	}

	author := raw.Author
	if author == "" {
		author = raw.DCCreator
	}

	guid := strings.TrimSpace(raw.GUID)
	if guid == "" {
		guid = strings.TrimSpace(raw.Link)
	}

	item := domain.Item{
		Title:       strings.TrimSpace(raw.Title),
		Content:     content,
		Author:      strings.TrimSpace(author),
		PublishedAt: parseDate(raw.PubDate),
		URL:         strings.TrimSpace(raw.Link),
		GUID:        guid,
	}

	enrichVideo(&item)
	item.Thumbnail = pickThumbnail(item.Thumbnail, raw.MediaThumbnail, raw.MediaContent, raw.MediaGroup)
	return item
}

// enrichVideo fills video fields when the item URL belongs to a known
// platform, including the resolver-synthesized thumbnail.
func enrichVideo(item *domain.Item) {
	meta := video.Resolve(item.URL)
	if meta == nil {
		return
	}
	item.VideoID = meta.VideoID
	item.EmbedURL = meta.EmbedURL
	item.Thumbnail = meta.Thumbnail
}

// pickThumbnail applies the documented fallback order: resolver thumbnail,
// then media:thumbnail, media:content, media:group/media:thumbnail.
func pickThumbnail(resolved string, thumbnail, content mediaRef, group mediaGroup) string {
	for _, candidate := range []string{resolved, thumbnail.URL, content.URL, group.Thumbnail.URL} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}
