package parser

import (
	"encoding/xml"
	"strings"

	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/domain"
)

type atomFeed struct {
	XMLName  xml.Name    `xml:"feed"`
	Title    string      `xml:"title"`
	Subtitle string      `xml:"subtitle"`
	Links    []atomLink  `xml:"link"`
	Entries  []atomEntry `xml:"entry"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
	Href string `xml:"href,attr"`
}

type atomEntry struct {
	Title          string     `xml:"title"`
	ID             string     `xml:"id"`
	Links          []atomLink `xml:"link"`
	Content        string     `xml:"content"`
	Summary        string     `xml:"summary"`
	Published      string     `xml:"published"`
	Updated        string     `xml:"updated"`
	Author         atomAuthor `xml:"author"`
	MediaThumbnail mediaRef   `xml:"http://search.yahoo.com/mrss/ thumbnail"`
	MediaContent   mediaRef   `xml:"http://search.yahoo.com/mrss/ content"`
	MediaGroup     mediaGroup `xml:"http://search.yahoo.com/mrss/ group"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

func parseAtom(raw []byte) (*domain.Feed, error) {
	var doc atomFeed
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, wrapParseError(domain.FeedKindAtom, err)
	}

	feed := &domain.Feed{
		Title:       strings.TrimSpace(doc.Title),
		Description: strings.TrimSpace(doc.Subtitle),
		SourceURL:   chooseAtomLink(doc.Links),
		Items:       make([]domain.Item, 0, len(doc.Entries)),
	}

	for _, entry := range doc.Entries {
		feed.Items = append(feed.Items, atomToItem(entry))
	}
	return feed, nil
}

func atomToItem(entry atomEntry) domain.Item {
	content := entry.Content
	if content == "" {
		content = entry.Summary
	}

	link := chooseAtomLink(entry.Links)

	guid := strings.TrimSpace(entry.ID)
	if guid == "" {
		guid = link
	}

	published := entry.Published
	if strings.TrimSpace(published) == "" {
		published = entry.Updated
	}

	item := domain.Item{
		Title:       strings.TrimSpace(entry.Title),
		Content:     content,
		Author:      strings.TrimSpace(entry.Author.Name),
		PublishedAt: parseDate(published),
		URL:         link,
		GUID:        guid,
	}

	enrichVideo(&item)
	item.Thumbnail = pickThumbnail(item.Thumbnail, entry.MediaThumbnail, entry.MediaContent, entry.MediaGroup)
	return item
}

// chooseAtomLink picks an entry link with alternate-link preference for a
// non-text/html type, falling back to the first alternate and then the
// first link of any kind.
func chooseAtomLink(links []atomLink) string {
	var firstAlternate string
	for _, link := range links {
		if link.Rel != "" && link.Rel != "alternate" {
			continue
		}
		if firstAlternate == "" {
			firstAlternate = link.Href
		}
		if link.Type != "" && link.Type != "text/html" {
			return strings.TrimSpace(link.Href)
		}
	}
	if firstAlternate != "" {
		return strings.TrimSpace(firstAlternate)
	}
	if len(links) > 0 {
		return strings.TrimSpace(links[0].Href)
	}
	return ""
}
