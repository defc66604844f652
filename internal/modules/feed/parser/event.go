package parser

import (
	"sort"
	"strconv"
	"time"

	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/domain"
	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/relay"
	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/video"
)

const untitledFallback = "Untitled"

// articleTags is the decoded tag set of a long-form event. Tags outside the
// closed set land in Ignored so the decode stays auditable.
type articleTags struct {
	Title       string
	Summary     string
	PublishedAt string
	Slug        string
	Topics      []string
	Ignored     []relay.Tag
}

func decodeArticleTags(tags []relay.Tag) articleTags {
	var out articleTags
	for _, tag := range tags {
		switch tag.Name() {
		case "title":
			out.Title = tag.Value()
		case "summary":
			out.Summary = tag.Value()
		case "published_at":
			out.PublishedAt = tag.Value()
		case "d":
			out.Slug = tag.Value()
		case "t":
			out.Topics = append(out.Topics, tag.Value())
		default:
			out.Ignored = append(out.Ignored, tag)
		}
	}
	return out
}

// ItemFromArticle normalizes one long-form event into a canonical item.
func ItemFromArticle(ev *relay.Event) domain.Item {
	tags := decodeArticleTags(ev.Tags)

	title := tags.Title
	if title == "" {
		title = untitledFallback
	}

	content := ev.Content
	if content == "" {
		content = tags.Summary
	}

	return domain.Item{
		Title:       title,
		Content:     content,
		Author:      ev.PubKey,
		PublishedAt: eventTime(tags.PublishedAt, ev),
		URL:         tags.Slug, // slug doubles as a fallback URL
		GUID:        ev.ID,
		Tags:        tags.Topics,
	}
}

// videoTags is the decoded tag set of a video event.
type videoTags struct {
	Title       string
	PublishedAt string
	Media       iMeta
	Topics      []string
	Ignored     []relay.Tag
}

func decodeVideoTags(tags []relay.Tag) videoTags {
	var out videoTags
	for _, tag := range tags {
		switch tag.Name() {
		case "title":
			out.Title = tag.Value()
		case "published_at":
			out.PublishedAt = tag.Value()
		case "imeta":
			out.Media = parseIMeta(tag)
		case "t":
			out.Topics = append(out.Topics, tag.Value())
		default:
			out.Ignored = append(out.Ignored, tag)
		}
	}
	return out
}

// ItemFromVideo normalizes one video event into a canonical item.
func ItemFromVideo(ev *relay.Event) domain.Item {
	tags := decodeVideoTags(ev.Tags)

	title := tags.Title
	if title == "" {
		title = untitledFallback
	}

	item := domain.Item{
		Title:       title,
		Content:     ev.Content,
		Author:      ev.PubKey,
		PublishedAt: eventTime(tags.PublishedAt, ev),
		URL:         tags.Media.URL,
		GUID:        ev.ID,
		Thumbnail:   tags.Media.Image,
		Tags:        tags.Topics,
	}

	if meta := video.Resolve(item.URL); meta != nil {
		item.VideoID = meta.VideoID
		item.EmbedURL = meta.EmbedURL
		if item.Thumbnail == "" {
			item.Thumbnail = meta.Thumbnail
		}
	} else {
		item.EmbedURL = tags.Media.URL
	}
	return item
}

// ItemFromEvent dispatches on the event kind. Unknown kinds come back as
// ok == false rather than an error: relays hand us whatever they have.
func ItemFromEvent(ev *relay.Event) (domain.Item, bool) {
	switch ev.Kind {
	case relay.KindLongForm:
		return ItemFromArticle(ev), true
	case relay.KindVideo:
		return ItemFromVideo(ev), true
	default:
		return domain.Item{}, false
	}
}

// FeedFromEvents builds a canonical feed out of relay events, sorted by
// publish time, newest first.
func FeedFromEvents(title string, events []*relay.Event) *domain.Feed {
	feed := &domain.Feed{
		Title: title,
		Items: make([]domain.Item, 0, len(events)),
	}
	for _, ev := range events {
		if item, ok := ItemFromEvent(ev); ok {
			feed.Items = append(feed.Items, item)
		}
	}

	sort.SliceStable(feed.Items, func(i, j int) bool {
		return feed.Items[i].PublishedAt.After(feed.Items[j].PublishedAt)
	})
	return feed
}

// eventTime parses an epoch-seconds published_at tag, defaulting to the
// event's own timestamp.
func eventTime(publishedAt string, ev *relay.Event) time.Time {
	if publishedAt != "" {
		if secs, err := strconv.ParseInt(publishedAt, 10, 64); err == nil {
			return time.Unix(secs, 0)
		}
	}
	return ev.CreatedAt.Time()
}
