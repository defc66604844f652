// Package video resolves video platform metadata out of arbitrary URLs:
// platform detection, video id extraction and deterministic embed/thumbnail
// URL synthesis. Everything here is pure except the channel-page scrape in
// channel.go.
package video

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Metadata is the resolved view of a single video URL.
type Metadata struct {
	Platform  Platform `json:"platform"`
	VideoID   string   `json:"video_id"`
	EmbedURL  string   `json:"embed_url"`
	Thumbnail string   `json:"thumbnail,omitempty"`
}

var (
	ytShortsRe = regexp.MustCompile(`/shorts/([A-Za-z0-9_-]{6,})`)
	ytEmbedRe  = regexp.MustCompile(`/(?:embed|v)/([A-Za-z0-9_-]{6,})`)

	rumbleEmbedRe = regexp.MustCompile(`/embed/([a-z0-9]+)`)
	rumbleVideoRe = regexp.MustCompile(`/(v[a-z0-9]+)-`)
)

// DetectPlatform classifies a URL by hostname substring. Unrecognized
// hosts map to PlatformUnknown.
func DetectPlatform(rawURL string) Platform {
	u, err := url.Parse(rawURL)
	if err != nil {
		return PlatformUnknown
	}
	host := strings.ToLower(u.Hostname())

	switch {
	case strings.Contains(host, "youtube.com"), strings.Contains(host, "youtu.be"):
		return PlatformYoutube
	case strings.Contains(host, "rumble.com"):
		return PlatformRumble
	default:
		return PlatformUnknown
	}
}

// ExtractVideoID pulls the platform video id out of a URL using an ordered
// pattern precedence; the first matching pattern wins. Returns "" when no
// pattern matches.
func ExtractVideoID(platform Platform, rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	switch platform {
	case PlatformYoutube:
		// Short link: the whole path is the id
		if strings.Contains(strings.ToLower(u.Hostname()), "youtu.be") {
			if id := strings.Trim(u.Path, "/"); id != "" {
				return id
			}
		}
		if id := u.Query().Get("v"); id != "" {
			return id
		}
		if m := ytShortsRe.FindStringSubmatch(u.Path); m != nil {
			return m[1]
		}
		if m := ytEmbedRe.FindStringSubmatch(u.Path); m != nil {
			return m[1]
		}
	case PlatformRumble:
		if m := rumbleEmbedRe.FindStringSubmatch(u.Path); m != nil {
			return m[1]
		}
		if m := rumbleVideoRe.FindStringSubmatch(u.Path); m != nil {
			return m[1]
		}
	}

	return ""
}

// BuildEmbedURL synthesizes the player embed URL for a known platform id.
func BuildEmbedURL(platform Platform, videoID string) string {
	switch platform {
	case PlatformYoutube:
		return fmt.Sprintf("https://www.youtube.com/embed/%s", videoID)
	case PlatformRumble:
		return fmt.Sprintf("https://rumble.com/embed/%s/", videoID)
	default:
		return ""
	}
}

// BuildThumbnailURL synthesizes the preview image URL. Rumble has no stable
// thumbnail template, so rumble ids always yield "".
func BuildThumbnailURL(platform Platform, videoID string) string {
	switch platform {
	case PlatformYoutube:
		return fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoID)
	default:
		return ""
	}
}

// Resolve runs the full pure pipeline for one URL. Returns nil when the URL
// does not belong to a known platform or carries no recognizable video id.
func Resolve(rawURL string) *Metadata {
	platform := DetectPlatform(rawURL)
	if platform == PlatformUnknown {
		return nil
	}

	id := ExtractVideoID(platform, rawURL)
	if id == "" {
		return nil
	}

	return &Metadata{
		Platform:  platform,
		VideoID:   id,
		EmbedURL:  BuildEmbedURL(platform, id),
		Thumbnail: BuildThumbnailURL(platform, id),
	}
}
