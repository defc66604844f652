// Package service reconciles the local subscription set against the
// replaceable subscription-list record published to relays.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/relay"
	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/subscription/domain"
	"github.com/samber/oops"
)

// ListSlug is the fixed slug addressing the subscription-list record. One
// record per author: only the most recently timestamped version counts.
const ListSlug = "nostr-feed-reader/subscriptions"

// RelayClient is the fan-out surface the reconciler needs.
type RelayClient interface {
	GetOne(ctx context.Context, endpoints []string, filter relay.Filter) (*relay.Event, error)
	Publish(ctx context.Context, endpoints []string, ev *relay.Event) error
}

// Service publishes, fetches and merges the subscription list.
type Service struct {
	client RelayClient
	relays []string
	logger *slog.Logger

	mu            sync.Mutex
	lastPublished relay.Timestamp
}

// New creates a subscription reconciler over the given relay endpoints.
func New(client RelayClient, relays []string) *Service {
	return &Service{
		client: client,
		relays: relays,
		logger: slog.Default(),
	}
}

// Publish signs and publishes the list as a replaceable record. The
// timestamp is always strictly greater than this process's previous
// publication so relays never discard the update as stale.
func (s *Service) Publish(ctx context.Context, list domain.List, signer relay.Signer) (string, error) {
	s.mu.Lock()
	now := relay.Now()
	if now <= s.lastPublished {
		now = s.lastPublished + 1
	}
	s.lastPublished = now
	s.mu.Unlock()

	list.LastUpdated = int64(now)
	content, err := json.Marshal(list)
	if err != nil {
		return "", oops.With("context", "failed to encode subscription list").Wrap(err)
	}

	ev := &relay.Event{
		PubKey:    signer.PublicKey(),
		CreatedAt: now,
		Kind:      relay.KindAppData,
		Tags:      []relay.Tag{{"d", ListSlug}},
		Content:   string(content),
	}
	if err := signer.Sign(ctx, ev); err != nil {
		return "", oops.With("context", "failed to sign subscription list").Wrap(err)
	}

	if err := s.client.Publish(ctx, s.relays, ev); err != nil {
		return "", err
	}
	return ev.ID, nil
}

// Fetch retrieves the author's current list. A miss is a valid empty list,
// distinct from a fetch error.
func (s *Service) Fetch(ctx context.Context, author string) (domain.List, error) {
	filter := relay.Filter{
		Authors: []string{author},
		Kinds:   []int{relay.KindAppData},
		Tags:    relay.TagFilters{"d": {ListSlug}},
		Limit:   1,
	}

	ev, err := s.client.GetOne(ctx, s.relays, filter)
	if err != nil {
		return domain.List{}, err
	}
	if ev == nil {
		return domain.EmptyList(), nil
	}

	var list domain.List
	if err := json.Unmarshal([]byte(ev.Content), &list); err != nil {
		return domain.List{}, oops.With("event_id", ev.ID, "context", "malformed subscription list payload").Wrap(err)
	}
	if list.RSS == nil {
		list.RSS = []string{}
	}
	if list.Nostr == nil {
		list.Nostr = []string{}
	}
	if list.TagsByKey == nil {
		list.TagsByKey = map[string][]string{}
	}
	return list, nil
}

// Merge classifies the difference between local subscriptions and a remote
// list using normalized comparison keys. It never mutates either input and
// identical inputs always yield identical output.
func (s *Service) Merge(local []*domain.Subscription, remote domain.List) domain.MergeResult {
	localRSS := make(map[string]struct{})
	localNostr := make(map[string]struct{})
	for _, sub := range local {
		switch sub.Kind {
		case domain.SourceKindRss:
			if key := NormalizeURL(sub.URL); key != "" {
				localRSS[key] = struct{}{}
			}
		case domain.SourceKindNostr:
			if key := NormalizeIdentifier(sub.Identifier); key != "" {
				localNostr[key] = struct{}{}
			}
		}
	}

	result := domain.MergeResult{
		ToAdd:     []domain.RemoteEntry{},
		LocalOnly: []domain.Subscription{},
	}

	remoteRSS := make(map[string]struct{})
	for _, rawURL := range remote.RSS {
		key := NormalizeURL(rawURL)
		remoteRSS[key] = struct{}{}
		if _, exists := localRSS[key]; !exists {
			result.ToAdd = append(result.ToAdd, domain.RemoteEntry{
				Kind:  domain.SourceKindRss,
				Value: rawURL,
				Tags:  remote.TagsByKey[rawURL],
			})
		}
	}

	remoteNostr := make(map[string]struct{})
	for _, identifier := range remote.Nostr {
		key := NormalizeIdentifier(identifier)
		remoteNostr[key] = struct{}{}
		if _, exists := localNostr[key]; !exists {
			result.ToAdd = append(result.ToAdd, domain.RemoteEntry{
				Kind:  domain.SourceKindNostr,
				Value: identifier,
				Tags:  remote.TagsByKey[identifier],
			})
		}
	}

	for _, sub := range local {
		switch sub.Kind {
		case domain.SourceKindRss:
			// An entry without a URL can never match remote state; keep it
			// local rather than flagging it for removal. See DESIGN.md.
			if sub.URL == "" {
				result.LocalOnly = append(result.LocalOnly, *sub)
				continue
			}
			if _, exists := remoteRSS[NormalizeURL(sub.URL)]; !exists {
				result.LocalOnly = append(result.LocalOnly, *sub)
			}
		case domain.SourceKindNostr:
			if sub.Identifier == "" {
				result.LocalOnly = append(result.LocalOnly, *sub)
				continue
			}
			if _, exists := remoteNostr[NormalizeIdentifier(sub.Identifier)]; !exists {
				result.LocalOnly = append(result.LocalOnly, *sub)
			}
		}
	}

	return result
}

// ListFromLocal builds the publishable payload out of the local set.
func ListFromLocal(local []*domain.Subscription) domain.List {
	list := domain.EmptyList()
	for _, sub := range local {
		switch sub.Kind {
		case domain.SourceKindRss:
			if sub.URL == "" {
				continue
			}
			list.RSS = append(list.RSS, sub.URL)
			if len(sub.Tags) > 0 {
				list.TagsByKey[sub.URL] = sub.Tags
			}
		case domain.SourceKindNostr:
			if sub.Identifier == "" {
				continue
			}
			list.Nostr = append(list.Nostr, sub.Identifier)
			if len(sub.Tags) > 0 {
				list.TagsByKey[sub.Identifier] = sub.Tags
			}
		}
	}
	return list
}
