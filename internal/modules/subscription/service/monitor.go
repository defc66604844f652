package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/subscription/domain"
	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/subscription/repository"
)

// Monitor periodically reconciles the local subscription set against the
// published record. Sync failures are non-blocking: when every relay is
// unreachable the reader keeps running on local-only state.
type Monitor struct {
	service  *Service
	repo     repository.Repository
	author   string
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewMonitor creates a subscription sync monitor for one author identity.
func NewMonitor(service *Service, repo repository.Repository, author string, interval time.Duration) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		service:  service,
		repo:     repo,
		author:   author,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the sync loop.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.syncLoop()
}

// Stop cancels the loop and waits for in-flight work.
func (m *Monitor) Stop() {
	m.cancel()
	m.wg.Wait()
}

func (m *Monitor) syncLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Initial sync
	m.SyncOnce(m.ctx)

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.SyncOnce(m.ctx)
		}
	}
}

// SyncOnce fetches the remote list, classifies it against local state and
// applies the remote-only additions. Local-only entries are reported, not
// removed: deletion stays a user decision.
func (m *Monitor) SyncOnce(ctx context.Context) {
	if m.author == "" {
		return
	}

	remote, err := m.service.Fetch(ctx, m.author)
	if err != nil {
		slog.Warn("Subscription sync skipped, relays unreachable", "error", err)
		return
	}

	local, err := m.repo.GetAll()
	if err != nil {
		slog.Error("Failed to load local subscriptions", "error", err)
		return
	}

	result := m.service.Merge(local, remote)
	for _, entry := range result.ToAdd {
		sub := &domain.Subscription{
			ID:      uuid.NewString(),
			Kind:    entry.Kind,
			Tags:    entry.Tags,
			AddedAt: time.Now(),
		}
		switch entry.Kind {
		case domain.SourceKindRss:
			sub.URL = entry.Value
		case domain.SourceKindNostr:
			sub.Identifier = entry.Value
		}
		if err := m.repo.Save(sub); err != nil {
			slog.Error("Failed to save synced subscription", "value", entry.Value, "error", err)
		}
	}

	if len(result.ToAdd) > 0 || len(result.LocalOnly) > 0 {
		slog.Info("Subscription sync finished",
			"added", len(result.ToAdd),
			"local_only", len(result.LocalOnly))
	}
}
