package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/subscription/domain"
	sharederrors "github.com/reshetovitsme/nostr-feed-reader/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// FileStorage persists subscriptions as one JSON file per entry
type FileStorage struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStorage creates a file-based subscription store
func NewFileStorage(basePath string) (*FileStorage, error) {
	dir := filepath.Join(basePath, "subscriptions")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, oops.With("path", dir, "context", "failed to create storage directory").Wrap(err)
	}
	return &FileStorage{basePath: basePath}, nil
}

func (s *FileStorage) Save(sub *domain.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(sub.ID)
	data, err := json.MarshalIndent(sub, "", "  ")
	if err != nil {
		return oops.With("subscription_id", sub.ID, "context", "failed to marshal subscription").Wrap(err)
	}

	return os.WriteFile(path, data, 0644)
}

func (s *FileStorage) Get(id string) (*domain.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sharederrors.ErrSubNotFound
		}
		return nil, oops.With("subscription_id", id, "context", "failed to read subscription").Wrap(err)
	}

	var sub domain.Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, oops.With("subscription_id", id, "context", "failed to unmarshal subscription").Wrap(err)
	}

	return &sub, nil
}

func (s *FileStorage) GetAll() ([]*domain.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Join(s.basePath, "subscriptions")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, oops.With("path", dir, "context", "failed to read subscriptions directory").Wrap(err)
	}

	// Unreadable or corrupt entries are skipped, not fatal
	subs := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (*domain.Subscription, bool) {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			return nil, false
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, false
		}

		var sub domain.Subscription
		if err := json.Unmarshal(data, &sub); err != nil {
			return nil, false
		}

		return &sub, true
	})

	return subs, nil
}

func (s *FileStorage) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return os.Remove(s.path(id))
}

func (s *FileStorage) path(id string) string {
	return filepath.Join(s.basePath, "subscriptions", id+".json")
}
