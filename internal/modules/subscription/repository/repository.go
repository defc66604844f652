package repository

import (
	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/subscription/domain"
)

// Repository defines the interface for local subscription persistence
// This abstraction allows easy replacement of storage implementations
// (e.g., FileStorage -> PostgreSQL -> MongoDB)
type Repository interface {
	Save(sub *domain.Subscription) error
	Get(id string) (*domain.Subscription, error)
	GetAll() ([]*domain.Subscription, error)
	Delete(id string) error
}
