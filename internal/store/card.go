package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/domain"
)

// CardStore defines the interface for card data persistence.
type CardStore interface {
	// CreateMultiple saves all cards of a topic.
	// IMPORTANT: This method MUST be run within a transaction so that a
	// topic never has a partial card set.
	CreateMultiple(ctx context.Context, cards []*domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// ListByTopic returns the cards of a topic in order.
	ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*domain.Card, error)

	// SetImageKey writes a rendered image locator back to a card.
	// Returns ErrCardNotFound if the card does not exist.
	SetImageKey(ctx context.Context, id uuid.UUID, key string) error

	// CountPendingImages counts the image cards of a topic that carry a
	// prompt but no image locator yet.
	CountPendingImages(ctx context.Context, topicID uuid.UUID) (int, error)

	// WithTx returns a new CardStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) CardStore
}
