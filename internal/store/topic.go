package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/domain"
)

// TopicStore defines the interface for topic data persistence.
type TopicStore interface {
	// Create saves a new topic. The topic must pass domain validation.
	Create(ctx context.Context, topic *domain.Topic) error

	// GetByID retrieves a topic by its unique ID.
	// Returns ErrTopicNotFound if the topic does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error)

	// ListByOwner returns an owner's topics, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Topic, error)

	// UpdateStatus sets a topic's status.
	// Returns ErrTopicNotFound if the topic does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TopicStatus) error

	// Finalize sets the status and card count once cards are written.
	Finalize(ctx context.Context, id uuid.UUID, status domain.TopicStatus, cardCount int) error

	// IncrementLearnt adds one to the topic's learnt count.
	IncrementLearnt(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new TopicStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TopicStore
}
