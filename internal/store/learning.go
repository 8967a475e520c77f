package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/domain"
)

// LearningStore records which cards an owner has learnt.
type LearningStore interface {
	// Record inserts rec unless the owner already learnt the card. It reports
	// whether a new record was written.
	Record(ctx context.Context, rec *domain.LearningRecord) (bool, error)

	// LearntCardIDs returns the set of learnt card IDs in a topic.
	LearntCardIDs(ctx context.Context, ownerID, topicID uuid.UUID) (map[uuid.UUID]bool, error)

	// WithTx returns a new LearningStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) LearningStore
}
