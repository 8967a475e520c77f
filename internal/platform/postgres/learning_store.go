package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/domain"
	"github.com/phrazzld/loopmind-api/internal/platform/logger"
	"github.com/phrazzld/loopmind-api/internal/store"
)

// PostgresLearningStore implements store.LearningStore.
type PostgresLearningStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLearningStore creates a learning store over db.
// If logger is nil, a default logger will be used.
func NewPostgresLearningStore(db store.DBTX, logger *slog.Logger) *PostgresLearningStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresLearningStore{
		db:     db,
		logger: logger.With(slog.String("component", "learning_store")),
	}
}

var _ store.LearningStore = (*PostgresLearningStore)(nil)

// Record implements store.LearningStore.Record. A repeated record for the
// same owner and card is ignored and reported as false.
func (s *PostgresLearningStore) Record(ctx context.Context, rec *domain.LearningRecord) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO learning_records (owner_id, topic_id, card_id, learnt_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, card_id) DO NOTHING
	`, rec.OwnerID, rec.TopicID, rec.CardID, rec.LearntAt)
	if err != nil {
		log.Error("failed to record learnt card",
			slog.String("error", err.Error()),
			slog.String("card_id", rec.CardID.String()))
		return false, MapError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// LearntCardIDs implements store.LearningStore.LearntCardIDs
func (s *PostgresLearningStore) LearntCardIDs(
	ctx context.Context,
	ownerID, topicID uuid.UUID,
) (map[uuid.UUID]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT card_id FROM learning_records WHERE owner_id = $1 AND topic_id = $2`,
		ownerID, topicID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list learnt cards",
			slog.String("error", err.Error()),
			slog.String("topic_id", topicID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	learnt := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan learning record: %w", err)
		}
		learnt[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating learning records: %w", err)
	}
	return learnt, nil
}

// WithTx implements store.LearningStore.WithTx
func (s *PostgresLearningStore) WithTx(tx *sql.Tx) store.LearningStore {
	return &PostgresLearningStore{
		db:     tx,
		logger: s.logger,
	}
}
