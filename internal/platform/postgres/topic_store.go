package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/domain"
	"github.com/phrazzld/loopmind-api/internal/platform/logger"
	"github.com/phrazzld/loopmind-api/internal/store"
)

// PostgresTopicStore implements the store.TopicStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTopicStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTopicStore creates a new PostgreSQL implementation of the TopicStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTopicStore(db store.DBTX, logger *slog.Logger) *PostgresTopicStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTopicStore{
		db:     db,
		logger: logger.With(slog.String("component", "topic_store")),
	}
}

// Ensure PostgresTopicStore implements store.TopicStore interface
var _ store.TopicStore = (*PostgresTopicStore)(nil)

const topicColumns = `id, owner_id, title, icon, status, card_count, learnt_count, created_at, updated_at`

// Create implements store.TopicStore.Create
func (s *PostgresTopicStore) Create(ctx context.Context, topic *domain.Topic) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := topic.Validate(); err != nil {
		log.Warn("topic validation failed during create",
			slog.String("error", err.Error()),
			slog.String("topic_id", topic.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO topics (` + topicColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		topic.ID,
		topic.OwnerID,
		topic.Title,
		topic.Icon,
		topic.Status,
		topic.CardCount,
		topic.LearntCount,
		topic.CreatedAt,
		topic.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create topic",
			slog.String("error", err.Error()),
			slog.String("topic_id", topic.ID.String()))
		return mapDuplicate(err, "topic", topicsPrimaryKey)
	}

	log.Debug("topic created",
		slog.String("topic_id", topic.ID.String()),
		slog.String("status", string(topic.Status)))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTopic(row rowScanner) (*domain.Topic, error) {
	var topic domain.Topic
	var status string
	err := row.Scan(
		&topic.ID,
		&topic.OwnerID,
		&topic.Title,
		&topic.Icon,
		&status,
		&topic.CardCount,
		&topic.LearntCount,
		&topic.CreatedAt,
		&topic.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	topic.Status = domain.TopicStatus(status)
	return &topic, nil
}

// GetByID implements store.TopicStore.GetByID
// Returns store.ErrTopicNotFound if the topic does not exist.
func (s *PostgresTopicStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + topicColumns + ` FROM topics WHERE id = $1`
	topic, err := scanTopic(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("topic not found", slog.String("topic_id", id.String()))
			return nil, store.ErrTopicNotFound
		}
		log.Error("failed to get topic by ID",
			slog.String("error", err.Error()),
			slog.String("topic_id", id.String()))
		return nil, MapError(err)
	}
	return topic, nil
}

// ListByOwner implements store.TopicStore.ListByOwner
func (s *PostgresTopicStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Topic, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + topicColumns + ` FROM topics WHERE owner_id = $1 ORDER BY created_at DESC, id`
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		log.Error("failed to list topics",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	topics := []*domain.Topic{}
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic row: %w", err)
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topic rows: %w", err)
	}
	return topics, nil
}

// UpdateStatus implements store.TopicStore.UpdateStatus
// Returns store.ErrTopicNotFound if the topic does not exist.
func (s *PostgresTopicStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TopicStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidTopicStatus)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE topics SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id)
	return s.checkUpdate(ctx, "update topic status", id, result, err)
}

// Finalize implements store.TopicStore.Finalize
func (s *PostgresTopicStore) Finalize(
	ctx context.Context,
	id uuid.UUID,
	status domain.TopicStatus,
	cardCount int,
) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidTopicStatus)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE topics SET status = $1, card_count = $2, updated_at = $3 WHERE id = $4`,
		status, cardCount, time.Now().UTC(), id)
	return s.checkUpdate(ctx, "finalize topic", id, result, err)
}

// IncrementLearnt implements store.TopicStore.IncrementLearnt
func (s *PostgresTopicStore) IncrementLearnt(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE topics SET learnt_count = learnt_count + 1, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id)
	return s.checkUpdate(ctx, "increment learnt count", id, result, err)
}

func (s *PostgresTopicStore) checkUpdate(
	ctx context.Context,
	op string,
	id uuid.UUID,
	result sql.Result,
	err error,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err != nil {
		log.Error("failed to "+op,
			slog.String("error", err.Error()),
			slog.String("topic_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTopicNotFound)
}

// WithTx implements store.TopicStore.WithTx
func (s *PostgresTopicStore) WithTx(tx *sql.Tx) store.TopicStore {
	return &PostgresTopicStore{
		db:     tx,
		logger: s.logger,
	}
}
