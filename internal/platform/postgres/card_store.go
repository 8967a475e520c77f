package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/domain"
	"github.com/phrazzld/loopmind-api/internal/platform/logger"
	"github.com/phrazzld/loopmind-api/internal/store"
)

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
// Card content is stored as a JSONB document next to the identity columns.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the CardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

const cardColumns = `id, owner_id, topic_id, position, post_type, content, image_key, created_at`

// CreateMultiple implements store.CardStore.CreateMultiple
// The caller must run it inside a transaction for the batch to be atomic.
func (s *PostgresCardStore) CreateMultiple(ctx context.Context, cards []*domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(cards) == 0 {
		return nil
	}

	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, card := range cards {
		if err := card.Validate(); err != nil {
			log.Warn("card validation failed during create",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()))
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		content, err := json.Marshal(card)
		if err != nil {
			return fmt.Errorf("%w: failed to encode card content: %v", store.ErrInvalidEntity, err)
		}

		var imageKey sql.NullString
		if card.ImageKey != "" {
			imageKey = sql.NullString{String: card.ImageKey, Valid: true}
		}

		_, err = s.db.ExecContext(ctx, query,
			card.ID,
			card.OwnerID,
			card.TopicID,
			card.Order,
			card.PostType,
			content,
			imageKey,
			card.CreatedAt,
		)
		if err != nil {
			log.Error("failed to create card",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()),
				slog.String("topic_id", card.TopicID.String()))
			return MapError(err)
		}
	}

	log.Debug("cards created",
		slog.Int("count", len(cards)),
		slog.String("topic_id", cards[0].TopicID.String()))
	return nil
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		id, ownerID, topicID uuid.UUID
		position             int
		postType             string
		content              []byte
		imageKey             sql.NullString
		card                 domain.Card
	)
	if err := row.Scan(&id, &ownerID, &topicID, &position, &postType, &content, &imageKey, &card.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(content, &card); err != nil {
		return nil, fmt.Errorf("failed to decode content of card %s: %w", id, err)
	}

	card.ID = id
	card.OwnerID = ownerID
	card.TopicID = topicID
	card.Order = position
	card.PostType = domain.PostType(postType)
	card.ImageKey = imageKey.String
	return &card, nil
}

// GetByID implements store.CardStore.GetByID
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`
	card, err := scanCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found", slog.String("card_id", id.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card by ID",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, MapError(err)
	}
	return card, nil
}

// ListByTopic implements store.CardStore.ListByTopic
func (s *PostgresCardStore) ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + cardColumns + ` FROM cards WHERE topic_id = $1 ORDER BY position`
	rows, err := s.db.QueryContext(ctx, query, topicID)
	if err != nil {
		log.Error("failed to list cards",
			slog.String("error", err.Error()),
			slog.String("topic_id", topicID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	cards := []*domain.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating card rows: %w", err)
	}
	return cards, nil
}

// SetImageKey implements store.CardStore.SetImageKey
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) SetImageKey(ctx context.Context, id uuid.UUID, key string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `UPDATE cards SET image_key = $1 WHERE id = $2`, key, id)
	if err != nil {
		log.Error("failed to set card image key",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrCardNotFound)
}

// CountPendingImages implements store.CardStore.CountPendingImages
func (s *PostgresCardStore) CountPendingImages(ctx context.Context, topicID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM cards
		WHERE topic_id = $1
		  AND post_type = $2
		  AND image_key IS NULL
		  AND content->>'image_prompt' IS NOT NULL
	`
	var count int
	if err := s.db.QueryRowContext(ctx, query, topicID, domain.PostTypeImage).Scan(&count); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count pending images",
			slog.String("error", err.Error()),
			slog.String("topic_id", topicID.String()))
		return 0, MapError(err)
	}
	return count, nil
}

// WithTx implements store.CardStore.WithTx
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{
		db:     tx,
		logger: s.logger,
	}
}
