package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/loopmind-api/internal/store"
)

// SQLSTATE codes the stores translate.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// Constraint names Postgres derives for the embedded migrations.
const (
	topicsPrimaryKey        = "topics_pkey"
	cardsTopicForeignKey    = "cards_topic_id_fkey"
	learningTopicForeignKey = "learning_records_topic_id_fkey"
	learningCardForeignKey  = "learning_records_card_id_fkey"
)

// foreignKeyTargets names the missing parent behind each foreign key, so a
// card written against a deleted topic reads as ErrTopicNotFound.
var foreignKeyTargets = map[string]error{
	cardsTopicForeignKey:    store.ErrTopicNotFound,
	learningTopicForeignKey: store.ErrTopicNotFound,
	learningCardForeignKey:  store.ErrCardNotFound,
}

// MapError translates a driver error into the store error taxonomy. The
// driver error stays in the chain, so pgconn details remain reachable with
// errors.As after mapping.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	}

	pgErr, ok := pgError(err)
	if !ok {
		return err
	}

	switch pgErr.Code {
	case uniqueViolationCode:
		return fmt.Errorf("%w: %s: %w", store.ErrDuplicate, pgErr.ConstraintName, err)
	case foreignKeyViolationCode:
		if target, known := foreignKeyTargets[pgErr.ConstraintName]; known {
			return fmt.Errorf("%w: %w", target, err)
		}
		return fmt.Errorf("%w: foreign key violation (%s): %w", store.ErrInvalidEntity, pgErr.ConstraintName, err)
	case checkViolationCode:
		return fmt.Errorf("%w: check constraint violation (%s): %w", store.ErrInvalidEntity, pgErr.ConstraintName, err)
	case notNullViolationCode:
		return fmt.Errorf("%w: not null violation (%s): %w", store.ErrInvalidEntity, pgErr.ColumnName, err)
	}
	return err
}

// mapDuplicate reports a unique violation on constraint as "<entity> already
// exists" and maps everything else with MapError.
func mapDuplicate(err error, entity, constraint string) error {
	if pgErr, ok := pgError(err); ok && pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == constraint {
		return fmt.Errorf("%w: %s already exists: %w", store.ErrDuplicate, entity, err)
	}
	return MapError(err)
}

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// CheckRowsAffected returns a not-found error wrapping notFound when an
// UPDATE touched no rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return errors.New("nil result provided to CheckRowsAffected")
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		if notFound == nil {
			return store.ErrNotFound
		}
		return notFound
	}
	return nil
}
