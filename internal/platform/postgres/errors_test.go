package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/loopmind-api/internal/domain"
	"github.com/phrazzld/loopmind-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

// failingDB answers every statement with err.
type failingDB struct {
	err   error
	execs int
}

func (d *failingDB) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	d.execs++
	return nil, d.err
}

func (d *failingDB) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, d.err
}

func (d *failingDB) QueryRowContext(context.Context, string, ...any) *sql.Row {
	panic("QueryRowContext not expected")
}

func TestMapError(t *testing.T) {
	t.Parallel()

	plain := errors.New("connection reset")

	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("query: %w", sql.ErrNoRows), store.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: uniqueViolationCode}, store.ErrDuplicate},
		{"card topic missing", &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: cardsTopicForeignKey}, store.ErrTopicNotFound},
		{"learning card missing", &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: learningCardForeignKey}, store.ErrCardNotFound},
		{"learning topic missing", &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: learningTopicForeignKey}, store.ErrTopicNotFound},
		{"unknown foreign key", &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "other_fkey"}, store.ErrInvalidEntity},
		{"check", &pgconn.PgError{Code: checkViolationCode, ConstraintName: "topics_status_check"}, store.ErrInvalidEntity},
		{"not null", &pgconn.PgError{Code: notNullViolationCode, ColumnName: "title"}, store.ErrInvalidEntity},
		{"unmapped", plain, plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, MapError(tt.err), tt.target)
		})
	}

	assert.NoError(t, MapError(nil))
}

func TestMapErrorKeepsDriverError(t *testing.T) {
	t.Parallel()

	err := MapError(&pgconn.PgError{Code: checkViolationCode, ConstraintName: "topics_status_check"})
	assert.Contains(t, err.Error(), "topics_status_check")

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, checkViolationCode, pgErr.Code)
}

func TestMapDuplicate(t *testing.T) {
	t.Parallel()

	pkey := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: topicsPrimaryKey}
	err := mapDuplicate(fmt.Errorf("exec: %w", pkey), "topic", topicsPrimaryKey)
	require.ErrorIs(t, err, store.ErrDuplicate)
	assert.Contains(t, err.Error(), "topic already exists")

	other := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "topics_title_key"}
	err = mapDuplicate(other, "topic", topicsPrimaryKey)
	require.ErrorIs(t, err, store.ErrDuplicate)
	assert.NotContains(t, err.Error(), "topic already exists")

	plain := errors.New("other")
	assert.Equal(t, plain, mapDuplicate(plain, "topic", topicsPrimaryKey))
}

func TestTopicCreateMapsPrimaryKeyViolation(t *testing.T) {
	t.Parallel()

	db := &failingDB{err: &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: topicsPrimaryKey}}
	topic, err := domain.NewTopic(uuid.New(), "Heart health", "")
	require.NoError(t, err)

	err = NewPostgresTopicStore(db, nil).Create(context.Background(), topic)

	require.ErrorIs(t, err, store.ErrDuplicate)
	assert.Contains(t, err.Error(), "topic already exists")
	var pgErr *pgconn.PgError
	assert.ErrorAs(t, err, &pgErr)
	assert.Equal(t, 1, db.execs)
}

func TestCardCreateMapsMissingTopic(t *testing.T) {
	t.Parallel()

	db := &failingDB{err: &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: cardsTopicForeignKey}}
	card := &domain.Card{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		TopicID:   uuid.New(),
		Order:     1,
		PostType:  domain.PostTypeFlashcard,
		CreatedAt: time.Now().UTC(),
	}

	err := NewPostgresCardStore(db, nil).CreateMultiple(context.Background(), []*domain.Card{card})
	assert.ErrorIs(t, err, store.ErrTopicNotFound)
}

func TestLearningRecordMapsMissingCard(t *testing.T) {
	t.Parallel()

	db := &failingDB{err: &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: learningCardForeignKey}}
	rec, err := domain.NewLearningRecord(uuid.New(), uuid.New(), uuid.New())
	require.NoError(t, err)

	created, err := NewPostgresLearningStore(db, nil).Record(context.Background(), rec)
	assert.False(t, created)
	assert.ErrorIs(t, err, store.ErrCardNotFound)
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, store.ErrTopicNotFound))
	assert.ErrorIs(t, CheckRowsAffected(fakeResult{}, store.ErrTopicNotFound), store.ErrTopicNotFound)
	assert.ErrorIs(t, CheckRowsAffected(fakeResult{}, nil), store.ErrNotFound)
	assert.ErrorContains(t, CheckRowsAffected(fakeResult{err: errors.New("driver")}, nil), "rows affected")
	assert.Error(t, CheckRowsAffected(nil, nil))
}

func TestMigrateRejectsUnknownCommand(t *testing.T) {
	t.Parallel()

	err := Migrate(t.Context(), nil, "sideways", nil)
	assert.ErrorContains(t, err, "unknown migration command")
}

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	entries, err := migrationFS.ReadDir(migrationDir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		data, err := migrationFS.ReadFile(migrationDir + "/" + e.Name())
		require.NoError(t, err)
		assert.Contains(t, string(data), "-- +goose Up", e.Name())
		assert.Contains(t, string(data), "-- +goose Down", e.Name())
	}
}
