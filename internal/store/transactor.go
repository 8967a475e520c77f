package store

import (
	"context"
	"database/sql"
)

// Stores groups the stores a single transaction can touch.
type Stores struct {
	Topics   TopicStore
	Cards    CardStore
	Learning LearningStore
}

// Transactor runs fn with stores bound to one transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

// DBTransactor implements Transactor over RunInTransaction.
type DBTransactor struct {
	db     *sql.DB
	stores Stores
}

// NewDBTransactor creates a Transactor whose stores are rebound to each
// transaction with their WithTx methods.
func NewDBTransactor(db *sql.DB, stores Stores) *DBTransactor {
	return &DBTransactor{db: db, stores: stores}
}

// InTx implements Transactor.
func (t *DBTransactor) InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	return RunInTransaction(ctx, t.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, t.stores.WithTx(tx))
	})
}

// WithTx returns a copy of s with every store bound to tx.
func (s Stores) WithTx(tx *sql.Tx) Stores {
	return Stores{
		Topics:   s.Topics.WithTx(tx),
		Cards:    s.Cards.WithTx(tx),
		Learning: s.Learning.WithTx(tx),
	}
}
