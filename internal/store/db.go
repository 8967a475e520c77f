package store

import (
	"context"
	"database/sql"
)

// DBTX is the query surface the postgres stores run on. *sql.DB and *sql.Tx
// both satisfy it, so one store type serves pooled reads and the writes
// inside RunInTransaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
