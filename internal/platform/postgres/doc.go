// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store and internal/task
// packages. It also carries the schema migrations, embedded into the binary
// and applied with goose.
package postgres
