//go:build integration

// Package testdb provides helpers for database integration tests.
//
// Tests run inside a transaction that is rolled back when the test
// finishes, so they can run in parallel against one database without
// cleanup:
//
//	func TestTopicStore(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.GetTestDBWithT(t)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        topics := postgres.NewPostgresTopicStore(tx, nil)
//	        ...
//	    })
//	}
//
// The database URL is read from DATABASE_URL, falling back to
// LOOPMIND_DATABASE_URL. Tests are skipped when neither is set.
package testdb
