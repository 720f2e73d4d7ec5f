package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

// createTestStore creates an isolated on-disk store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ns wraps a string as a valid (non-NULL) column value.
func ns(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

// null is the NULL column value.
var null = sql.NullString{}

// testPairTable returns a pair table bound to the secrets schema table, which
// carries unique indexes on both columns.
func testPairTable(t *testing.T) *PairTable {
	t.Helper()
	return NewSecretStore(createTestStore(t)).Table()
}

// mustInsert inserts a row or fails the test.
func mustInsert(t *testing.T, pt *PairTable, left, right sql.NullString) Row {
	t.Helper()
	row, err := pt.Insert(context.Background(), left, right)
	if err != nil {
		t.Fatalf("Insert(%v, %v) failed: %v", left, right, err)
	}
	return row
}
