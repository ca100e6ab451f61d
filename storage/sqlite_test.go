package storage

import (
	"context"
	"testing"
)

// setupSQLite creates an in-memory SQLite store for testing.
func setupSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return s
}

func TestSQLiteStore(t *testing.T) {
	exerciseStore(t, setupSQLite(t))
}

func TestSQLiteStorePing(t *testing.T) {
	s := setupSQLite(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
