package sqlstore

import (
	"context"
	"testing"

	"github.com/appetiteclub/apt"
)

// NewTestRepo returns a repo over a fresh in-memory SQLite database with the
// schema applied.
func NewTestRepo(t *testing.T) *OrderItemRepo {
	t.Helper()

	db, err := Open(context.Background(), DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := EnsureSchema(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return NewOrderItemRepoWithDB(db, DialectSQLite, apt.NewNoopLogger())
}
