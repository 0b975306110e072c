package db

import (
	"testing"
)

// NewTestDB creates an in-memory index database for testing with
// migrations applied. The database is closed when the test completes.
func NewTestDB(t testing.TB) *DB {
	t.Helper()

	d, err := OpenInMemory()
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	if err := d.Migrate("index"); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() {
		_ = d.Close()
	})

	return d
}
