// Package testing provides testing utilities and helpers shared by the
// ledger packages.
package testing

import (
	"fmt"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pViewApp/pview3-sub000/internal/database"
	"github.com/pViewApp/pview3-sub000/internal/ledger"
)

// NewTestDB creates a temporary ledger database file with the schema
// applied. Returns the database and an idempotent cleanup function that
// closes the connection and removes the file. Temporary files rather than
// :memory: keep each test isolated and allow close/reopen round trips.
func NewTestDB(t *testing.T) (*database.DB, func()) {
	t.Helper()

	tmpPath, cleanupFile := CreateTempDBFile(t, "ledger")

	db, err := database.Open(database.Config{
		Path:            tmpPath,
		CreateIfMissing: true,
		Name:            "ledger",
	})
	if err != nil {
		cleanupFile()
		t.Fatalf("Failed to create test database: %v", err)
	}

	return db, func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database: %v", err)
		}
		cleanupFile()
	}
}

// NewTestLedger creates an engine over a temporary ledger file. The cleanup
// function closes the engine (which owns the database) and removes the
// file.
func NewTestLedger(t *testing.T) (*ledger.Ledger, func()) {
	t.Helper()

	tmpPath, cleanupFile := CreateTempDBFile(t, "ledger")
	l := OpenTestLedger(t, tmpPath)

	return l, func() {
		if err := l.Close(); err != nil {
			t.Logf("Warning: Failed to close test ledger: %v", err)
		}
		cleanupFile()
	}
}

// OpenTestLedger opens an engine over the given path, creating the file if
// needed. Useful for close/reopen round-trip tests; the caller closes it.
func OpenTestLedger(t *testing.T, path string) *ledger.Ledger {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:            path,
		CreateIfMissing: true,
		Name:            "ledger",
	})
	if err != nil {
		t.Fatalf("Failed to open test database %s: %v", path, err)
	}

	l, err := ledger.Open(db, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to open test ledger %s: %v", path, err)
	}
	return l
}

// CreateTempDBFile creates a temporary database file path for testing.
// Returns the file path and a cleanup function that removes the file. The
// file itself is removed immediately so the database layer sees a fresh
// path.
func CreateTempDBFile(t *testing.T, name string) (string, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", fmt.Sprintf("%s_*.db", name))
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = os.Remove(tmpPath)

	return tmpPath, func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			t.Logf("Warning: Failed to remove temporary database file %s: %v", tmpPath, err)
		}
		// WAL sidecar files may survive an unclean close.
		_ = os.Remove(tmpPath + "-wal")
		_ = os.Remove(tmpPath + "-shm")
	}
}
