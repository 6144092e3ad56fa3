// Package database provides the SQLite connection layer for one ledger file.
//
// A ledger file is owned exclusively by one DB instance. The instance pins
// two connections for its whole lifetime: a writer used for every mutation
// (savepoints and last_insert_rowid() are connection-local state) and a
// reader with query_only enabled, so that read paths physically cannot
// mutate the file.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// schemaVersion is stamped into PRAGMA user_version when a ledger file is
// created. Opening a file with a different non-zero version fails.
const schemaVersion = 1

// Config holds database configuration
type Config struct {
	Path            string // Ledger file path; empty opens a private temporary ledger
	CreateIfMissing bool   // Create the file when it does not exist
	Name            string // Friendly name for logging (e.g., "ledger")
}

// DB wraps one open ledger file with its pinned connections.
type DB struct {
	pool   *sql.DB
	writer *sql.Conn
	reader *sql.Conn
	path   string // empty for temporary ledgers
	name   string
}

// Open opens (or creates) the ledger file described by cfg and initializes
// its schema. This is the only operation in the storage core that fails
// fatally: no valid engine can exist over a file that cannot be opened.
func Open(cfg Config) (*DB, error) {
	connStr, path, err := buildConnectionString(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}

	// Exactly the two pinned connections; nothing else ever touches the file.
	pool.SetMaxOpenConns(2)
	pool.SetMaxIdleConns(2)

	ctx := context.Background()

	writer, err := pool.Conn(ctx)
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to acquire writer connection for %s: %w", cfg.Name, err)
	}

	if err := initSchema(ctx, writer); err != nil {
		_ = writer.Close()
		_ = pool.Close()
		return nil, fmt.Errorf("failed to initialize schema for %s: %w", cfg.Name, err)
	}

	reader, err := pool.Conn(ctx)
	if err != nil {
		_ = writer.Close()
		_ = pool.Close()
		return nil, fmt.Errorf("failed to acquire reader connection for %s: %w", cfg.Name, err)
	}

	if _, err := reader.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		_ = pool.Close()
		return nil, fmt.Errorf("failed to set query_only on reader for %s: %w", cfg.Name, err)
	}

	return &DB{
		pool:   pool,
		writer: writer,
		reader: reader,
		path:   path,
		name:   cfg.Name,
	}, nil
}

// buildConnectionString creates the SQLite connection string with the ledger
// PRAGMAs and resolves the on-disk path. The returned path is empty for
// temporary ledgers.
func buildConnectionString(cfg Config) (connStr string, path string, err error) {
	if cfg.Path == "" {
		// Private in-memory ledger shared between the two pinned connections.
		name := uuid.New().String()
		connStr = fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=journal_mode(MEMORY)", name)
	} else {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return "", "", fmt.Errorf("failed to resolve database path to absolute: %w", err)
		}
		if _, statErr := os.Stat(absPath); statErr != nil {
			if !os.IsNotExist(statErr) {
				return "", "", fmt.Errorf("failed to stat database file: %w", statErr)
			}
			if !cfg.CreateIfMissing {
				return "", "", fmt.Errorf("ledger file does not exist: %s", absPath)
			}
			if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
				return "", "", fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		path = absPath
		connStr = absPath + "?_pragma=journal_mode(WAL)"
	}

	// Ledger profile: maximum safety for an audit trail of real money.
	connStr += "&_pragma=synchronous(FULL)"
	connStr += "&_pragma=foreign_keys(1)"
	connStr += "&_pragma=busy_timeout(5000)"

	return connStr, path, nil
}

// initSchema applies the ledger schema inside one transaction and verifies
// the version stamp. Creation is idempotent (CREATE TABLE IF NOT EXISTS).
func initSchema(ctx context.Context, conn *sql.Conn) error {
	var version int
	if err := conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read user_version: %w", err)
	}

	switch version {
	case 0:
		// Fresh file: create tables and stamp the version.
	case schemaVersion:
		return nil
	default:
		return fmt.Errorf("unsupported ledger schema version %d (expected %d)", version, schemaVersion)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}

	if _, err := tx.Exec(Schema); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to create ledger schema: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger schema: %w", err)
	}

	// user_version cannot be stamped with a bound parameter.
	stamp := fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)
	if _, err := conn.ExecContext(ctx, stamp); err != nil {
		return fmt.Errorf("failed to stamp schema version: %w", err)
	}

	return nil
}

// Close closes the pinned connections and the underlying pool.
func (db *DB) Close() error {
	var firstErr error
	if err := db.reader.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := db.writer.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := db.pool.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// WriterConn returns the pinned writer connection. All mutations, savepoints
// and last_insert_rowid() queries must go through it.
func (db *DB) WriterConn() *sql.Conn {
	return db.writer
}

// ReaderConn returns the pinned query_only reader connection.
func (db *DB) ReaderConn() *sql.Conn {
	return db.reader
}

// Name returns the database name for logging
func (db *DB) Name() string {
	return db.name
}

// Path returns the ledger file path. Temporary ledgers have no path.
func (db *DB) Path() string {
	return db.path
}

// CopyTo exports a full copy of the ledger to the given file path using
// VACUUM INTO. The target must not already exist.
func (db *DB) CopyTo(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve backup path: %w", err)
	}
	if _, err := db.writer.ExecContext(context.Background(), "VACUUM INTO ?", absPath); err != nil {
		return fmt.Errorf("failed to copy ledger to %s: %w", absPath, err)
	}
	return nil
}

// HealthCheck performs a comprehensive health check on the database. Both
// probes go through the pinned connections: the pool holds nothing beyond
// the pinned pair, so asking it for a fresh connection would block forever.
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.writer.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed for %s: %w", db.name, err)
	}

	var integrityResult string
	err := db.reader.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrityResult)
	if err != nil {
		return fmt.Errorf("integrity check query failed for %s: %w", db.name, err)
	}

	if integrityResult != "ok" {
		return fmt.Errorf("integrity check failed for %s: %s", db.name, integrityResult)
	}

	return nil
}
