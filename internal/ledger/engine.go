// Package ledger implements the investment-ledger storage engine: the owner
// of the persisted schema, atomic mutations over it, the result taxonomy,
// and the change notification bus. An analytics layer reads through the same
// engine; see internal/analytics.
//
// The engine is single-threaded and synchronous. One ledger file is owned
// exclusively by one Ledger instance; callers needing multi-goroutine access
// must serialize externally.
package ledger

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/pViewApp/pview3-sub000/internal/database"
)

// Ledger is the storage engine façade over one open ledger file.
type Ledger struct {
	db     *database.DB
	writes *stmtCache
	reads  *readCache
	sp     savepoints
	bus    Bus
	log    zerolog.Logger

	// Operations never time out or cancel (local embedded storage), so one
	// background context serves every statement.
	ctx context.Context

	inUserTx bool
	lastErr  string
}

// Open builds the engine over an opened database: prepares the mutation
// statement cache on the writer connection and the lazy read cache on the
// query_only reader. The Ledger takes ownership of db; Close releases both.
func Open(db *database.DB, log zerolog.Logger) (*Ledger, error) {
	ctx := context.Background()

	writes, err := newStmtCache(ctx, db.WriterConn())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	l := &Ledger{
		db:     db,
		writes: writes,
		reads:  newReadCache(db.ReaderConn()),
		log:    log.With().Str("component", "ledger").Logger(),
		ctx:    ctx,
	}
	l.sp = savepoints{conn: db.WriterConn(), onRollback: l.notifyRolledBack}
	return l, nil
}

// Close tears down the statement caches and closes the underlying database.
func (l *Ledger) Close() error {
	l.writes.Close()
	l.reads.Close()
	return l.db.Close()
}

// Bus returns the change notification bus. Subscriptions stay valid until
// closed or until the engine is closed.
func (l *Ledger) Bus() *Bus {
	return &l.bus
}

// FilePath returns the path of the open ledger file, or the empty string for
// temporary ledgers.
func (l *Ledger) FilePath() string {
	return l.db.Path()
}

// LastInsertedID returns the row id assigned by the most recent successful
// insert. The value is undefined if another mutation intervened.
func (l *Ledger) LastInsertedID() int64 {
	var id int64
	if err := l.db.WriterConn().QueryRowContext(l.ctx, "SELECT last_insert_rowid()").Scan(&id); err != nil {
		l.lastErr = err.Error()
		return 0
	}
	return id
}

// ErrorMessage returns the storage engine's message for the most recent
// failure, for diagnostics. It is not cleared on success.
func (l *Ledger) ErrorMessage() string {
	return l.lastErr
}

// CopyTo exports a full copy of the ledger to path. Failures are reported
// through the result taxonomy and recorded as the last engine error.
func (l *Ledger) CopyTo(path string) ResultCode {
	if err := l.db.CopyTo(path); err != nil {
		return l.fail("copyTo", err)
	}
	l.log.Info().Str("path", path).Msg("Ledger copied")
	return ResultOK
}

// BeginTransaction opens the single user-visible top-level transaction.
// It is not nestable: beginning while one is open is rejected.
func (l *Ledger) BeginTransaction() ResultCode {
	if l.inUserTx {
		l.lastErr = "a transaction is already in progress"
		return ResultStorageError
	}
	if _, err := l.db.WriterConn().ExecContext(l.ctx, "BEGIN"); err != nil {
		return l.fail("beginTransaction", err)
	}
	l.inUserTx = true
	return ResultOK
}

// CommitTransaction commits the open top-level transaction.
func (l *Ledger) CommitTransaction() ResultCode {
	if !l.inUserTx {
		l.lastErr = "no transaction in progress"
		return ResultStorageError
	}
	if _, err := l.db.WriterConn().ExecContext(l.ctx, "COMMIT"); err != nil {
		return l.fail("commitTransaction", err)
	}
	l.inUserTx = false
	return ResultOK
}

// RollbackTransaction rolls back the open top-level transaction and fires
// the RolledBack signal.
func (l *Ledger) RollbackTransaction() ResultCode {
	if !l.inUserTx {
		l.lastErr = "no transaction in progress"
		return ResultStorageError
	}
	if _, err := l.db.WriterConn().ExecContext(l.ctx, "ROLLBACK"); err != nil {
		return l.fail("rollbackTransaction", err)
	}
	l.inUserTx = false
	l.log.Info().Msg("Transaction rolled back")
	l.notifyRolledBack()
	return ResultOK
}

// notifyRolledBack fires the RolledBack signal unless an internal savepoint
// rollback is unwinding.
func (l *Ledger) notifyRolledBack() {
	if l.sp.suppress {
		return
	}
	l.bus.RolledBack.emit(RolledBack{})
	l.bus.Changed.emit(Changed{})
}

// fail records err as the last engine error, logs it, and maps it onto the
// result taxonomy.
func (l *Ledger) fail(op string, err error) ResultCode {
	l.lastErr = err.Error()
	code := ResultFromError(err)
	l.log.Error().Err(err).Str("op", op).Str("result", code.String()).Msg("Ledger operation failed")
	return code
}

// mutateOne executes a cached single-row update or delete. Zero affected
// rows yields ResultRecordNotFound with no notification; a genuine one-row
// change fires notify and the generic Changed signal.
func (l *Ledger) mutateOne(op string, notify func(), args ...any) ResultCode {
	res, err := l.writes.get(op).ExecContext(l.ctx, args...)
	if err != nil {
		return l.fail(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return l.fail(op, err)
	}
	if n == 0 {
		return ResultRecordNotFound
	}
	if n == 1 {
		notify()
	}
	l.bus.Changed.emit(Changed{})
	return ResultOK
}

// nullableID converts an optional row id (zero means absent) to a nullable
// SQL value.
func nullableID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}
