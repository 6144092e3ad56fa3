package ledger

import (
	"database/sql"
	"errors"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ResultCode is the closed outcome taxonomy returned by every mutating
// operation. The engine never panics for ordinary domain failures; callers
// inspect the code.
type ResultCode int

const (
	// ResultOK - the operation succeeded.
	ResultOK ResultCode = iota
	// ResultStorageError - generic storage engine failure.
	ResultStorageError
	// ResultStorageOutOfMemory - the storage engine ran out of memory.
	ResultStorageOutOfMemory
	// ResultStorageCorrupt - the ledger file is corrupt or not a ledger.
	ResultStorageCorrupt
	// ResultConstraintViolation - a uniqueness, check or foreign-key
	// constraint rejected the mutation.
	ResultConstraintViolation
	// ResultModificationProhibited - a read-only query path was asked to
	// mutate.
	ResultModificationProhibited
	// ResultRecordNotFound - an update or delete targeted a row that does
	// not exist (zero rows affected, no underlying storage error).
	ResultRecordNotFound
)

// String returns a stable name for the result code.
func (c ResultCode) String() string {
	switch c {
	case ResultOK:
		return "ok"
	case ResultStorageError:
		return "storage_error"
	case ResultStorageOutOfMemory:
		return "storage_out_of_memory"
	case ResultStorageCorrupt:
		return "storage_corrupt"
	case ResultConstraintViolation:
		return "constraint_violation"
	case ResultModificationProhibited:
		return "modification_prohibited"
	case ResultRecordNotFound:
		return "record_not_found"
	}
	return "unknown"
}

// ResultFromError maps a storage error onto the result taxonomy. A nil error
// maps to ResultOK and sql.ErrNoRows to ResultRecordNotFound; SQLite errors
// are classified by their primary result code.
func ResultFromError(err error) ResultCode {
	if err == nil {
		return ResultOK
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ResultRecordNotFound
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			return ResultConstraintViolation
		case sqlite3.SQLITE_NOMEM:
			return ResultStorageOutOfMemory
		case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
			return ResultStorageCorrupt
		case sqlite3.SQLITE_READONLY:
			return ResultModificationProhibited
		}
	}

	return ResultStorageError
}
