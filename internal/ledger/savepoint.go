package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

// savepoints provides nested atomic scopes on the writer connection.
// Compound operations open a savepoint, run their statements, then either
// release it (commit) or roll it back. Savepoints nest beneath the optional
// user-initiated top-level transaction without conflicting with it.
//
// An internal rollback performed by a failing compound operation must not be
// reported to observers as a ledger-wide rollback. The transient suppress
// flag is raised around internal rollback calls only; the engine consults it
// before firing the RolledBack signal.
type savepoints struct {
	conn *sql.Conn
	seq  int

	// suppress is true while an internal savepoint rollback is unwinding.
	suppress bool

	// onRollback is invoked after any rollback, internal or user-initiated.
	// The engine points it at its rollback notification, which checks
	// suppress.
	onRollback func()
}

// begin opens a new savepoint and returns its name.
func (s *savepoints) begin(ctx context.Context) (string, error) {
	s.seq++
	name := fmt.Sprintf("sp%d", s.seq)
	if _, err := s.conn.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return "", fmt.Errorf("failed to open savepoint %s: %w", name, err)
	}
	return name, nil
}

// release commits the savepoint.
func (s *savepoints) release(ctx context.Context, name string) error {
	if _, err := s.conn.ExecContext(ctx, "RELEASE "+name); err != nil {
		return fmt.Errorf("failed to release savepoint %s: %w", name, err)
	}
	return nil
}

// rollback undoes the savepoint and then releases it. The suppress flag is
// raised for the duration so the unwind is not observable as a user
// rollback.
func (s *savepoints) rollback(ctx context.Context, name string) error {
	s.suppress = true
	defer func() { s.suppress = false }()

	if _, err := s.conn.ExecContext(ctx, "ROLLBACK TO "+name); err != nil {
		return fmt.Errorf("failed to roll back to savepoint %s: %w", name, err)
	}
	if _, err := s.conn.ExecContext(ctx, "RELEASE "+name); err != nil {
		return fmt.Errorf("failed to release savepoint %s after rollback: %w", name, err)
	}
	if s.onRollback != nil {
		s.onRollback()
	}
	return nil
}
