package database

import (
	"context"
	"database/sql"
	"fmt"
)

// TxRunner wraps a *sql.DB and runs functions inside a transaction.  The
// transaction commits when fn returns nil and rolls back otherwise; the
// rollback also fires when fn panics, via the deferred guard.
type TxRunner struct {
	DB *sql.DB
}

// WithTx begins a transaction, invokes fn, and commits or rolls back based
// on fn's error.  Every multi-row write sequence in the services goes
// through here so the booking rows and their wallet side effects form one
// atomic unit.
func (r TxRunner) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
