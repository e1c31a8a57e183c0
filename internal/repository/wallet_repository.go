package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/court-club-reservation/internal/model"
)

// WalletRepo is the MySQL implementation of the wallet ledger consumed by
// the reservation flow.  Debits and credits mutate the member row and the
// ledger table within a caller-supplied transaction so that booking writes
// and their payment commit or roll back together.
type WalletRepo struct {
	db *sql.DB
}

// NewWalletRepo returns a new WalletRepo bound to the provided database.
func NewWalletRepo(db *sql.DB) *WalletRepo { return &WalletRepo{db: db} }

// TryDebitTx subtracts amount from the member's balance and adds it to
// cumulative spend.  The WHERE clause guards against overdraft: when the
// balance is lower than amount no row is updated and ErrInsufficientFunds
// is returned, leaving the transaction free to roll back with no effects.
func (r *WalletRepo) TryDebitTx(ctx context.Context, tx *sql.Tx, memberID uint64, amount int64) error {
	const q = `UPDATE members
	           SET wallet_balance = wallet_balance - ?, total_spent = total_spent + ?
	           WHERE id = ? AND wallet_balance >= ?`
	res, err := tx.ExecContext(ctx, q, amount, amount, memberID, amount)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// CreditTx adds amount to the member's balance.
func (r *WalletRepo) CreditTx(ctx context.Context, tx *sql.Tx, memberID uint64, amount int64) error {
	const q = `UPDATE members SET wallet_balance = wallet_balance + ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, amount, memberID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// RecordTransactionTx appends one ledger entry.  A recurring booking
// series writes a single entry carrying the total across all occurrences.
func (r *WalletRepo) RecordTransactionTx(ctx context.Context, tx *sql.Tx, t *model.WalletTransaction) error {
	const q = `INSERT INTO wallet_transactions (member_id, amount, type, description, status, created_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		t.MemberID, t.Amount, string(t.Type), t.Description, string(t.Status), t.CreatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// ListTransactions returns a member's ledger entries, newest first.
func (r *WalletRepo) ListTransactions(ctx context.Context, memberID uint64) ([]model.WalletTransaction, error) {
	const q = `SELECT id, member_id, amount, type, description, status, created_at
	           FROM wallet_transactions WHERE member_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.WalletTransaction
	for rows.Next() {
		var t model.WalletTransaction
		var typ, status string
		if err := rows.Scan(&t.ID, &t.MemberID, &t.Amount, &typ, &t.Description, &status, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Type = model.TransactionType(typ)
		t.Status = model.TransactionStatus(status)
		out = append(out, t)
	}
	return out, rows.Err()
}
