package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/court-club-reservation/internal/model"
)

// MemberRepo provides access to the wallet-relevant columns of the members
// table.  Identity and profile management live elsewhere; this repository
// reads members for validation and updates only tier and wallet columns.
type MemberRepo struct {
	db *sql.DB
}

// NewMemberRepo returns a new MemberRepo bound to the provided database.
func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

// GetByID loads a member outside any transaction.  ErrMemberNotFound is
// returned when no row exists.
func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (*model.Member, error) {
	const q = `SELECT id, full_name, tier, wallet_balance, total_spent
	           FROM members WHERE id = ?`
	return scanMember(r.db.QueryRowContext(ctx, q, id))
}

// GetForUpdateTx loads a member inside the given transaction with a row
// lock.  Concurrent Create requests from the same member serialize on this
// lock, so two simultaneous debits cannot both read the same balance.
func (r *MemberRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Member, error) {
	const q = `SELECT id, full_name, tier, wallet_balance, total_spent
	           FROM members WHERE id = ? FOR UPDATE`
	return scanMember(tx.QueryRowContext(ctx, q, id))
}

// UpdateTierTx persists a recomputed tier.  The caller derives the tier
// from cumulative spend via model.TierForSpend.
func (r *MemberRepo) UpdateTierTx(ctx context.Context, tx *sql.Tx, id uint64, tier model.Tier) error {
	_, err := tx.ExecContext(ctx, `UPDATE members SET tier = ? WHERE id = ?`, int(tier), id)
	return err
}

func scanMember(row *sql.Row) (*model.Member, error) {
	var m model.Member
	var tier int
	err := row.Scan(&m.ID, &m.FullName, &tier, &m.WalletBalance, &m.TotalSpent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	m.Tier = model.Tier(tier)
	return &m, nil
}
