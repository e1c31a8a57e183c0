package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/court-club-reservation/internal/model"
)

// WalletService exposes the member-facing wallet reads and the deposit
// credit path.  Deposits here are settled immediately; approval workflows
// belong to the external admin surface.
type WalletService struct {
	txr     TxRunner
	members MemberStore
	ledger  WalletLedger
	clock   Clock
}

// NewWalletService constructs the service.  A nil clock defaults to
// time.Now.
func NewWalletService(txr TxRunner, members MemberStore, ledger WalletLedger, clock Clock) *WalletService {
	if txr == nil || members == nil || ledger == nil {
		panic("nil dependency passed to NewWalletService")
	}
	if clock == nil {
		clock = time.Now
	}
	return &WalletService{txr: txr, members: members, ledger: ledger, clock: clock}
}

// WalletOverview is the member's wallet state plus ledger history,
// newest entry first.
type WalletOverview struct {
	Balance    int64
	Tier       model.Tier
	TotalSpent int64
	History    []model.WalletTransaction
}

// Overview returns the wallet view for one member.
func (s *WalletService) Overview(ctx context.Context, memberID uint64) (*WalletOverview, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	history, err := s.ledger.ListTransactions(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return &WalletOverview{
		Balance:    member.WalletBalance,
		Tier:       member.Tier,
		TotalSpent: member.TotalSpent,
		History:    history,
	}, nil
}

// Deposit credits the member's balance and records a ledger entry, both in
// one transaction.  The new balance is returned.
func (s *WalletService) Deposit(ctx context.Context, memberID uint64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: deposit must be positive", ErrInvalidAmount)
	}
	var newBalance int64
	err := s.txr.WithTx(ctx, func(tx *sql.Tx) error {
		member, err := s.members.GetForUpdateTx(ctx, tx, memberID)
		if err != nil {
			return err
		}
		if err := s.ledger.CreditTx(ctx, tx, memberID, amount); err != nil {
			return err
		}
		if err := s.ledger.RecordTransactionTx(ctx, tx, &model.WalletTransaction{
			MemberID:    memberID,
			Amount:      amount,
			Type:        model.TxDeposit,
			Description: fmt.Sprintf("wallet deposit of %d", amount),
			Status:      model.TxCompleted,
			CreatedAt:   s.clock().UTC(),
		}); err != nil {
			return err
		}
		newBalance = member.WalletBalance + amount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}
