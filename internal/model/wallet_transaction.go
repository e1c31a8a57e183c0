package model

import "time"

// TransactionType enumerates the kinds of wallet ledger entries.
type TransactionType string

const (
	TxDeposit TransactionType = "DEPOSIT"
	TxPayment TransactionType = "PAYMENT"
	TxRefund  TransactionType = "REFUND"
)

// TransactionStatus enumerates ledger entry states.  Entries written by the
// booking flow are always COMPLETED; PENDING exists for deposit requests
// that an external approval flow settles later.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "PENDING"
	TxCompleted TransactionStatus = "COMPLETED"
)

// WalletTransaction is one ledger entry against a member's prepaid balance.
// A recurring booking series produces exactly one entry carrying the sum
// across all occurrences.
type WalletTransaction struct {
	ID          uint64
	MemberID    uint64
	Amount      int64
	Type        TransactionType
	Description string
	Status      TransactionStatus
	CreatedAt   time.Time
}
