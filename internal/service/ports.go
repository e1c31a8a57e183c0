// Package service orchestrates the reservation flows: soft holds, releases,
// paid (optionally recurring) bookings and queries.  The service depends on
// narrow store and port interfaces rather than concrete repositories so the
// flows can be exercised in tests with in-memory fakes; production wiring
// passes the MySQL repositories, which satisfy these interfaces directly.
package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/court-club-reservation/internal/model"
	"github.com/iliyamo/court-club-reservation/internal/queue"
	"github.com/iliyamo/court-club-reservation/internal/repository"
)

// Clock supplies the current instant.  Hold expiry and reaping compare
// against this single capability instead of calling time.Now directly, so
// tests can advance time deterministically.
type Clock func() time.Time

// TxRunner executes a function within one database transaction, committing
// when the function returns nil and rolling back otherwise.  Every
// multi-row write in the service runs under exactly one TxRunner call.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// BookingStore is the persistence surface for booking rows.  The Tx-suffixed
// methods participate in a transaction owned by the caller.
type BookingStore interface {
	ListForSlotDateTx(ctx context.Context, tx *sql.Tx, courtID uint64, date time.Time) ([]model.Booking, error)
	ListForCourtDate(ctx context.Context, courtID uint64, date time.Time) ([]model.Booking, error)
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error)
	InsertTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	ExtendHoldTx(ctx context.Context, tx *sql.Tx, id uint64, expiresAt time.Time) error
	DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error
	DeleteOwnHoldsTx(ctx context.Context, tx *sql.Tx, courtID, memberID uint64, date time.Time) error
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.BookingStatus) error
	ExpiredHoldsTx(ctx context.Context, tx *sql.Tx, now time.Time) ([]model.Booking, error)
	List(ctx context.Context, f repository.BookingFilter) ([]repository.BookingDetail, error)
}

// CourtStore is the read-only persistence surface for courts.
type CourtStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Court, error)
	ListActive(ctx context.Context) ([]model.Court, error)
}

// MemberStore is the persistence surface for member rows.  GetForUpdateTx
// must lock the row so concurrent Create requests from one member serialize.
type MemberStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Member, error)
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Member, error)
	UpdateTierTx(ctx context.Context, tx *sql.Tx, id uint64, tier model.Tier) error
}

// WalletLedger is the consumed interface of the external wallet subsystem.
// All three booking-path operations execute within the same transaction as
// the booking-row writes: when TryDebitTx fails, nothing is persisted.
type WalletLedger interface {
	TryDebitTx(ctx context.Context, tx *sql.Tx, memberID uint64, amount int64) error
	CreditTx(ctx context.Context, tx *sql.Tx, memberID uint64, amount int64) error
	RecordTransactionTx(ctx context.Context, tx *sql.Tx, t *model.WalletTransaction) error
	ListTransactions(ctx context.Context, memberID uint64) ([]model.WalletTransaction, error)
}

// Broadcaster announces slot and booking state changes to interested
// clients.  Every method is best-effort: implementations log failures and
// never propagate them, so a broadcast can neither block nor roll back a
// committed booking.
type Broadcaster interface {
	SlotHeld(ctx context.Context, ev queue.SlotHeldEvent)
	SlotReleased(ctx context.Context, ev queue.SlotReleasedEvent)
	BookingUpdated(ctx context.Context, ev queue.BookingUpdatedEvent)
	Notify(ctx context.Context, n queue.MemberNotification)
}
