package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/iliyamo/court-club-reservation/internal/model"
	"github.com/iliyamo/court-club-reservation/internal/queue"
	"github.com/iliyamo/court-club-reservation/internal/repository"
)

// The fakes below satisfy the service ports with plain in-memory state so
// the flows can run without MySQL.  The transaction runner invokes the
// function with a nil *sql.Tx; the fakes ignore the tx argument entirely.

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

type fakeBookings struct {
	rows   map[uint64]*model.Booking
	nextID uint64
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{rows: make(map[uint64]*model.Booking)}
}

func (f *fakeBookings) add(b model.Booking) uint64 {
	f.nextID++
	b.ID = f.nextID
	f.rows[b.ID] = &b
	return b.ID
}

func (f *fakeBookings) onDate(courtID uint64, date time.Time) []model.Booking {
	var out []model.Booking
	for _, b := range f.rows {
		if b.CourtID == courtID && b.BookingDate.Equal(date) && b.Status != model.StatusCancelled {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartMinute < out[j].StartMinute })
	return out
}

func (f *fakeBookings) ListForSlotDateTx(_ context.Context, _ *sql.Tx, courtID uint64, date time.Time) ([]model.Booking, error) {
	return f.onDate(courtID, date), nil
}

func (f *fakeBookings) ListForCourtDate(_ context.Context, courtID uint64, date time.Time) ([]model.Booking, error) {
	return f.onDate(courtID, date), nil
}

func (f *fakeBookings) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	b, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) GetByIDTx(ctx context.Context, _ *sql.Tx, id uint64) (*model.Booking, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeBookings) InsertTx(_ context.Context, _ *sql.Tx, b *model.Booking) error {
	b.ID = f.add(*b)
	return nil
}

func (f *fakeBookings) ExtendHoldTx(_ context.Context, _ *sql.Tx, id uint64, expiresAt time.Time) error {
	b, ok := f.rows[id]
	if !ok || b.Status != model.StatusHolding {
		return repository.ErrBookingNotFound
	}
	e := expiresAt
	b.HoldExpiry = &e
	return nil
}

func (f *fakeBookings) DeleteTx(_ context.Context, _ *sql.Tx, id uint64) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeBookings) DeleteOwnHoldsTx(_ context.Context, _ *sql.Tx, courtID, memberID uint64, date time.Time) error {
	for id, b := range f.rows {
		if b.CourtID == courtID && b.MemberID == memberID && b.BookingDate.Equal(date) && b.Status == model.StatusHolding {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeBookings) UpdateStatusTx(_ context.Context, _ *sql.Tx, id uint64, status model.BookingStatus) error {
	b, ok := f.rows[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	b.Status = status
	b.HoldExpiry = nil
	return nil
}

func (f *fakeBookings) ExpiredHoldsTx(_ context.Context, _ *sql.Tx, now time.Time) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range f.rows {
		if b.HoldExpired(now) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookings) List(_ context.Context, flt repository.BookingFilter) ([]repository.BookingDetail, error) {
	var out []repository.BookingDetail
	for _, b := range f.rows {
		if flt.CourtID != 0 && b.CourtID != flt.CourtID {
			continue
		}
		if flt.MemberID != 0 && b.MemberID != flt.MemberID {
			continue
		}
		if flt.From != nil && b.BookingDate.Before(*flt.From) {
			continue
		}
		if flt.To != nil && b.BookingDate.After(*flt.To) {
			continue
		}
		out = append(out, repository.BookingDetail{Booking: *b})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BookingDate.Equal(out[j].BookingDate) {
			return out[i].BookingDate.After(out[j].BookingDate)
		}
		return out[i].StartMinute < out[j].StartMinute
	})
	return out, nil
}

type fakeCourts struct {
	courts map[uint64]*model.Court
}

func newFakeCourts(courts ...model.Court) *fakeCourts {
	f := &fakeCourts{courts: make(map[uint64]*model.Court)}
	for i := range courts {
		c := courts[i]
		f.courts[c.ID] = &c
	}
	return f
}

func (f *fakeCourts) GetByID(_ context.Context, id uint64) (*model.Court, error) {
	c, ok := f.courts[id]
	if !ok {
		return nil, repository.ErrCourtNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCourts) ListActive(_ context.Context) ([]model.Court, error) {
	var out []model.Court
	for _, c := range f.courts {
		if c.IsActive {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeMembers backs both the MemberStore and the WalletLedger, mirroring the
// schema where the wallet columns live on the members table.
type fakeMembers struct {
	members map[uint64]*model.Member
	txs     []model.WalletTransaction
}

func newFakeMembers(members ...model.Member) *fakeMembers {
	f := &fakeMembers{members: make(map[uint64]*model.Member)}
	for i := range members {
		m := members[i]
		f.members[m.ID] = &m
	}
	return f
}

func (f *fakeMembers) GetByID(_ context.Context, id uint64) (*model.Member, error) {
	m, ok := f.members[id]
	if !ok {
		return nil, repository.ErrMemberNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMembers) GetForUpdateTx(ctx context.Context, _ *sql.Tx, id uint64) (*model.Member, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeMembers) UpdateTierTx(_ context.Context, _ *sql.Tx, id uint64, tier model.Tier) error {
	m, ok := f.members[id]
	if !ok {
		return repository.ErrMemberNotFound
	}
	m.Tier = tier
	return nil
}

func (f *fakeMembers) TryDebitTx(_ context.Context, _ *sql.Tx, memberID uint64, amount int64) error {
	m, ok := f.members[memberID]
	if !ok {
		return repository.ErrMemberNotFound
	}
	if m.WalletBalance < amount {
		return repository.ErrInsufficientFunds
	}
	m.WalletBalance -= amount
	m.TotalSpent += amount
	return nil
}

func (f *fakeMembers) CreditTx(_ context.Context, _ *sql.Tx, memberID uint64, amount int64) error {
	m, ok := f.members[memberID]
	if !ok {
		return repository.ErrMemberNotFound
	}
	m.WalletBalance += amount
	return nil
}

func (f *fakeMembers) RecordTransactionTx(_ context.Context, _ *sql.Tx, t *model.WalletTransaction) error {
	cp := *t
	cp.ID = uint64(len(f.txs) + 1)
	f.txs = append(f.txs, cp)
	return nil
}

func (f *fakeMembers) ListTransactions(_ context.Context, memberID uint64) ([]model.WalletTransaction, error) {
	var out []model.WalletTransaction
	for i := len(f.txs) - 1; i >= 0; i-- {
		if f.txs[i].MemberID == memberID {
			out = append(out, f.txs[i])
		}
	}
	return out, nil
}

type fakeBroadcaster struct {
	held     []queue.SlotHeldEvent
	released []queue.SlotReleasedEvent
	updated  []queue.BookingUpdatedEvent
	notices  []queue.MemberNotification
}

func (f *fakeBroadcaster) SlotHeld(_ context.Context, ev queue.SlotHeldEvent) {
	f.held = append(f.held, ev)
}

func (f *fakeBroadcaster) SlotReleased(_ context.Context, ev queue.SlotReleasedEvent) {
	f.released = append(f.released, ev)
}

func (f *fakeBroadcaster) BookingUpdated(_ context.Context, ev queue.BookingUpdatedEvent) {
	f.updated = append(f.updated, ev)
}

func (f *fakeBroadcaster) Notify(_ context.Context, n queue.MemberNotification) {
	f.notices = append(f.notices, n)
}
