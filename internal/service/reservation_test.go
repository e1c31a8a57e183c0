package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/court-club-reservation/internal/model"
	"github.com/iliyamo/court-club-reservation/internal/repository"
	"github.com/iliyamo/court-club-reservation/internal/schedule"
)

type fixture struct {
	svc       *ReservationService
	bookings  *fakeBookings
	members   *fakeMembers
	broadcast *fakeBroadcaster
	now       time.Time
}

func newFixture(t *testing.T, members ...model.Member) *fixture {
	t.Helper()
	if len(members) == 0 {
		members = []model.Member{{ID: 1, FullName: "Ada", Tier: model.TierBronze, WalletBalance: 10_000_000}}
	}
	f := &fixture{
		bookings:  newFakeBookings(),
		members:   newFakeMembers(members...),
		broadcast: &fakeBroadcaster{},
		now:       time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	courts := newFakeCourts(
		model.Court{ID: 1, Name: "Center Court", Type: "TENNIS", PricePerHour: 600_000, IsActive: true},
		model.Court{ID: 2, Name: "Old Court", Type: "TENNIS", PricePerHour: 600_000, IsActive: false},
	)
	f.svc = NewReservationService(fakeTxRunner{}, f.bookings, courts, f.members, f.members, f.broadcast, func() time.Time { return f.now })
	return f
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHoldCreatesSoftHold(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Hold(context.Background(), HoldRequest{
		CourtID: 1, MemberID: 1, Date: date(2026, 3, 5), StartMinute: 600, EndMinute: 660,
	})
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(HoldTTL), res.ExpiresAt)

	b, err := f.bookings.GetByID(context.Background(), res.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusHolding, b.Status)
	require.NotNil(t, b.HoldExpiry)
	assert.Equal(t, f.now.Add(HoldTTL), *b.HoldExpiry)
	require.Len(t, f.broadcast.held, 1)
	assert.Equal(t, "10:00", f.broadcast.held[0].StartTime)
}

func TestHoldSameSlotExtendsInsteadOfDuplicating(t *testing.T) {
	f := newFixture(t)
	req := HoldRequest{CourtID: 1, MemberID: 1, Date: date(2026, 3, 5), StartMinute: 600, EndMinute: 660}

	first, err := f.svc.Hold(context.Background(), req)
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Minute)
	second, err := f.svc.Hold(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.BookingID, second.BookingID)
	assert.True(t, second.ExpiresAt.After(first.ExpiresAt))
	assert.Len(t, f.bookings.rows, 1)
}

func TestHoldExpiredOwnHoldIsNotExtended(t *testing.T) {
	f := newFixture(t)
	req := HoldRequest{CourtID: 1, MemberID: 1, Date: date(2026, 3, 5), StartMinute: 600, EndMinute: 660}

	first, err := f.svc.Hold(context.Background(), req)
	require.NoError(t, err)

	// Past the TTL the stale row must not be resurrected; the request runs
	// as a fresh hold and replaces it.
	f.now = f.now.Add(HoldTTL + time.Second)
	second, err := f.svc.Hold(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, first.BookingID, second.BookingID)
	assert.Len(t, f.bookings.rows, 1)
	_, err = f.bookings.GetByID(context.Background(), first.BookingID)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestHoldAfterExpiryConflictsWithInterveningBooking(t *testing.T) {
	f := newFixture(t, model.Member{ID: 1, FullName: "Ada", WalletBalance: 10_000_000},
		model.Member{ID: 2, FullName: "Bea", WalletBalance: 10_000_000})
	req := HoldRequest{CourtID: 1, MemberID: 1, Date: date(2026, 3, 5), StartMinute: 600, EndMinute: 660}

	_, err := f.svc.Hold(context.Background(), req)
	require.NoError(t, err)

	// The hold lapses and another member books an overlapping interval.
	f.now = f.now.Add(HoldTTL + time.Second)
	_, err = f.svc.Create(context.Background(), CreateRequest{
		CourtID: 1, MemberID: 2, Date: date(2026, 3, 5), StartMinute: 630, EndMinute: 690,
	})
	require.NoError(t, err)

	// Re-holding the lapsed slot must fail instead of reviving the stale
	// row over the confirmed booking.
	_, err = f.svc.Hold(context.Background(), req)
	assert.ErrorIs(t, err, ErrSlotConflict)

	// The genuinely free leading span stays available to anyone.
	_, err = f.svc.Hold(context.Background(), HoldRequest{
		CourtID: 1, MemberID: 2, Date: date(2026, 3, 5), StartMinute: 600, EndMinute: 630,
	})
	assert.NoError(t, err)
}

func TestHoldConflictsWithAnotherMembersLiveHold(t *testing.T) {
	f := newFixture(t)
	expiry := f.now.Add(3 * time.Minute)
	f.bookings.add(model.Booking{
		CourtID: 1, MemberID: 2, BookingDate: date(2026, 3, 5),
		StartMinute: 630, EndMinute: 690, Status: model.StatusHolding, HoldExpiry: &expiry,
	})

	_, err := f.svc.Hold(context.Background(), HoldRequest{
		CourtID: 1, MemberID: 1, Date: date(2026, 3, 5), StartMinute: 600, EndMinute: 660,
	})
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestHoldTreatsExpiredHoldAsAbsent(t *testing.T) {
	f := newFixture(t)
	expiry := f.now.Add(-time.Second)
	f.bookings.add(model.Booking{
		CourtID: 1, MemberID: 2, BookingDate: date(2026, 3, 5),
		StartMinute: 600, EndMinute: 660, Status: model.StatusHolding, HoldExpiry: &expiry,
	})

	_, err := f.svc.Hold(context.Background(), HoldRequest{
		CourtID: 1, MemberID: 1, Date: date(2026, 3, 5), StartMinute: 600, EndMinute: 660,
	})
	assert.NoError(t, err)
}

func TestHoldAdjacentIntervalsDoNotConflict(t *testing.T) {
	f := newFixture(t)
	f.bookings.add(model.Booking{
		CourtID: 1, MemberID: 2, BookingDate: date(2026, 3, 5),
		StartMinute: 540, EndMinute: 600, Status: model.StatusConfirmed,
	})

	_, err := f.svc.Hold(context.Background(), HoldRequest{
		CourtID: 1, MemberID: 1, Date: date(2026, 3, 5), StartMinute: 600, EndMinute: 660,
	})
	assert.NoError(t, err)
}

func TestHoldRejectsInactiveCourt(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Hold(context.Background(), HoldRequest{
		CourtID: 2, MemberID: 1, Date: date(2026, 3, 5), StartMinute: 600, EndMinute: 660,
	})
	assert.ErrorIs(t, err, ErrCourtInactive)
}

func TestHoldRejectsMalformedInterval(t *testing.T) {
	f := newFixture(t)
	for _, tc := range []struct{ start, end int }{
		{600, 600},
		{660, 600},
		{-10, 60},
		{600, 25 * 60},
	} {
		_, err := f.svc.Hold(context.Background(), HoldRequest{
			CourtID: 1, MemberID: 1, Date: date(2026, 3, 5), StartMinute: tc.start, EndMinute: tc.end,
		})
		assert.ErrorIs(t, err, ErrInvalidInterval, "interval [%d,%d)", tc.start, tc.end)
	}
}

func TestReleaseRemovesOwnHold(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Hold(context.Background(), HoldRequest{
		CourtID: 1, MemberID: 1, Date: date(2026, 3, 5), StartMinute: 600, EndMinute: 660,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Release(context.Background(), res.BookingID, 1))
	assert.Empty(t, f.bookings.rows)
	require.Len(t, f.broadcast.released, 1)
	assert.Equal(t, "2026-03-05", f.broadcast.released[0].BookingDate)
}

func TestReleaseHidesOtherMembersHold(t *testing.T) {
	f := newFixture(t)
	expiry := f.now.Add(time.Minute)
	id := f.bookings.add(model.Booking{
		CourtID: 1, MemberID: 2, BookingDate: date(2026, 3, 5),
		StartMinute: 600, EndMinute: 660, Status: model.StatusHolding, HoldExpiry: &expiry,
	})

	err := f.svc.Release(context.Background(), id, 1)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
	assert.Len(t, f.bookings.rows, 1)
}

func TestReleaseRejectsConfirmedBooking(t *testing.T) {
	f := newFixture(t)
	id := f.bookings.add(model.Booking{
		CourtID: 1, MemberID: 1, BookingDate: date(2026, 3, 5),
		StartMinute: 600, EndMinute: 660, Status: model.StatusConfirmed,
	})

	err := f.svc.Release(context.Background(), id, 1)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCreateSingleBookingDebitsAndConfirms(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Create(context.Background(), CreateRequest{
		CourtID: 1, MemberID: 1, Date: date(2026, 3, 5), StartMinute: 600, EndMinute: 690,
	})
	require.NoError(t, err)

	// 90 minutes at 600000/hour.
	assert.Equal(t, int64(900_000), res.TotalPrice)
	assert.Equal(t, int64(9_100_000), res.NewBalance)
	require.Len(t, res.BookingIDs, 1)
	assert.Nil(t, res.SeriesID)

	b, err := f.bookings.GetByID(context.Background(), res.BookingIDs[0])
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, b.Status)
	assert.Nil(t, b.HoldExpiry)

	require.Len(t, f.members.txs, 1)
	assert.Equal(t, model.TxPayment, f.members.txs[0].Type)
	assert.Equal(t, int64(900_000), f.members.txs[0].Amount)
	assert.Len(t, f.broadcast.updated, 1)
	assert.Len(t, f.broadcast.notices, 1)
}

func TestCreateSupersedesOwnHold(t *testing.T) {
	f := newFixture(t)
	held, err := f.svc.Hold(context.Background(), HoldRequest{
		CourtID: 1, MemberID: 1, Date: date(2026, 3, 5), StartMinute: 600, EndMinute: 660,
	})
	require.NoError(t, err)

	res, err := f.svc.Create(context.Background(), CreateRequest{
		CourtID: 1, MemberID: 1, Date: date(2026, 3, 5), StartMinute: 600, EndMinute: 660,
	})
	require.NoError(t, err)

	_, err = f.bookings.GetByID(context.Background(), held.BookingID)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
	assert.Len(t, f.bookings.rows, 1)
	assert.NotEqual(t, held.BookingID, res.BookingIDs[0])
}

func TestCreateBlockedByAnotherMembersHold(t *testing.T) {
	f := newFixture(t)
	expiry := f.now.Add(3 * time.Minute)
	f.bookings.add(model.Booking{
		CourtID: 1, MemberID: 2, BookingDate: date(2026, 3, 5),
		StartMinute: 600, EndMinute: 660, Status: model.StatusHolding, HoldExpiry: &expiry,
	})

	_, err := f.svc.Create(context.Background(), CreateRequest{
		CourtID: 1, MemberID: 1, Date: date(2026, 3, 5), StartMinute: 600, EndMinute: 660,
	})
	assert.ErrorIs(t, err, ErrSlotConflict)

	m, _ := f.members.GetByID(context.Background(), 1)
	assert.Equal(t, int64(10_000_000), m.WalletBalance)
}

func TestCreateInsufficientFundsLeavesEverythingUntouched(t *testing.T) {
	f := newFixture(t, model.Member{ID: 1, FullName: "Ada", WalletBalance: 100})
	_, err := f.svc.Create(context.Background(), CreateRequest{
		CourtID: 1, MemberID: 1, Date: date(2026, 3, 5), StartMinute: 600, EndMinute: 660,
	})
	require.ErrorIs(t, err, repository.ErrInsufficientFunds)

	assert.Empty(t, f.bookings.rows)
	assert.Empty(t, f.members.txs)
	assert.Empty(t, f.broadcast.updated)
	m, _ := f.members.GetByID(context.Background(), 1)
	assert.Equal(t, int64(100), m.WalletBalance)
}

func TestCreateRecurringRequiresGoldTier(t *testing.T) {
	f := newFixture(t, model.Member{ID: 1, FullName: "Ada", Tier: model.TierSilver, WalletBalance: 50_000_000})
	end := date(2026, 3, 23)
	_, err := f.svc.Create(context.Background(), CreateRequest{
		CourtID: 1, MemberID: 1, Date: date(2026, 3, 2), StartMinute: 600, EndMinute: 660,
		IsRecurring: true, RecurrenceType: model.RecurrenceWeekly, RecurrenceEnd: &end,
	})
	assert.ErrorIs(t, err, ErrTierTooLow)
	assert.Empty(t, f.bookings.rows)
}

func TestCreateWeeklySeriesIsAtomic(t *testing.T) {
	f := newFixture(t, model.Member{ID: 1, FullName: "Ada", Tier: model.TierGold, WalletBalance: 50_000_000})
	end := date(2026, 3, 23)
	res, err := f.svc.Create(context.Background(), CreateRequest{
		CourtID: 1, MemberID: 1, Date: date(2026, 3, 2), StartMinute: 600, EndMinute: 660,
		IsRecurring: true, RecurrenceType: model.RecurrenceWeekly, RecurrenceEnd: &end,
	})
	require.NoError(t, err)

	// Mar 2, 9, 16, 23: four occurrences of one hour each.
	require.Len(t, res.BookingIDs, 4)
	assert.Equal(t, int64(4*600_000), res.TotalPrice)
	require.NotNil(t, res.SeriesID)

	for _, id := range res.BookingIDs {
		b, err := f.bookings.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, b.Status)
		assert.True(t, b.IsRecurring)
		require.NotNil(t, b.SeriesID)
		assert.Equal(t, *res.SeriesID, *b.SeriesID)
	}

	// One ledger entry covers the whole series.
	require.Len(t, f.members.txs, 1)
	assert.Equal(t, int64(4*600_000), f.members.txs[0].Amount)
}

func TestCreateSeriesFailsWhenAnyOccurrenceConflicts(t *testing.T) {
	f := newFixture(t, model.Member{ID: 1, FullName: "Ada", Tier: model.TierGold, WalletBalance: 50_000_000})
	// A confirmed booking on the third weekly occurrence.
	f.bookings.add(model.Booking{
		CourtID: 1, MemberID: 2, BookingDate: date(2026, 3, 16),
		StartMinute: 630, EndMinute: 690, Status: model.StatusConfirmed,
	})

	end := date(2026, 3, 23)
	_, err := f.svc.Create(context.Background(), CreateRequest{
		CourtID: 1, MemberID: 1, Date: date(2026, 3, 2), StartMinute: 600, EndMinute: 660,
		IsRecurring: true, RecurrenceType: model.RecurrenceWeekly, RecurrenceEnd: &end,
	})
	require.ErrorIs(t, err, ErrSlotConflict)

	// No partial series and no charge.
	assert.Len(t, f.bookings.rows, 1)
	m, _ := f.members.GetByID(context.Background(), 1)
	assert.Equal(t, int64(50_000_000), m.WalletBalance)
}

func TestCreateUpgradesTierOnThresholdCross(t *testing.T) {
	f := newFixture(t, model.Member{ID: 1, FullName: "Ada", Tier: model.TierBronze, WalletBalance: 2_000_000, TotalSpent: 700_000})
	res, err := f.svc.Create(context.Background(), CreateRequest{
		CourtID: 1, MemberID: 1, Date: date(2026, 3, 5), StartMinute: 600, EndMinute: 660,
	})
	require.NoError(t, err)

	// 700000 spent + 600000 crosses the Silver threshold.
	assert.Equal(t, model.TierSilver, res.NewTier)
	m, _ := f.members.GetByID(context.Background(), 1)
	assert.Equal(t, model.TierSilver, m.Tier)
}

func TestCancelRefundsConfirmedBooking(t *testing.T) {
	f := newFixture(t)
	id := f.bookings.add(model.Booking{
		CourtID: 1, MemberID: 1, BookingDate: date(2026, 3, 5),
		StartMinute: 600, EndMinute: 660, TotalPrice: 600_000, Status: model.StatusConfirmed,
	})

	require.NoError(t, f.svc.Cancel(context.Background(), id, 1))

	b, err := f.bookings.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, b.Status)

	m, _ := f.members.GetByID(context.Background(), 1)
	assert.Equal(t, int64(10_600_000), m.WalletBalance)
	require.Len(t, f.members.txs, 1)
	assert.Equal(t, model.TxRefund, f.members.txs[0].Type)
	assert.Equal(t, int64(600_000), f.members.txs[0].Amount)
	require.Len(t, f.broadcast.released, 1)

	// The freed slot is immediately holdable again.
	_, err = f.svc.Hold(context.Background(), HoldRequest{
		CourtID: 1, MemberID: 1, Date: date(2026, 3, 5), StartMinute: 600, EndMinute: 660,
	})
	assert.NoError(t, err)
}

func TestCancelRejectsPastAndNonConfirmed(t *testing.T) {
	f := newFixture(t)
	past := f.bookings.add(model.Booking{
		CourtID: 1, MemberID: 1, BookingDate: date(2026, 2, 1),
		StartMinute: 600, EndMinute: 660, TotalPrice: 600_000, Status: model.StatusConfirmed,
	})
	assert.ErrorIs(t, f.svc.Cancel(context.Background(), past, 1), ErrInvalidState)

	expiry := f.now.Add(time.Minute)
	holding := f.bookings.add(model.Booking{
		CourtID: 1, MemberID: 1, BookingDate: date(2026, 3, 5),
		StartMinute: 600, EndMinute: 660, Status: model.StatusHolding, HoldExpiry: &expiry,
	})
	assert.ErrorIs(t, f.svc.Cancel(context.Background(), holding, 1), ErrInvalidState)

	foreign := f.bookings.add(model.Booking{
		CourtID: 1, MemberID: 2, BookingDate: date(2026, 3, 5),
		StartMinute: 700, EndMinute: 760, TotalPrice: 600_000, Status: model.StatusConfirmed,
	})
	assert.ErrorIs(t, f.svc.Cancel(context.Background(), foreign, 1), repository.ErrBookingNotFound)

	assert.Empty(t, f.members.txs)
}

func TestAvailabilityFiltersExpiredHolds(t *testing.T) {
	f := newFixture(t)
	live := f.now.Add(time.Minute)
	dead := f.now.Add(-time.Minute)
	f.bookings.add(model.Booking{
		CourtID: 1, MemberID: 2, BookingDate: date(2026, 3, 5),
		StartMinute: 540, EndMinute: 600, Status: model.StatusHolding, HoldExpiry: &dead,
	})
	f.bookings.add(model.Booking{
		CourtID: 1, MemberID: 2, BookingDate: date(2026, 3, 5),
		StartMinute: 600, EndMinute: 660, Status: model.StatusHolding, HoldExpiry: &live,
	})
	f.bookings.add(model.Booking{
		CourtID: 1, MemberID: 3, BookingDate: date(2026, 3, 5),
		StartMinute: 660, EndMinute: 720, Status: model.StatusConfirmed,
	})

	slots, err := f.svc.Availability(context.Background(), 1, date(2026, 3, 5))
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, Slot{StartTime: "10:00", EndTime: "11:00", Status: "held"}, slots[0])
	assert.Equal(t, Slot{StartTime: "11:00", EndTime: "12:00", Status: "booked"}, slots[1])
}

func TestGetHidesOtherMembersBooking(t *testing.T) {
	f := newFixture(t)
	id := f.bookings.add(model.Booking{
		CourtID: 1, MemberID: 2, BookingDate: date(2026, 3, 5),
		StartMinute: 600, EndMinute: 660, Status: model.StatusConfirmed,
	})

	_, err := f.svc.Get(context.Background(), id, 1)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)

	b, err := f.svc.Get(context.Background(), id, 2)
	require.NoError(t, err)
	assert.Equal(t, id, b.ID)
}

func TestQueryFiltersByMemberAndRange(t *testing.T) {
	f := newFixture(t)
	f.bookings.add(model.Booking{CourtID: 1, MemberID: 1, BookingDate: date(2026, 3, 5), StartMinute: 600, EndMinute: 660, Status: model.StatusConfirmed})
	f.bookings.add(model.Booking{CourtID: 1, MemberID: 2, BookingDate: date(2026, 3, 5), StartMinute: 700, EndMinute: 760, Status: model.StatusConfirmed})
	f.bookings.add(model.Booking{CourtID: 1, MemberID: 1, BookingDate: date(2026, 4, 1), StartMinute: 600, EndMinute: 660, Status: model.StatusConfirmed})

	from := date(2026, 3, 1)
	to := date(2026, 3, 31)
	out, err := f.svc.Query(context.Background(), repository.BookingFilter{MemberID: 1, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, schedule.FormatDate(date(2026, 3, 5)), schedule.FormatDate(out[0].BookingDate))
}
