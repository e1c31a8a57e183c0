package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/court-club-reservation/internal/model"
	"github.com/iliyamo/court-club-reservation/internal/queue"
	"github.com/iliyamo/court-club-reservation/internal/repository"
	"github.com/iliyamo/court-club-reservation/internal/schedule"
)

// HoldTTL is the lifetime of a soft hold.  A hold blocks other members for
// at most this window; the expiry reaper reclaims it afterwards.
const HoldTTL = 5 * time.Minute

// ReservationService orchestrates holds, releases, paid bookings and
// queries over the shared booking state.  Every mutation runs inside one
// transaction supplied by the TxRunner; broadcasts happen after commit and
// are best-effort.
type ReservationService struct {
	txr       TxRunner
	bookings  BookingStore
	courts    CourtStore
	members   MemberStore
	wallet    WalletLedger
	broadcast Broadcaster
	clock     Clock
}

// NewReservationService constructs the service.  All dependencies must be
// non-nil; a nil clock defaults to time.Now.
func NewReservationService(txr TxRunner, bookings BookingStore, courts CourtStore, members MemberStore, wallet WalletLedger, broadcast Broadcaster, clock Clock) *ReservationService {
	if txr == nil || bookings == nil || courts == nil || members == nil || wallet == nil || broadcast == nil {
		panic("nil dependency passed to NewReservationService")
	}
	if clock == nil {
		clock = time.Now
	}
	return &ReservationService{
		txr:       txr,
		bookings:  bookings,
		courts:    courts,
		members:   members,
		wallet:    wallet,
		broadcast: broadcast,
		clock:     clock,
	}
}

// HoldRequest identifies the slot a member wants to hold.
type HoldRequest struct {
	CourtID     uint64
	MemberID    uint64
	Date        time.Time
	StartMinute int
	EndMinute   int
}

// HoldResult reports the hold row and its expiry.
type HoldResult struct {
	BookingID uint64
	ExpiresAt time.Time
}

// Hold places a five-minute soft hold on a slot, or extends the caller's
// existing hold on the identical slot (idempotent: the same booking ID is
// returned with a later expiry, never a second row).  A live hold or firm
// booking by anyone else yields ErrSlotConflict.
func (s *ReservationService) Hold(ctx context.Context, req HoldRequest) (*HoldResult, error) {
	if err := validateInterval(req.StartMinute, req.EndMinute); err != nil {
		return nil, err
	}
	court, err := s.courts.GetByID(ctx, req.CourtID)
	if err != nil {
		return nil, err
	}
	if !court.IsActive {
		return nil, ErrCourtInactive
	}
	if _, err := s.members.GetByID(ctx, req.MemberID); err != nil {
		return nil, err
	}

	date := schedule.Midnight(req.Date)
	var res HoldResult
	var held queue.SlotHeldEvent
	err = s.txr.WithTx(ctx, func(tx *sql.Tx) error {
		now := s.clock().UTC()
		existing, err := s.bookings.ListForSlotDateTx(ctx, tx, req.CourtID, date)
		if err != nil {
			return err
		}
		// Extension path: the caller already holds exactly this slot.  An
		// expired own hold does not qualify: it is invisible to everyone
		// else's conflict checks, so the interval may have been booked in
		// the meantime and the request must go through findConflict like a
		// fresh hold (deleting the stale row on success).
		for i := range existing {
			b := &existing[i]
			if b.Status == model.StatusHolding && b.MemberID == req.MemberID &&
				b.StartMinute == req.StartMinute && b.EndMinute == req.EndMinute &&
				!b.HoldExpired(now) {
				expiresAt := now.Add(HoldTTL)
				if err := s.bookings.ExtendHoldTx(ctx, tx, b.ID, expiresAt); err != nil {
					return err
				}
				res = HoldResult{BookingID: b.ID, ExpiresAt: expiresAt}
				held = s.slotHeldEvent(req, expiresAt)
				return nil
			}
		}
		if c := findConflict(existing, req.MemberID, req.StartMinute, req.EndMinute, now); c != nil {
			return ErrSlotConflict
		}
		// Supersede any stale own hold on this slot instead of waiting for
		// the reaper to collect it.
		for i := range existing {
			b := &existing[i]
			if b.MemberID == req.MemberID && b.StartMinute == req.StartMinute &&
				b.EndMinute == req.EndMinute && b.HoldExpired(now) {
				if err := s.bookings.DeleteTx(ctx, tx, b.ID); err != nil {
					return err
				}
			}
		}
		expiresAt := now.Add(HoldTTL)
		hold := &model.Booking{
			CourtID:        req.CourtID,
			MemberID:       req.MemberID,
			BookingDate:    date,
			StartMinute:    req.StartMinute,
			EndMinute:      req.EndMinute,
			Status:         model.StatusHolding,
			CreatedAt:      now,
			HoldExpiry:     &expiresAt,
			RecurrenceType: model.RecurrenceNone,
		}
		if err := s.bookings.InsertTx(ctx, tx, hold); err != nil {
			return err
		}
		res = HoldResult{BookingID: hold.ID, ExpiresAt: expiresAt}
		held = s.slotHeldEvent(req, expiresAt)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.broadcast.SlotHeld(ctx, held)
	return &res, nil
}

// Release removes the caller's hold and frees the slot.  Only rows in
// HOLDING status can be released; anything else yields ErrInvalidState.  A
// hold owned by someone else is reported as not found rather than leaking
// its existence.
func (s *ReservationService) Release(ctx context.Context, bookingID, callerID uint64) error {
	var released queue.SlotReleasedEvent
	err := s.txr.WithTx(ctx, func(tx *sql.Tx) error {
		b, err := s.bookings.GetByIDTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.MemberID != callerID {
			return repository.ErrBookingNotFound
		}
		if b.Status != model.StatusHolding {
			return ErrInvalidState
		}
		if err := s.bookings.DeleteTx(ctx, tx, b.ID); err != nil {
			return err
		}
		released = queue.SlotReleasedEvent{
			CourtID:     b.CourtID,
			BookingDate: schedule.FormatDate(b.BookingDate),
			StartTime:   schedule.FormatClock(b.StartMinute),
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.broadcast.SlotReleased(ctx, released)
	return nil
}

// CreateRequest describes a paid booking, optionally recurring.
type CreateRequest struct {
	CourtID        uint64
	MemberID       uint64
	Date           time.Time
	StartMinute    int
	EndMinute      int
	IsRecurring    bool
	RecurrenceType model.RecurrenceType
	RecurrenceEnd  *time.Time
}

// CreateResult reports the committed series and the member's new wallet
// state.
type CreateResult struct {
	BookingIDs []uint64
	SeriesID   *string
	TotalPrice int64
	NewBalance int64
	NewTier    model.Tier
}

// Create books and pays for one slot, or a whole recurring series, in a
// single atomic unit.  Validation, the tier gate, conflict checks on every
// occurrence and the wallet debit all succeed before any row is written;
// any failure leaves balance and bookings untouched.  No partial series is
// ever created.
func (s *ReservationService) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if err := validateInterval(req.StartMinute, req.EndMinute); err != nil {
		return nil, err
	}
	court, err := s.courts.GetByID(ctx, req.CourtID)
	if err != nil {
		return nil, err
	}
	if !court.IsActive {
		return nil, ErrCourtInactive
	}

	recurrence := model.RecurrenceNone
	var recurrenceEnd *time.Time
	if req.IsRecurring {
		recurrence = req.RecurrenceType
		recurrenceEnd = req.RecurrenceEnd
	}
	dates, err := schedule.Expand(req.Date, recurrence, recurrenceEnd)
	if err != nil {
		return nil, err
	}

	sessionMinutes := int64(req.EndMinute - req.StartMinute)
	perOccurrence := sessionMinutes * court.PricePerHour / 60
	total := perOccurrence * int64(len(dates))

	var result CreateResult
	var updated queue.BookingUpdatedEvent
	var notice queue.MemberNotification
	err = s.txr.WithTx(ctx, func(tx *sql.Tx) error {
		// Row lock on the member serializes concurrent Creates from the
		// same wallet.
		member, err := s.members.GetForUpdateTx(ctx, tx, req.MemberID)
		if err != nil {
			return err
		}
		if req.IsRecurring && member.Tier < model.TierGold {
			return ErrTierTooLow
		}

		now := s.clock().UTC()
		for _, date := range dates {
			existing, err := s.bookings.ListForSlotDateTx(ctx, tx, req.CourtID, date)
			if err != nil {
				return err
			}
			if c := findConflict(existing, req.MemberID, req.StartMinute, req.EndMinute, now); c != nil {
				return fmt.Errorf("%w on %s", ErrSlotConflict, schedule.FormatDate(date))
			}
		}

		if err := s.wallet.TryDebitTx(ctx, tx, member.ID, total); err != nil {
			return err
		}

		var seriesID *string
		if req.IsRecurring {
			id := uuid.NewString()
			seriesID = &id
		}
		ids := make([]uint64, 0, len(dates))
		for _, date := range dates {
			if err := s.bookings.DeleteOwnHoldsTx(ctx, tx, req.CourtID, member.ID, date); err != nil {
				return err
			}
			b := &model.Booking{
				CourtID:        req.CourtID,
				MemberID:       member.ID,
				BookingDate:    date,
				StartMinute:    req.StartMinute,
				EndMinute:      req.EndMinute,
				TotalPrice:     perOccurrence,
				Status:         model.StatusConfirmed,
				CreatedAt:      now,
				IsRecurring:    req.IsRecurring,
				RecurrenceType: recurrence,
				RecurrenceEnd:  recurrenceEnd,
				SeriesID:       seriesID,
			}
			if err := s.bookings.InsertTx(ctx, tx, b); err != nil {
				return err
			}
			ids = append(ids, b.ID)
		}

		label := ""
		if req.IsRecurring {
			label = "recurring "
		}
		if err := s.wallet.RecordTransactionTx(ctx, tx, &model.WalletTransaction{
			MemberID:    member.ID,
			Amount:      total,
			Type:        model.TxPayment,
			Description: fmt.Sprintf("%sbooking of %s (%d sessions at %s)", label, court.Name, len(dates), schedule.FormatClock(req.StartMinute)),
			Status:      model.TxCompleted,
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		newSpent := member.TotalSpent + total
		newTier := model.TierForSpend(newSpent)
		if newTier != member.Tier {
			if err := s.members.UpdateTierTx(ctx, tx, member.ID, newTier); err != nil {
				return err
			}
		}

		result = CreateResult{
			BookingIDs: ids,
			SeriesID:   seriesID,
			TotalPrice: total,
			NewBalance: member.WalletBalance - total,
			NewTier:    newTier,
		}
		updated = queue.BookingUpdatedEvent{
			CourtID:     req.CourtID,
			BookingDate: schedule.FormatDate(dates[0]),
			MemberID:    member.ID,
			IsRecurring: req.IsRecurring,
			Occurrences: len(dates),
		}
		notice = queue.MemberNotification{
			MemberID:  member.ID,
			Title:     "Booking confirmed",
			Message:   fmt.Sprintf("You booked %s at %s on %s (%d sessions).", court.Name, schedule.FormatClock(req.StartMinute), schedule.FormatDate(dates[0]), len(dates)),
			Type:      "Success",
			CreatedAt: now.Format(time.RFC3339),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.broadcast.BookingUpdated(ctx, updated)
	s.broadcast.Notify(ctx, notice)
	return &result, nil
}

// Cancel flips the caller's confirmed booking to CANCELLED and refunds its
// price to the wallet, all in one transaction.  Only future occurrences can
// be cancelled; a booking whose date has passed yields ErrInvalidState, as
// does any status the state machine does not allow to cancel.  Refunds do
// not reduce cumulative spend, so the member's tier never regresses.
func (s *ReservationService) Cancel(ctx context.Context, bookingID, callerID uint64) error {
	var released queue.SlotReleasedEvent
	var notice queue.MemberNotification
	err := s.txr.WithTx(ctx, func(tx *sql.Tx) error {
		b, err := s.bookings.GetByIDTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.MemberID != callerID {
			return repository.ErrBookingNotFound
		}
		now := s.clock().UTC()
		if b.Status != model.StatusConfirmed || !b.Status.CanTransitionTo(model.StatusCancelled) {
			return ErrInvalidState
		}
		if b.BookingDate.Before(schedule.Midnight(now)) {
			return ErrInvalidState
		}
		if err := s.bookings.UpdateStatusTx(ctx, tx, b.ID, model.StatusCancelled); err != nil {
			return err
		}
		if err := s.wallet.CreditTx(ctx, tx, b.MemberID, b.TotalPrice); err != nil {
			return err
		}
		if err := s.wallet.RecordTransactionTx(ctx, tx, &model.WalletTransaction{
			MemberID:    b.MemberID,
			Amount:      b.TotalPrice,
			Type:        model.TxRefund,
			Description: fmt.Sprintf("refund for cancelled booking on %s at %s", schedule.FormatDate(b.BookingDate), schedule.FormatClock(b.StartMinute)),
			Status:      model.TxCompleted,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		released = queue.SlotReleasedEvent{
			CourtID:     b.CourtID,
			BookingDate: schedule.FormatDate(b.BookingDate),
			StartTime:   schedule.FormatClock(b.StartMinute),
		}
		notice = queue.MemberNotification{
			MemberID:  b.MemberID,
			Title:     "Booking cancelled",
			Message:   fmt.Sprintf("Your booking on %s at %s was cancelled and %d refunded.", schedule.FormatDate(b.BookingDate), schedule.FormatClock(b.StartMinute), b.TotalPrice),
			Type:      "Info",
			CreatedAt: now.Format(time.RFC3339),
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.broadcast.SlotReleased(ctx, released)
	s.broadcast.Notify(ctx, notice)
	return nil
}

// Query returns bookings matching the filter, ordered by date descending
// and start time ascending.
func (s *ReservationService) Query(ctx context.Context, f repository.BookingFilter) ([]repository.BookingDetail, error) {
	return s.bookings.List(ctx, f)
}

// Get returns a single booking owned by the caller.  Rows belonging to
// other members are reported as not found.
func (s *ReservationService) Get(ctx context.Context, bookingID, callerID uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.MemberID != callerID {
		return nil, repository.ErrBookingNotFound
	}
	return b, nil
}

// Slot describes one occupied interval in a day's availability view.
type Slot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

// Availability returns the occupied intervals of one court on one date,
// ordered by start time.  Expired holds are filtered out against the
// service clock even when the reaper has not swept them yet.
func (s *ReservationService) Availability(ctx context.Context, courtID uint64, date time.Time) ([]Slot, error) {
	if _, err := s.courts.GetByID(ctx, courtID); err != nil {
		return nil, err
	}
	rows, err := s.bookings.ListForCourtDate(ctx, courtID, schedule.Midnight(date))
	if err != nil {
		return nil, err
	}
	now := s.clock().UTC()
	slots := make([]Slot, 0, len(rows))
	for i := range rows {
		b := &rows[i]
		if b.HoldExpired(now) {
			continue
		}
		status := "booked"
		if b.Status == model.StatusHolding {
			status = "held"
		}
		slots = append(slots, Slot{
			StartTime: schedule.FormatClock(b.StartMinute),
			EndTime:   schedule.FormatClock(b.EndMinute),
			Status:    status,
		})
	}
	return slots, nil
}

func (s *ReservationService) slotHeldEvent(req HoldRequest, expiresAt time.Time) queue.SlotHeldEvent {
	return queue.SlotHeldEvent{
		CourtID:     req.CourtID,
		BookingDate: schedule.FormatDate(req.Date),
		StartTime:   schedule.FormatClock(req.StartMinute),
		EndTime:     schedule.FormatClock(req.EndMinute),
		HeldBy:      req.MemberID,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}
}

// validateInterval checks that [start, end) is a well-formed interval
// within one day.
func validateInterval(startMin, endMin int) error {
	if startMin < 0 || endMin > 24*60 || startMin >= endMin {
		return ErrInvalidInterval
	}
	return nil
}
