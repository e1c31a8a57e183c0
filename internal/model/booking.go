package model

import "time"

// BookingStatus enumerates the lifecycle states of a booking.  The set is
// closed: values are persisted as strings and nothing outside this package
// may invent new ones.  HOLDING is a soft reservation with an expiry;
// PENDING_PAYMENT exists for bookings awaiting an out-of-band payment;
// CONFIRMED is a paid booking; CANCELLED and COMPLETED are terminal.
type BookingStatus string

const (
	StatusHolding        BookingStatus = "HOLDING"
	StatusPendingPayment BookingStatus = "PENDING_PAYMENT"
	StatusConfirmed      BookingStatus = "CONFIRMED"
	StatusCancelled      BookingStatus = "CANCELLED"
	StatusCompleted      BookingStatus = "COMPLETED"
)

// CanTransitionTo reports whether a booking in status s may move to status t.
// Terminal states (CANCELLED, COMPLETED) admit no transitions.
func (s BookingStatus) CanTransitionTo(t BookingStatus) bool {
	switch s {
	case StatusHolding, StatusPendingPayment:
		return t == StatusConfirmed || t == StatusCancelled
	case StatusConfirmed:
		return t == StatusCompleted || t == StatusCancelled
	}
	return false
}

// RecurrenceType enumerates the supported calendar patterns for a
// recurring booking series.
type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = "NONE"
	RecurrenceDaily   RecurrenceType = "DAILY"
	RecurrenceWeekly  RecurrenceType = "WEEKLY"
	RecurrenceMonthly RecurrenceType = "MONTHLY"
)

// Booking represents one occupied slot on a court: a single date plus a
// half-open [StartMinute, EndMinute) interval.  Times are minutes from
// midnight so interval arithmetic never touches time zones; the date is
// stored at midnight UTC.
//
// Fields:
//  ID             – primary key identifier.
//  CourtID        – court the slot belongs to.
//  MemberID       – member who owns the booking.
//  BookingDate    – calendar date of the slot (midnight UTC).
//  StartMinute    – inclusive start, minutes from midnight.
//  EndMinute      – exclusive end, minutes from midnight.
//  TotalPrice     – price of this occurrence in the smallest currency unit.
//  Status         – current lifecycle state.
//  CreatedAt      – when the row was created.
//  HoldExpiry     – when a HOLDING row stops blocking others; nil otherwise.
//  IsRecurring    – whether the row belongs to a recurring series.
//  RecurrenceType – calendar pattern of the series.
//  RecurrenceEnd  – inclusive end date of the series (nil when not recurring).
//  SeriesID       – opaque identifier shared by every row created from one
//                   recurring request; nil for single bookings.
type Booking struct {
	ID             uint64
	CourtID        uint64
	MemberID       uint64
	BookingDate    time.Time
	StartMinute    int
	EndMinute      int
	TotalPrice     int64
	Status         BookingStatus
	CreatedAt      time.Time
	HoldExpiry     *time.Time
	IsRecurring    bool
	RecurrenceType RecurrenceType
	RecurrenceEnd  *time.Time
	SeriesID       *string
}

// HoldExpired reports whether b is a HOLDING row whose expiry has passed at
// the given instant.  An expired hold must be treated as absent by every
// other member's conflict check even before the reaper removes it.
func (b *Booking) HoldExpired(now time.Time) bool {
	return b.Status == StatusHolding && b.HoldExpiry != nil && b.HoldExpiry.Before(now)
}
