package service

import "errors"

// Sentinel errors surfaced by the reservation flows.  Handlers translate
// them into specific HTTP statuses; none of them is ever collapsed into a
// generic failure.
var (
	// ErrSlotConflict signals that the requested interval overlaps a live
	// hold or a firm booking belonging to another party.
	ErrSlotConflict = errors.New("slot conflict")

	// ErrInvalidState signals an operation that is not permitted for the
	// booking's current status, e.g. releasing a confirmed booking.
	ErrInvalidState = errors.New("invalid booking state")

	// ErrTierTooLow signals a recurring booking request from a member below
	// the Gold tier.
	ErrTierTooLow = errors.New("membership tier too low for recurring bookings")

	// ErrInvalidInterval signals a request whose time interval is malformed
	// (start not before end, or outside the day).
	ErrInvalidInterval = errors.New("invalid time interval")

	// ErrCourtInactive signals a booking attempt on a deactivated court.
	ErrCourtInactive = errors.New("court is not active")

	// ErrInvalidAmount signals a non-positive wallet amount.
	ErrInvalidAmount = errors.New("invalid amount")
)
