// Package queue defines the broadcast payloads exchanged over the message
// broker and pushed to websocket clients, plus the background consumer that
// records confirmed bookings.
package queue

// Routing keys for the slot/booking event stream.  The same payloads are
// delivered verbatim to websocket clients with the key in an envelope.
const (
	KeySlotHeld       = "slot.held"
	KeySlotReleased   = "slot.released"
	KeyBookingUpdated = "booking.updated"
	KeyNotification   = "member.notification"
)

// SlotHeldEvent is published when a member places or extends a hold.
type SlotHeldEvent struct {
	CourtID     uint64 `json:"court_id"`
	BookingDate string `json:"booking_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	HeldBy      uint64 `json:"held_by"`
	ExpiresAt   string `json:"expires_at"`
}

// SlotReleasedEvent is published when a hold is released by its owner or
// reclaimed by the expiry reaper.  The slot it names is immediately
// holdable and bookable again.
type SlotReleasedEvent struct {
	CourtID     uint64 `json:"court_id"`
	BookingDate string `json:"booking_date"`
	StartTime   string `json:"start_time"`
}

// BookingUpdatedEvent is published when a paid booking (or series) commits,
// telling clients to refresh the affected court's grid.
type BookingUpdatedEvent struct {
	CourtID     uint64 `json:"court_id"`
	BookingDate string `json:"booking_date"`
	MemberID    uint64 `json:"member_id"`
	IsRecurring bool   `json:"is_recurring"`
	Occurrences int    `json:"occurrences"`
}

// MemberNotification is a personal message for a single member, delivered
// over the broker and that member's websocket connections.  Content is not
// persisted by this service.
type MemberNotification struct {
	MemberID  uint64 `json:"member_id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
}
