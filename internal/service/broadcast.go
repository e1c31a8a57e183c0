package service

import (
	"context"

	"github.com/iliyamo/court-club-reservation/internal/queue"
	"github.com/iliyamo/court-club-reservation/internal/ws"
)

// EventBroadcaster fans every announcement out to the message broker (for
// durable consumers such as the audit log) and to the websocket hub (for
// connected clients).  Either sink may be absent; a nil publisher or hub is
// skipped.  Publish errors are logged inside the publisher and otherwise
// ignored, keeping the port best-effort.
type EventBroadcaster struct {
	pub *queue.Publisher
	hub *ws.Hub
}

// NewEventBroadcaster builds a broadcaster over the given sinks.
func NewEventBroadcaster(pub *queue.Publisher, hub *ws.Hub) *EventBroadcaster {
	return &EventBroadcaster{pub: pub, hub: hub}
}

// SlotHeld announces a new or extended hold.
func (b *EventBroadcaster) SlotHeld(ctx context.Context, ev queue.SlotHeldEvent) {
	_ = b.pub.PublishJSON(ctx, queue.KeySlotHeld, ev)
	if b.hub != nil {
		b.hub.Broadcast(queue.KeySlotHeld, ev)
	}
}

// SlotReleased announces a freed slot.
func (b *EventBroadcaster) SlotReleased(ctx context.Context, ev queue.SlotReleasedEvent) {
	_ = b.pub.PublishJSON(ctx, queue.KeySlotReleased, ev)
	if b.hub != nil {
		b.hub.Broadcast(queue.KeySlotReleased, ev)
	}
}

// BookingUpdated announces a committed booking or series.
func (b *EventBroadcaster) BookingUpdated(ctx context.Context, ev queue.BookingUpdatedEvent) {
	_ = b.pub.PublishJSON(ctx, queue.KeyBookingUpdated, ev)
	if b.hub != nil {
		b.hub.Broadcast(queue.KeyBookingUpdated, ev)
	}
}

// Notify delivers a personal notification to one member's connections and
// the broker.  Content is not persisted here.
func (b *EventBroadcaster) Notify(ctx context.Context, n queue.MemberNotification) {
	_ = b.pub.PublishJSON(ctx, queue.KeyNotification, n)
	if b.hub != nil {
		b.hub.SendToMember(n.MemberID, queue.KeyNotification, n)
	}
}
