// Package reaper runs the background process that reclaims expired holds.
// It is the only writer that touches holds it does not own: a hold whose
// recorded expiry has passed no longer belongs to anyone.
package reaper

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/iliyamo/court-club-reservation/internal/queue"
	"github.com/iliyamo/court-club-reservation/internal/schedule"
	"github.com/iliyamo/court-club-reservation/internal/service"
)

// DefaultInterval is how often the reaper sweeps for expired holds.
const DefaultInterval = time.Minute

// Reaper periodically deletes HOLDING rows whose expiry has passed and
// announces each freed slot.  It runs as a single instance alongside the
// request handlers; because it only touches rows whose own recorded expiry
// is in the past, a fresh hold created mid-sweep for the same slot is a
// distinct row and is never affected.
type Reaper struct {
	txr       service.TxRunner
	bookings  service.BookingStore
	broadcast service.Broadcaster
	clock     service.Clock
	interval  time.Duration
}

// New constructs a Reaper.  A nil clock defaults to time.Now and a
// non-positive interval to DefaultInterval.
func New(txr service.TxRunner, bookings service.BookingStore, broadcast service.Broadcaster, clock service.Clock, interval time.Duration) *Reaper {
	if txr == nil || bookings == nil || broadcast == nil {
		panic("nil dependency passed to reaper.New")
	}
	if clock == nil {
		clock = time.Now
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reaper{txr: txr, bookings: bookings, broadcast: broadcast, clock: clock, interval: interval}
}

// Run sweeps on a fixed interval until the context is cancelled.  A failed
// sweep is logged and the next tick retries; the loop itself never dies.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	log.Printf("reaper: started, sweeping every %s", r.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("reaper: stopped")
			return
		case <-ticker.C:
			if n, err := r.Sweep(ctx); err != nil {
				log.Printf("reaper: sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("reaper: reclaimed %d expired holds", n)
			}
		}
	}
}

// Sweep removes every hold whose expiry lies before the current instant
// and announces the freed slots.  It returns the number of holds
// reclaimed.  The deletions commit in one transaction; announcements
// follow the commit and are best-effort.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	var freed []queue.SlotReleasedEvent
	err := r.txr.WithTx(ctx, func(tx *sql.Tx) error {
		expired, err := r.bookings.ExpiredHoldsTx(ctx, tx, r.clock().UTC())
		if err != nil {
			return err
		}
		for i := range expired {
			b := &expired[i]
			if err := r.bookings.DeleteTx(ctx, tx, b.ID); err != nil {
				return err
			}
			freed = append(freed, queue.SlotReleasedEvent{
				CourtID:     b.CourtID,
				BookingDate: schedule.FormatDate(b.BookingDate),
				StartTime:   schedule.FormatClock(b.StartMinute),
			})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, ev := range freed {
		r.broadcast.SlotReleased(ctx, ev)
	}
	return len(freed), nil
}
