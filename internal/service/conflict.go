package service

import (
	"time"

	"github.com/iliyamo/court-club-reservation/internal/model"
	"github.com/iliyamo/court-club-reservation/internal/schedule"
)

// findConflict returns the first booking in existing that blocks memberID
// from taking the half-open [startMin, endMin) interval at the given
// instant, or nil when the interval is free.
//
// Rules:
//   - CANCELLED rows never block.
//   - A HOLDING row whose expiry has passed is treated as absent, even if the
//     reaper has not removed it yet.
//   - A live HOLDING row belonging to another member blocks everyone else.
//   - The caller's own HOLDING row is skipped only when it covers exactly the
//     requested interval; that is the re-hold/confirm path, where the hold is
//     about to be extended or superseded.
func findConflict(existing []model.Booking, memberID uint64, startMin, endMin int, now time.Time) *model.Booking {
	for i := range existing {
		b := &existing[i]
		if b.Status == model.StatusCancelled {
			continue
		}
		if b.HoldExpired(now) {
			continue
		}
		if b.Status == model.StatusHolding && b.MemberID == memberID &&
			b.StartMinute == startMin && b.EndMinute == endMin {
			continue
		}
		if schedule.Overlaps(b.StartMinute, b.EndMinute, startMin, endMin) {
			return b
		}
	}
	return nil
}
