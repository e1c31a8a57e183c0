// Package schedule contains the pure calendar logic used by the reservation
// flow: recurrence expansion, half-open interval overlap and wire-format
// parsing for dates and times of day.  Nothing in this package touches
// persisted state, which keeps it fully unit-testable.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/court-club-reservation/internal/model"
)

// MaxOccurrences is the hard cap on the number of dates a recurring series
// may expand to.  A request that would exceed it is rejected outright.
const MaxOccurrences = 12

// ErrTooManyOccurrences is returned by Expand when the recurrence rule
// produces more than MaxOccurrences dates.
var ErrTooManyOccurrences = errors.New("recurrence expands past the occurrence cap")

// Expand turns a recurrence rule into the ordered list of dates it covers,
// starting at start and stepping by the pattern's calendar unit.  The end
// date is inclusive.  RecurrenceNone (or a nil end) yields just the start
// date.  Expansion stops as soon as the next step would pass end; if the
// list would exceed MaxOccurrences, ErrTooManyOccurrences is returned and
// no partial list is produced.
func Expand(start time.Time, typ model.RecurrenceType, end *time.Time) ([]time.Time, error) {
	start = Midnight(start)
	dates := []time.Time{start}
	if typ == model.RecurrenceNone || end == nil {
		return dates, nil
	}
	last := Midnight(*end)
	current := start
	for {
		switch typ {
		case model.RecurrenceDaily:
			current = current.AddDate(0, 0, 1)
		case model.RecurrenceWeekly:
			current = current.AddDate(0, 0, 7)
		case model.RecurrenceMonthly:
			current = current.AddDate(0, 1, 0)
		default:
			return dates, nil
		}
		if current.After(last) {
			return dates, nil
		}
		dates = append(dates, current)
		if len(dates) > MaxOccurrences {
			return nil, ErrTooManyOccurrences
		}
	}
}

// Overlaps reports whether the half-open minute intervals [s1,e1) and
// [s2,e2) intersect.
func Overlaps(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}

// Midnight truncates t to midnight UTC, the canonical representation of a
// booking date.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD wire value into a midnight-UTC date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a date in the YYYY-MM-DD wire format.
func FormatDate(t time.Time) string { return t.UTC().Format("2006-01-02") }

// ParseClock parses an HH:MM wire value into minutes from midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes from midnight as HH:MM.
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}
