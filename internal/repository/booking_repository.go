package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/court-club-reservation/internal/model"
	"github.com/iliyamo/court-club-reservation/internal/schedule"
)

// BookingRepo provides data access to the bookings table.  Slot-level
// writes (creating holds, confirming a series) must run inside a
// transaction supplied by the caller; ListForSlotDateTx takes row locks so
// that the conflict check and the subsequent insert are indivisible with
// respect to other writers targeting the same court and date.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, court_id, member_id, booking_date, start_minute, end_minute,
	total_price, status, created_at, hold_expiry, is_recurring, recurrence_type,
	recurrence_end, series_id`

// ListForSlotDateTx returns every non-cancelled booking on one court and
// date, locking the rows for the remainder of the transaction.  Two
// transactions racing for the same timeline serialize here: whichever
// commits first wins and the other observes its row on retry of the read.
// Expired holds are included; callers decide their visibility against an
// injected clock.
func (r *BookingRepo) ListForSlotDateTx(ctx context.Context, tx *sql.Tx, courtID uint64, date time.Time) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + `
	           FROM bookings
	           WHERE court_id = ? AND booking_date = ? AND status <> 'CANCELLED'
	           FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, courtID, schedule.FormatDate(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListForCourtDate is the read-only variant of ListForSlotDateTx used by
// the availability endpoint.  No locks are taken.
func (r *BookingRepo) ListForCourtDate(ctx context.Context, courtID uint64, date time.Time) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + `
	           FROM bookings
	           WHERE court_id = ? AND booking_date = ? AND status <> 'CANCELLED'
	           ORDER BY start_minute`
	rows, err := r.db.QueryContext(ctx, q, courtID, schedule.FormatDate(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// GetByID loads a single booking.  ErrBookingNotFound is returned when no
// row exists.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// GetByIDTx is GetByID inside a transaction, with a row lock so that a
// concurrent Release and Create cannot both act on the same hold.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? FOR UPDATE`
	b, err := scanBooking(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// InsertTx inserts a booking row and populates the generated ID on the
// provided record.  The caller must commit or roll back the transaction.
func (r *BookingRepo) InsertTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings
	           (court_id, member_id, booking_date, start_minute, end_minute, total_price,
	            status, created_at, hold_expiry, is_recurring, recurrence_type, recurrence_end, series_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var holdExpiry interface{}
	if b.HoldExpiry != nil {
		holdExpiry = b.HoldExpiry.UTC()
	}
	var recurrenceEnd interface{}
	if b.RecurrenceEnd != nil {
		recurrenceEnd = schedule.FormatDate(*b.RecurrenceEnd)
	}
	var seriesID interface{}
	if b.SeriesID != nil {
		seriesID = *b.SeriesID
	}
	res, err := tx.ExecContext(ctx, q,
		b.CourtID, b.MemberID, schedule.FormatDate(b.BookingDate), b.StartMinute, b.EndMinute,
		b.TotalPrice, string(b.Status), b.CreatedAt.UTC(), holdExpiry,
		b.IsRecurring, string(b.RecurrenceType), recurrenceEnd, seriesID,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// ExtendHoldTx pushes the expiry of an existing HOLDING row forward.  Only
// rows still in HOLDING status are touched, so a hold that was confirmed or
// reaped between read and write is left alone.
func (r *BookingRepo) ExtendHoldTx(ctx context.Context, tx *sql.Tx, id uint64, expiresAt time.Time) error {
	const q = `UPDATE bookings SET hold_expiry = ? WHERE id = ? AND status = 'HOLDING'`
	res, err := tx.ExecContext(ctx, q, expiresAt.UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// DeleteTx hard-removes a booking row.  Used by Release and by the expiry
// reaper; confirmed bookings are cancelled with a status flip instead.
func (r *BookingRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	return err
}

// DeleteOwnHoldsTx removes every HOLDING row the member has on the given
// court and date.  Called just before the confirmed rows of a Create are
// written: the member's own holds on those slots are superseded.
func (r *BookingRepo) DeleteOwnHoldsTx(ctx context.Context, tx *sql.Tx, courtID, memberID uint64, date time.Time) error {
	const q = `DELETE FROM bookings
	           WHERE court_id = ? AND member_id = ? AND booking_date = ? AND status = 'HOLDING'`
	_, err := tx.ExecContext(ctx, q, courtID, memberID, schedule.FormatDate(date))
	return err
}

// UpdateStatusTx flips a booking to a new status, clearing hold_expiry.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.BookingStatus) error {
	const q = `UPDATE bookings SET status = ?, hold_expiry = NULL WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, string(status), id)
	return err
}

// ExpiredHoldsTx returns every HOLDING row whose expiry lies strictly
// before the given instant, locking the rows so a concurrent extension
// waits for the sweep to finish.  The reaper compares against its own
// clock rather than the database's so tests can advance time.
func (r *BookingRepo) ExpiredHoldsTx(ctx context.Context, tx *sql.Tx, now time.Time) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + `
	           FROM bookings
	           WHERE status = 'HOLDING' AND hold_expiry < ?
	           FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// BookingFilter narrows the result of List.  Zero values mean "no filter".
type BookingFilter struct {
	CourtID  uint64
	MemberID uint64
	From     *time.Time
	To       *time.Time
}

// BookingDetail is a booking joined with court and member display names,
// returned by List for client rendering.
type BookingDetail struct {
	model.Booking
	CourtName  string
	MemberName string
}

// List returns bookings matching the filter, ordered by date descending
// and start time ascending within one date.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]BookingDetail, error) {
	q := `SELECT b.id, b.court_id, b.member_id, b.booking_date, b.start_minute, b.end_minute,
	             b.total_price, b.status, b.created_at, b.hold_expiry, b.is_recurring,
	             b.recurrence_type, b.recurrence_end, b.series_id, c.name, m.full_name
	      FROM bookings b
	      JOIN courts c ON c.id = b.court_id
	      JOIN members m ON m.id = b.member_id
	      WHERE 1=1`
	args := make([]interface{}, 0, 4)
	if f.CourtID != 0 {
		q += ` AND b.court_id = ?`
		args = append(args, f.CourtID)
	}
	if f.MemberID != 0 {
		q += ` AND b.member_id = ?`
		args = append(args, f.MemberID)
	}
	if f.From != nil {
		q += ` AND b.booking_date >= ?`
		args = append(args, schedule.FormatDate(*f.From))
	}
	if f.To != nil {
		q += ` AND b.booking_date <= ?`
		args = append(args, schedule.FormatDate(*f.To))
	}
	q += ` ORDER BY b.booking_date DESC, b.start_minute ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BookingDetail
	for rows.Next() {
		var d BookingDetail
		if err := scanBookingFields(rows, &d.Booking, &d.CourtName, &d.MemberName); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	if err := scanBookingFields(row, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// scanBookingFields scans the bookingColumns set into b, plus any extra
// destinations appended by join queries.
func scanBookingFields(row rowScanner, b *model.Booking, extra ...interface{}) error {
	var status, recurrence string
	var holdExpiry, recurrenceEnd sql.NullTime
	var seriesID sql.NullString
	dest := []interface{}{
		&b.ID, &b.CourtID, &b.MemberID, &b.BookingDate, &b.StartMinute, &b.EndMinute,
		&b.TotalPrice, &status, &b.CreatedAt, &holdExpiry, &b.IsRecurring,
		&recurrence, &recurrenceEnd, &seriesID,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	b.Status = model.BookingStatus(status)
	b.RecurrenceType = model.RecurrenceType(recurrence)
	if holdExpiry.Valid {
		t := holdExpiry.Time.UTC()
		b.HoldExpiry = &t
	}
	if recurrenceEnd.Valid {
		t := schedule.Midnight(recurrenceEnd.Time)
		b.RecurrenceEnd = &t
	}
	if seriesID.Valid {
		s := seriesID.String
		b.SeriesID = &s
	}
	return nil
}

func collectBookings(rows *sql.Rows) ([]model.Booking, error) {
	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := scanBookingFields(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
