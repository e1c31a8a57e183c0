package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/court-club-reservation/internal/model"
)

// CourtRepo provides read access to the courts table.  Court metadata is
// administered by an external surface; the reservation flow only reads it
// to validate requests and price sessions, so no mutating methods exist.
type CourtRepo struct {
	db *sql.DB
}

// NewCourtRepo returns a new CourtRepo bound to the provided database.
func NewCourtRepo(db *sql.DB) *CourtRepo { return &CourtRepo{db: db} }

// GetByID loads a single court.  ErrCourtNotFound is returned when no row
// with the given ID exists.
func (r *CourtRepo) GetByID(ctx context.Context, id uint64) (*model.Court, error) {
	const q = `SELECT id, name, type, description, price_per_hour, is_active
	           FROM courts WHERE id = ?`
	var c model.Court
	var desc sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.Name, &c.Type, &desc, &c.PricePerHour, &c.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCourtNotFound
	}
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		d := desc.String
		c.Description = &d
	}
	return &c, nil
}

// ListActive returns all courts that currently accept bookings, ordered by
// name for stable display.
func (r *CourtRepo) ListActive(ctx context.Context) ([]model.Court, error) {
	const q = `SELECT id, name, type, description, price_per_hour, is_active
	           FROM courts WHERE is_active = 1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var courts []model.Court
	for rows.Next() {
		var c model.Court
		var desc sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &desc, &c.PricePerHour, &c.IsActive); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			c.Description = &d
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}
