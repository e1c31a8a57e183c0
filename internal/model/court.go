package model

// Court represents a bookable physical court.  Court metadata is owned by
// an external admin surface; this service reads it to validate bookings and
// to price sessions.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name.
//  Type         – surface/category label (e.g. "Standard", "Premium").
//  Description  – optional free-text description.
//  PricePerHour – hourly rate in the smallest currency unit.
//  IsActive     – inactive courts cannot receive new bookings.
type Court struct {
	ID           uint64
	Name         string
	Type         string
	Description  *string
	PricePerHour int64
	IsActive     bool
}
