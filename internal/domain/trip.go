package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordStatus represents the visibility of a trip record.
type RecordStatus string

const (
	RecordStatusActive   RecordStatus = "activo"
	RecordStatusInactive RecordStatus = "inactivo"
)

// Valid reports whether s is a known status.
func (s RecordStatus) Valid() bool {
	return s == RecordStatusActive || s == RecordStatusInactive
}

// TripRecord is one logged bus departure with its cash collection.
type TripRecord struct {
	ID              string
	DepartureTime   time.Time
	RouteName       string
	DriverName      string // title-cased by the store before it reaches reports
	AmountCollected decimal.Decimal
	Notes           string // empty means no notes
	Status          RecordStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsActive reports whether the record is visible to listings and reports.
func (r *TripRecord) IsActive() bool {
	return r.Status == RecordStatusActive
}
