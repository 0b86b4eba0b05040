package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"buscontrol/internal/domain"
)

// Paging defaults for trip record listings.
const (
	DefaultPage  = 1
	MaxPage      = 1_000_000
	DefaultLimit = 50
	MaxLimit     = 500
	DefaultSort  = "-departureTime"
)

// SortKeys lists the fields a listing can be ordered by.
var SortKeys = []string{"departureTime", "routeName", "driverName", "amountCollected", "createdAt"}

// TripFilter narrows a trip record listing. Zero values mean "no constraint".
type TripFilter struct {
	RouteName  string    // case-insensitive substring
	DriverName string    // case-insensitive substring
	From       time.Time // inclusive lower bound on departure time
	To         time.Time // inclusive upper bound on departure time
	Page       int
	Limit      int
	Sort       string
}

// Normalize fills paging defaults and rejects out-of-range values.
func (f *TripFilter) Normalize() error {
	if f.Page == 0 {
		f.Page = DefaultPage
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Sort == "" {
		f.Sort = DefaultSort
	}
	if f.Page < 1 || f.Page > MaxPage {
		return fmt.Errorf("%w: page must be between 1 and %d", ErrInvalidFilter, MaxPage)
	}
	if f.Limit < 1 || f.Limit > MaxLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidFilter, MaxLimit)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidFilter)
	}
	if _, _, err := ParseSort(f.Sort); err != nil {
		return err
	}
	return nil
}

// Offset returns the number of rows to skip for the filter's page. It is
// bounded by MaxPage*MaxLimit once the filter is normalized.
func (f TripFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// ParseSort splits a sort expression into its key and direction.
func ParseSort(s string) (key string, desc bool, err error) {
	key = strings.TrimPrefix(s, "-")
	desc = strings.HasPrefix(s, "-")
	for _, k := range SortKeys {
		if k == key {
			return key, desc, nil
		}
	}
	return "", false, fmt.Errorf("%w: unknown sort key %q", ErrInvalidFilter, key)
}

// TripPage is one page of a trip record listing.
type TripPage struct {
	Records    []domain.TripRecord
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// NewTripPage computes the page count for a listing result.
func NewTripPage(records []domain.TripRecord, total int, f TripFilter) TripPage {
	pages := 0
	if f.Limit > 0 {
		pages = (total + f.Limit - 1) / f.Limit
	}
	return TripPage{Records: records, Total: total, Page: f.Page, Limit: f.Limit, TotalPages: pages}
}

// TripRecordRepository defines the persistence operations for trip records.
type TripRecordRepository interface {
	// List returns one page of active records matching the filter.
	List(ctx context.Context, filter TripFilter) (TripPage, error)

	// ListActive returns every active record ordered by departure time descending.
	ListActive(ctx context.Context) ([]domain.TripRecord, error)

	// GetByID retrieves a record regardless of status.
	GetByID(ctx context.Context, id string) (*domain.TripRecord, error)

	// Create persists a new record.
	Create(ctx context.Context, record *domain.TripRecord) error

	// Update replaces the mutable fields of an existing record.
	Update(ctx context.Context, record *domain.TripRecord) error

	// SoftDelete marks a record inactive.
	SoftDelete(ctx context.Context, id string) error

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
}
