package report

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"buscontrol/internal/domain"
)

// Fixed values shared by the exporters.
const (
	// TimestampLayout is ISO-8601 in UTC with millisecond precision.
	TimestampLayout = "2006-01-02T15:04:05.000Z"

	// MissingNotes replaces an empty notes field in every export.
	MissingNotes = "N/A"
)

var (
	errZeroTimestamp  = errors.New("timestamp is not set")
	errTimestampRange = errors.New("timestamp year outside [0,9999]")
	errMissingID      = errors.New("record id is empty")
	errInvalidUTF8    = errors.New("text is not valid UTF-8")
	errInvalidXMLChar = errors.New("text contains a character XML 1.0 cannot carry")
)

// FormatTimestamp renders t as an ISO-8601 UTC string.
func FormatTimestamp(t time.Time) (string, error) {
	if t.IsZero() {
		return "", errZeroTimestamp
	}
	u := t.UTC()
	if y := u.Year(); y < 0 || y > 9999 {
		return "", errTimestampRange
	}
	return u.Format(TimestampLayout), nil
}

// FormatAmount renders a currency amount with exactly two decimals.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixedBank(2)
}

// NotesOrDefault returns the record notes or MissingNotes when empty.
func NotesOrDefault(notes string) string {
	if notes == "" {
		return MissingNotes
	}
	return notes
}

// CheckText reports why s cannot be carried verbatim by an export, or nil.
func CheckText(s string) error {
	if !utf8.ValidString(s) {
		return errInvalidUTF8
	}
	for _, r := range s {
		if !isXMLChar(r) {
			return errInvalidXMLChar
		}
	}
	return nil
}

// isXMLChar reports whether r is in the XML 1.0 Char production.
func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// recordFields is the formatted, codec-neutral view of one record.
type recordFields struct {
	ID            string
	DepartureTime string
	RouteName     string
	DriverName    string
	Amount        string
	Notes         string
	Status        string
	CreatedAt     string
	UpdatedAt     string
}

// formatRecord applies the shared formatting rules to a record. Informational
// timestamps that are unset render as an empty string.
func formatRecord(codec Method, index int, r *domain.TripRecord) (recordFields, error) {
	if r.ID == "" {
		return recordFields{}, &SerializationError{Codec: codec, Index: index, Field: "id", Err: errMissingID}
	}
	if err := CheckText(r.ID); err != nil {
		return recordFields{}, &SerializationError{Codec: codec, Index: index, Field: "id", Err: err}
	}
	departure, err := FormatTimestamp(r.DepartureTime)
	if err != nil {
		return recordFields{}, &SerializationError{Codec: codec, Index: index, RecordID: r.ID, Field: "departureTime", Err: err}
	}
	for _, f := range []struct{ name, value string }{
		{"routeName", r.RouteName},
		{"driverName", r.DriverName},
		{"notes", r.Notes},
		{"status", string(r.Status)},
	} {
		if err := CheckText(f.value); err != nil {
			return recordFields{}, &SerializationError{Codec: codec, Index: index, RecordID: r.ID, Field: f.name, Err: err}
		}
	}

	return recordFields{
		ID:            r.ID,
		DepartureTime: departure,
		RouteName:     r.RouteName,
		DriverName:    r.DriverName,
		Amount:        FormatAmount(r.AmountCollected),
		Notes:         NotesOrDefault(r.Notes),
		Status:        string(r.Status),
		CreatedAt:     optionalTimestamp(r.CreatedAt),
		UpdatedAt:     optionalTimestamp(r.UpdatedAt),
	}, nil
}

func optionalTimestamp(t time.Time) string {
	s, err := FormatTimestamp(t)
	if err != nil {
		return ""
	}
	return s
}
