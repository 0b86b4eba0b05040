package service

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidRecordID is returned when a record ID is empty.
	ErrInvalidRecordID = errors.New("invalid record id")

	// ErrRecordNotFound is returned when a record does not exist or was deleted.
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidExportMethod is returned for an export method without a codec.
	ErrInvalidExportMethod = errors.New("invalid export method")
)

// ValidationError lists the field problems of a rejected write.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
