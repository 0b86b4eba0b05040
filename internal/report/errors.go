package report

import (
	"errors"
	"fmt"
)

// ErrUnknownMethod is returned for an export method that has no codec.
var ErrUnknownMethod = errors.New("unknown export method")

// SerializationError reports the record a codec could not render. Codecs
// never return partial output together with this error.
type SerializationError struct {
	Codec    Method
	Index    int // position in the input sequence, 0-based
	RecordID string
	Field    string
	Err      error
}

func (e *SerializationError) Error() string {
	id := e.RecordID
	if id == "" {
		id = fmt.Sprintf("#%d", e.Index+1)
	}
	return fmt.Sprintf("%s export: record %s: field %s: %v", e.Codec, id, e.Field, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// IsSerialization reports whether err carries a SerializationError.
func IsSerialization(err error) bool {
	var target *SerializationError
	return errors.As(err, &target)
}
