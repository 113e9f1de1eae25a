package store

import (
	"errors"
	"fmt"
	"time"
)

// Record is one stored key/value pair.
type Record struct {
	Key        string
	ModifiedAt time.Time
	Value      []byte
}

// ErrRowIDUnavailable means a record just written could not be found again to
// attach its derived rows. It indicates a defect, not bad input.
var ErrRowIDUnavailable = errors.New("row id unavailable for written record")

// DecodeError reports a stored value that could not be decoded.
// Raw holds the undecoded bytes for diagnostics.
type DecodeError struct {
	Key string
	Raw []byte
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError returns true if err is or wraps a *DecodeError.
// Uses errors.As to handle wrapped errors.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
