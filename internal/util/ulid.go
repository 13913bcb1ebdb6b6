package util

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// NewULID generates a new ULID string. ulid.Make is monotonic within a millisecond
// and safe for concurrent use.
func NewULID() string {
	return ulid.Make().String()
}

// IsULID reports whether s parses as a ULID.
func IsULID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}

// Now returns the current UTC time at microsecond precision, the finest both
// supported databases round-trip.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
