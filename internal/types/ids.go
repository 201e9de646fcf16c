package types

import (
	"time"

	"github.com/google/uuid"
)

// ResultID represents a UUIDv7 identifier for a stored review result.
// String alias enables type safety while maintaining JSON string
// serialization. UUIDv7 time-ordering keeps a student's result rows
// clustered in insertion order.
type ResultID string

// NewResultID generates a UUIDv7 result identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewResultID() ResultID {
	return ResultID(uuid.Must(uuid.NewV7()).String())
}

// ParseResultID validates and converts a string to ResultID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseResultID(s string) (ResultID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return ResultID(s), nil
}

// ResultIDTime extracts the timestamp embedded in a UUIDv7 ID.
// Enables time-based queries without a database lookup.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func ResultIDTime(id ResultID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
