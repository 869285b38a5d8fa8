// Package id provides UUIDv7 primary keys for records.
// Human-facing references come from package identifier, not from here.
package id

import (
	"github.com/google/uuid"
)

// ID is a type alias for UUID, used as the primary key of every record.
type ID = uuid.UUID

// New generates a new UUIDv7 (time-ordered UUID).
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// IsNil checks if ID is zero-value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}
