// Package entity provides base types for all back-office records.
package entity

import (
	"context"
	"time"

	"backoffice/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseRecord contains the fields every referenced record carries.
type BaseRecord struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Reference is the human-readable identifier (PMT-2025-001).
	// Unique per table.
	Reference string `db:"reference" json:"reference"`

	// NonSequential marks a timestamp-derived reference issued in degraded mode.
	NonSequential bool `db:"non_sequential" json:"nonSequential"`

	// Version for optimistic locking
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
}

// NewBaseRecord creates a BaseRecord with generated ID and creation time.
func NewBaseRecord() BaseRecord {
	return BaseRecord{
		ID:        id.New(),
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}
}

// GetID returns the primary key.
func (b *BaseRecord) GetID() id.ID {
	return b.ID
}

// GetReference returns the assigned reference.
func (b *BaseRecord) GetReference() string {
	return b.Reference
}

// IsNonSequential reports whether the reference came from degraded mode.
func (b *BaseRecord) IsNonSequential() bool {
	return b.NonSequential
}

// AssignReference stores the reference chosen for this insert attempt.
func (b *BaseRecord) AssignReference(ref string, nonSequential bool) {
	b.Reference = ref
	b.NonSequential = nonSequential
}

// SetCreatedBy records the clerk who submitted the record.
func (b *BaseRecord) SetCreatedBy(userID string) {
	b.CreatedBy = userID
}
