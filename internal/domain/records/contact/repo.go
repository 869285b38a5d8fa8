package contact

import (
	"context"

	"backoffice/internal/domain"
)

// Repository defines the interface for Contact persistence.
type Repository interface {
	domain.RecordRepository[*Contact]

	// FindByTaxID retrieves a contact of kind by tax ID.
	FindByTaxID(ctx context.Context, kind Kind, taxID string) (*Contact, error)
}
