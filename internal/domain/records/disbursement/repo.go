package disbursement

import (
	"context"

	"backoffice/internal/domain"
)

// Repository defines the interface for Request persistence.
type Repository interface {
	domain.RecordRepository[*Request]

	// UpdateStatus stores the decision fields and bumps Version.
	// Returns CodeConcurrentModification when the stored version differs.
	UpdateStatus(ctx context.Context, r *Request) error
}
