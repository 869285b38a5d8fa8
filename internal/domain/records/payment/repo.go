package payment

import (
	"backoffice/internal/domain"
)

// Repository defines the interface for Payment persistence.
type Repository interface {
	domain.RecordRepository[*Payment]
}
