package receipt

import (
	"context"

	"backoffice/internal/core/id"
	"backoffice/internal/domain"
)

// Repository defines the interface for OfficialReceipt persistence.
type Repository interface {
	domain.RecordRepository[*OfficialReceipt]

	// FindByPayment returns the receipt issued for a payment.
	FindByPayment(ctx context.Context, paymentID id.ID) (*OfficialReceipt, error)
}
