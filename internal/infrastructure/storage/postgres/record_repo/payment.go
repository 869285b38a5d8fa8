package record_repo

import (
	"backoffice/internal/domain/records/payment"
	"backoffice/internal/infrastructure/storage/postgres"
)

// PaymentRepo implements payment.Repository.
type PaymentRepo struct {
	*BaseRecordRepo[*payment.Payment]
}

// Ensure interface compliance.
var _ payment.Repository = (*PaymentRepo)(nil)

// NewPaymentRepo creates a payments repository.
func NewPaymentRepo(txm *postgres.TxManager) *PaymentRepo {
	return &PaymentRepo{
		BaseRecordRepo: NewBaseRecordRepo(txm, "payments", []string{"memo"},
			func() *payment.Payment { return &payment.Payment{} }),
	}
}
