package record_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"backoffice/internal/core/id"
	"backoffice/internal/domain/records/receipt"
	"backoffice/internal/infrastructure/storage/postgres"
)

// ReceiptRepo implements receipt.Repository.
type ReceiptRepo struct {
	*BaseRecordRepo[*receipt.OfficialReceipt]
}

// Ensure interface compliance.
var _ receipt.Repository = (*ReceiptRepo)(nil)

// NewReceiptRepo creates an official receipts repository.
func NewReceiptRepo(txm *postgres.TxManager) *ReceiptRepo {
	return &ReceiptRepo{
		BaseRecordRepo: NewBaseRecordRepo(txm, "official_receipts", []string{"received_from"},
			func() *receipt.OfficialReceipt { return &receipt.OfficialReceipt{} }),
	}
}

// FindByPayment implements receipt.Repository.
func (r *ReceiptRepo) FindByPayment(ctx context.Context, paymentID id.ID) (*receipt.OfficialReceipt, error) {
	return r.GetOne(ctx, squirrel.Eq{"payment_id": paymentID}, paymentID.String())
}
