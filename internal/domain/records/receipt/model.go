// Package receipt provides official receipts (OR-YYYY-NNNNN).
package receipt

import (
	"context"
	"strings"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/core/identifier"
	"backoffice/internal/core/types"
)

// Business rule codes.
const (
	CodeOutgoingPayment = "RECEIPT_FOR_OUTGOING_PAYMENT"
	CodeAmountMismatch  = "RECEIPT_AMOUNT_MISMATCH"
)

// OfficialReceipt acknowledges a received payment.
type OfficialReceipt struct {
	entity.BaseRecord

	// PaymentID is the received payment this receipt covers
	PaymentID id.ID `db:"payment_id" json:"paymentId"`

	ReceivedFrom string      `db:"received_from" json:"receivedFrom"`
	Amount       types.Money `db:"amount" json:"amount"`
	Currency     string      `db:"currency" json:"currency"`
	IssuedAt     time.Time   `db:"issued_at" json:"issuedAt"`
}

// NewOfficialReceipt creates a receipt with required fields.
func NewOfficialReceipt(paymentID id.ID, receivedFrom string, amount types.Money, currency string) *OfficialReceipt {
	return &OfficialReceipt{
		BaseRecord:   entity.NewBaseRecord(),
		PaymentID:    paymentID,
		ReceivedFrom: strings.TrimSpace(receivedFrom),
		Amount:       amount,
		Currency:     strings.ToUpper(strings.TrimSpace(currency)),
	}
}

// Family implements domain.Referenced.
func (r *OfficialReceipt) Family() identifier.Family {
	return identifier.Families[identifier.OfficialReceipt]
}

// Validate implements entity.Validatable interface.
func (r *OfficialReceipt) Validate(ctx context.Context) error {
	if id.IsNil(r.PaymentID) {
		return apperror.NewValidation("payment is required").WithDetail("field", "paymentId")
	}
	if r.ReceivedFrom == "" {
		return apperror.NewValidation("received from is required").WithDetail("field", "receivedFrom")
	}
	if err := types.CheckAmount(r.Amount); err != nil {
		return apperror.NewValidation(err.Error()).WithDetail("field", "amount")
	}
	if err := types.CheckCurrency(r.Currency); err != nil {
		return apperror.NewValidation(err.Error()).WithDetail("field", "currency")
	}
	return nil
}
