// Package payment provides payment records (received and made).
package payment

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

// Direction tells whether money came in or went out.
type Direction string

const (
	DirectionReceived Direction = "received"
	DirectionMade     Direction = "made"
)

// Method is how the payment was settled.
type Method string

const (
	MethodCash         Method = "cash"
	MethodCheck        Method = "check"
	MethodBankTransfer Method = "bank_transfer"
	MethodCard         Method = "card"
)

// Payment is a recorded money movement. Received payments are numbered
// PMT-YYYY-NNN and payments made V-PMT-YYYY-NNN.
type Payment struct {
	entity.BaseRecord

	Direction Direction   `db:"direction" json:"direction"`
	Amount    types.Money `db:"amount" json:"amount"`
	Currency  string      `db:"currency" json:"currency"`
	Method    Method      `db:"method" json:"method"`

	// ContactID links the vendor or customer, if known
	ContactID *id.ID `db:"contact_id" json:"contactId,omitempty"`

	PaidAt time.Time `db:"paid_at" json:"paidAt"`
	Memo   *string   `db:"memo" json:"memo,omitempty"`
}

// NewPayment creates a payment with required fields.
func NewPayment(direction Direction, amount types.Money, currency string, method Method) *Payment {
	return &Payment{
		BaseRecord: entity.NewBaseRecord(),
		Direction:  direction,
		Amount:     amount,
		Currency:   strings.ToUpper(strings.TrimSpace(currency)),
		Method:     method,
	}
}

// Family implements domain.Referenced.
func (p *Payment) Family() identifier.Family {
	if p.Direction == DirectionMade {
		return identifier.Families[identifier.PaymentMade]
	}
	return identifier.Families[identifier.PaymentReceived]
}

// Validate implements entity.Validatable interface.
func (p *Payment) Validate(ctx context.Context) error {
	switch p.Direction {
	case DirectionReceived, DirectionMade:
	default:
		return apperror.NewValidation("invalid payment direction").
			WithDetail("field", "direction").
			WithDetail("value", string(p.Direction))
	}

	switch p.Method {
	case MethodCash, MethodCheck, MethodBankTransfer, MethodCard:
	default:
		return apperror.NewValidation("invalid payment method").
			WithDetail("field", "method").
			WithDetail("value", string(p.Method))
	}

	if err := types.CheckAmount(p.Amount); err != nil {
		return apperror.NewValidation(err.Error()).WithDetail("field", "amount")
	}
	if err := types.CheckCurrency(p.Currency); err != nil {
		return apperror.NewValidation(err.Error()).WithDetail("field", "currency")
	}

	if p.ContactID != nil && id.IsNil(*p.ContactID) {
		return apperror.NewValidation("contact id must not be nil").WithDetail("field", "contactId")
	}

	return nil
}
