package dto

import (
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
	"backoffice/internal/domain/records/contact"
	"backoffice/internal/domain/records/disbursement"
	"backoffice/internal/domain/records/payment"
)

// --- Payments ---

// CreatePaymentRequest is the body of POST /payments.
type CreatePaymentRequest struct {
	Direction string      `json:"direction" binding:"required,oneof=received made"`
	Amount    types.Money `json:"amount"`
	Currency  string      `json:"currency" binding:"required"`
	Method    string      `json:"method" binding:"required"`
	ContactID *string     `json:"contactId"`
	PaidAt    *time.Time  `json:"paidAt"`
	Memo      *string     `json:"memo"`
}

// ToEntity maps the request to a payment.
func (r CreatePaymentRequest) ToEntity() (*payment.Payment, error) {
	p := payment.NewPayment(payment.Direction(r.Direction), r.Amount, r.Currency, payment.Method(r.Method))
	if r.ContactID != nil && *r.ContactID != "" {
		contactID, err := id.Parse(*r.ContactID)
		if err != nil {
			return nil, apperror.NewValidation("invalid contact id").WithDetail("field", "contactId")
		}
		p.ContactID = &contactID
	}
	if r.PaidAt != nil {
		p.PaidAt = r.PaidAt.UTC()
	}
	p.Memo = r.Memo
	return p, nil
}

// --- Official receipts ---

// CreateReceiptRequest is the body of POST /receipts.
type CreateReceiptRequest struct {
	PaymentID    string `json:"paymentId" binding:"required"`
	ReceivedFrom string `json:"receivedFrom" binding:"required"`
}

// --- Contacts ---

// CreateContactRequest is the body of POST /contacts.
type CreateContactRequest struct {
	Kind  string  `json:"kind" binding:"required,oneof=vendor customer"`
	Name  string  `json:"name" binding:"required"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
	TaxID *string `json:"taxId"`
}

// ToEntity maps the request to a contact.
func (r CreateContactRequest) ToEntity() (*contact.Contact, error) {
	c := contact.NewContact(contact.Kind(r.Kind), r.Name)
	c.Email = r.Email
	c.Phone = r.Phone
	c.TaxID = r.TaxID
	return c, nil
}

// --- Disbursement requests ---

// CreateDisbursementRequest is the body of POST /disbursements.
type CreateDisbursementRequest struct {
	Payee      string      `json:"payee" binding:"required"`
	Amount     types.Money `json:"amount"`
	Currency   string      `json:"currency" binding:"required"`
	Purpose    string      `json:"purpose" binding:"required"`
	Department string      `json:"department"` // defaults to the clerk's department
}

// ToEntity maps the request to a disbursement request.
func (r CreateDisbursementRequest) ToEntity() (*disbursement.Request, error) {
	return disbursement.NewRequest(r.Payee, r.Amount, r.Currency, r.Purpose, r.Department), nil
}

// DecisionRequest is the body of POST /disbursements/:id/status.
type DecisionRequest struct {
	Status  string `json:"status" binding:"required,oneof=approved rejected released"`
	Version int    `json:"version" binding:"required,min=1"`
}
