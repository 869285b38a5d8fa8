// Package disbursement provides disbursement requests (DISB-YYYY-NNN).
package disbursement

import (
	"context"
	"strings"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/identifier"
	"backoffice/internal/core/types"
)

// Status is the approval state of a request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusReleased Status = "released"
)

// CodeInvalidTransition is returned for a status change the workflow does not allow.
const CodeInvalidTransition = "INVALID_STATUS_TRANSITION"

// transitions lists the statuses reachable from each status.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusReleased, StatusRejected},
}

// Request asks for money to be paid out.
type Request struct {
	entity.BaseRecord

	Payee      string      `db:"payee" json:"payee"`
	Amount     types.Money `db:"amount" json:"amount"`
	Currency   string      `db:"currency" json:"currency"`
	Purpose    string      `db:"purpose" json:"purpose"`
	Department string      `db:"department" json:"department"`

	Status      Status     `db:"status" json:"status"`
	RequestedAt time.Time  `db:"requested_at" json:"requestedAt"`
	DecidedAt   *time.Time `db:"decided_at" json:"decidedAt,omitempty"`
	DecidedBy   *string    `db:"decided_by" json:"decidedBy,omitempty"`
}

// NewRequest creates a pending request.
func NewRequest(payee string, amount types.Money, currency, purpose, department string) *Request {
	return &Request{
		BaseRecord: entity.NewBaseRecord(),
		Payee:      strings.TrimSpace(payee),
		Amount:     amount,
		Currency:   strings.ToUpper(strings.TrimSpace(currency)),
		Purpose:    strings.TrimSpace(purpose),
		Department: strings.TrimSpace(department),
		Status:     StatusPending,
	}
}

// Family implements domain.Referenced.
func (r *Request) Family() identifier.Family {
	return identifier.Families[identifier.DisbursementRequest]
}

// Validate implements entity.Validatable interface.
func (r *Request) Validate(ctx context.Context) error {
	if r.Payee == "" {
		return apperror.NewValidation("payee is required").WithDetail("field", "payee")
	}
	if r.Purpose == "" {
		return apperror.NewValidation("purpose is required").WithDetail("field", "purpose")
	}
	if r.Department == "" {
		return apperror.NewValidation("department is required").WithDetail("field", "department")
	}
	if err := types.CheckAmount(r.Amount); err != nil {
		return apperror.NewValidation(err.Error()).WithDetail("field", "amount")
	}
	if err := types.CheckCurrency(r.Currency); err != nil {
		return apperror.NewValidation(err.Error()).WithDetail("field", "currency")
	}
	if r.Status != StatusPending {
		return apperror.NewValidation("new requests must be pending").WithDetail("field", "status")
	}
	return nil
}

// CanTransition reports whether the request may move to next.
func (r *Request) CanTransition(next Status) bool {
	for _, s := range transitions[r.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// Decide moves the request to next on behalf of userID.
func (r *Request) Decide(next Status, userID string, at time.Time) error {
	if !r.CanTransition(next) {
		return apperror.NewBusinessRule(CodeInvalidTransition, "request cannot move from "+string(r.Status)+" to "+string(next)).
			WithDetail("reference", r.Reference).
			WithDetail("status", string(r.Status))
	}
	r.Status = next
	r.DecidedAt = &at
	if userID != "" {
		r.DecidedBy = &userID
	}
	return nil
}
