package receipt

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/identifier"
	"backoffice/internal/core/tx"
	"backoffice/internal/domain"
	"backoffice/internal/domain/records/payment"
)

// PaymentReader loads the payment a receipt is issued for.
type PaymentReader interface {
	GetByID(ctx context.Context, id id.ID) (*payment.Payment, error)
}

// Service provides business logic for official receipts.
type Service struct {
	*domain.RecordService[*OfficialReceipt]
	repo     Repository
	payments PaymentReader
	clock    func() time.Time
}

// NewService creates a new OfficialReceipt service.
func NewService(
	repo Repository,
	payments PaymentReader,
	txm tx.Manager,
	issuer *identifier.Issuer,
	watermarks identifier.Watermarks,
) *Service {
	base := domain.NewRecordService(domain.RecordServiceConfig[*OfficialReceipt]{
		Repo:       repo,
		TxManager:  txm,
		Issuer:     issuer,
		Watermarks: watermarks,
		EntityName: "official receipt",
	})

	svc := &Service{
		RecordService: base,
		repo:          repo,
		payments:      payments,
		clock:         time.Now,
	}
	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)
	return svc
}

// IssueForPayment creates the receipt for a received payment, copying its
// amount and currency.
func (s *Service) IssueForPayment(ctx context.Context, paymentID id.ID, receivedFrom string) (*OfficialReceipt, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}

	r := NewOfficialReceipt(p.ID, receivedFrom, p.Amount, p.Currency)
	if err := s.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// prepareForCreate checks the payment and that it has no receipt yet.
func (s *Service) prepareForCreate(ctx context.Context, r *OfficialReceipt) error {
	p, err := s.payments.GetByID(ctx, r.PaymentID)
	if err != nil {
		return fmt.Errorf("load payment: %w", err)
	}
	if p.Direction != payment.DirectionReceived {
		return apperror.NewBusinessRule(CodeOutgoingPayment, "receipts are issued only for received payments").
			WithDetail("payment", p.Reference)
	}
	if !r.Amount.Equal(p.Amount) || r.Currency != p.Currency {
		return apperror.NewBusinessRule(CodeAmountMismatch, "receipt amount must match the payment").
			WithDetail("payment", p.Reference)
	}

	existing, err := s.repo.FindByPayment(ctx, r.PaymentID)
	if err != nil && !apperror.IsNotFound(err) {
		return err
	}
	if err == nil {
		return apperror.NewConflict("payment already has an official receipt").
			WithDetail("payment", p.Reference).
			WithDetail("receipt", existing.Reference)
	}

	if r.IssuedAt.IsZero() {
		r.IssuedAt = s.clock().UTC()
	}
	return nil
}
