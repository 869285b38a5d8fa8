package payment

import (
	"context"
	"strings"
	"time"

	"backoffice/internal/core/identifier"
	"backoffice/internal/core/tx"
	"backoffice/internal/domain"
)

// Service provides business logic for payments.
type Service struct {
	*domain.RecordService[*Payment]
	clock func() time.Time
}

// NewService creates a new Payment service.
func NewService(repo Repository, txm tx.Manager, issuer *identifier.Issuer, watermarks identifier.Watermarks) *Service {
	base := domain.NewRecordService(domain.RecordServiceConfig[*Payment]{
		Repo:       repo,
		TxManager:  txm,
		Issuer:     issuer,
		Watermarks: watermarks,
		EntityName: "payment",
	})

	svc := &Service{RecordService: base, clock: time.Now}
	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)
	return svc
}

func (s *Service) prepareForCreate(_ context.Context, p *Payment) error {
	if p.PaidAt.IsZero() {
		p.PaidAt = s.clock().UTC()
	}
	if p.Memo != nil {
		memo := strings.TrimSpace(*p.Memo)
		if memo == "" {
			p.Memo = nil
		} else {
			p.Memo = &memo
		}
	}
	return nil
}
