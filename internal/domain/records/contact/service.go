package contact

import (
	"context"
	"strings"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/identifier"
	"backoffice/internal/core/tx"
	"backoffice/internal/domain"
)

// Service provides business logic for contacts.
type Service struct {
	*domain.RecordService[*Contact]
	repo Repository
}

// NewService creates a new Contact service.
func NewService(repo Repository, txm tx.Manager, issuer *identifier.Issuer, watermarks identifier.Watermarks) *Service {
	base := domain.NewRecordService(domain.RecordServiceConfig[*Contact]{
		Repo:       repo,
		TxManager:  txm,
		Issuer:     issuer,
		Watermarks: watermarks,
		EntityName: "contact",
	})

	svc := &Service{RecordService: base, repo: repo}
	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)
	return svc
}

// prepareForCreate normalizes optional fields and checks tax ID uniqueness.
func (s *Service) prepareForCreate(ctx context.Context, c *Contact) error {
	c.Email = trimOptional(c.Email)
	c.Phone = trimOptional(c.Phone)
	c.TaxID = trimOptional(c.TaxID)

	if c.TaxID == nil {
		return nil
	}
	existing, err := s.repo.FindByTaxID(ctx, c.Kind, *c.TaxID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	return apperror.NewConflict("contact with this tax ID already exists").
		WithDetail("taxId", *c.TaxID).
		WithDetail("reference", existing.Reference)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
