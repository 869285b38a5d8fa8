package record_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"backoffice/internal/domain/records/contact"
	"backoffice/internal/infrastructure/storage/postgres"
)

// ContactRepo implements contact.Repository.
type ContactRepo struct {
	*BaseRecordRepo[*contact.Contact]
}

// Ensure interface compliance.
var _ contact.Repository = (*ContactRepo)(nil)

// NewContactRepo creates a contacts repository.
func NewContactRepo(txm *postgres.TxManager) *ContactRepo {
	return &ContactRepo{
		BaseRecordRepo: NewBaseRecordRepo(txm, "contacts", []string{"name", "email", "tax_id"},
			func() *contact.Contact { return &contact.Contact{} }),
	}
}

// FindByTaxID implements contact.Repository.
func (r *ContactRepo) FindByTaxID(ctx context.Context, kind contact.Kind, taxID string) (*contact.Contact, error) {
	return r.GetOne(ctx, squirrel.Eq{"kind": kind, "tax_id": taxID}, taxID)
}
