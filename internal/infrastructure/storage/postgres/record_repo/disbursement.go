package record_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"backoffice/internal/core/apperror"
	"backoffice/internal/domain/records/disbursement"
	"backoffice/internal/infrastructure/storage/postgres"
)

// DisbursementRepo implements disbursement.Repository.
type DisbursementRepo struct {
	*BaseRecordRepo[*disbursement.Request]
}

// Ensure interface compliance.
var _ disbursement.Repository = (*DisbursementRepo)(nil)

// NewDisbursementRepo creates a disbursement requests repository.
func NewDisbursementRepo(txm *postgres.TxManager) *DisbursementRepo {
	return &DisbursementRepo{
		BaseRecordRepo: NewBaseRecordRepo(txm, "disbursement_requests", []string{"payee", "purpose", "department"},
			func() *disbursement.Request { return &disbursement.Request{} }),
	}
}

func (r *DisbursementRepo) updateStatusQuery(req *disbursement.Request) squirrel.UpdateBuilder {
	return r.Builder().
		Update(r.Table()).
		Set("status", req.Status).
		Set("decided_at", req.DecidedAt).
		Set("decided_by", req.DecidedBy).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": req.ID}).
		Where(squirrel.Eq{"version": req.Version})
}

// UpdateStatus implements disbursement.Repository with optimistic locking.
func (r *DisbursementRepo) UpdateStatus(ctx context.Context, req *disbursement.Request) error {
	sql, args, err := r.updateStatusQuery(req).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err, r.Table())
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.Table(), req.ID.String())
	}
	req.Version++
	return nil
}
