package disbursement

import (
	"context"
	"time"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/id"
	"backoffice/internal/core/identifier"
	"backoffice/internal/core/tx"
	"backoffice/internal/domain"
	"backoffice/pkg/logger"
)

// Service provides business logic for disbursement requests.
type Service struct {
	*domain.RecordService[*Request]
	repo      Repository
	txManager tx.Manager
	clock     func() time.Time
	decided   []domain.Hook[*Request]
}

// NewService creates a new disbursement Service.
func NewService(repo Repository, txm tx.Manager, issuer *identifier.Issuer, watermarks identifier.Watermarks) *Service {
	base := domain.NewRecordService(domain.RecordServiceConfig[*Request]{
		Repo:       repo,
		TxManager:  txm,
		Issuer:     issuer,
		Watermarks: watermarks,
		EntityName: "disbursement request",
	})

	svc := &Service{
		RecordService: base,
		repo:          repo,
		txManager:     txm,
		clock:         time.Now,
	}
	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)
	return svc
}

// Create files r, taking the department from the submitting clerk when the
// form leaves it blank.
func (s *Service) Create(ctx context.Context, r *Request) error {
	if r.Department == "" {
		r.Department = appctx.GetDepartment(ctx)
	}
	return s.RecordService.Create(ctx, r)
}

func (s *Service) prepareForCreate(_ context.Context, r *Request) error {
	if r.RequestedAt.IsZero() {
		r.RequestedAt = s.clock().UTC()
	}
	return nil
}

// OnDecision registers fn to run after a status change commits.
func (s *Service) OnDecision(fn domain.Hook[*Request]) {
	s.decided = append(s.decided, fn)
}

// Approve moves a pending request to approved.
func (s *Service) Approve(ctx context.Context, reqID id.ID, version int) (*Request, error) {
	return s.transition(ctx, reqID, version, StatusApproved)
}

// Reject closes a pending or approved request.
func (s *Service) Reject(ctx context.Context, reqID id.ID, version int) (*Request, error) {
	return s.transition(ctx, reqID, version, StatusRejected)
}

// Release marks an approved request as paid out.
func (s *Service) Release(ctx context.Context, reqID id.ID, version int) (*Request, error) {
	return s.transition(ctx, reqID, version, StatusReleased)
}

// Transition applies next by name.
func (s *Service) Transition(ctx context.Context, reqID id.ID, version int, next Status) (*Request, error) {
	return s.transition(ctx, reqID, version, next)
}

func (s *Service) transition(ctx context.Context, reqID id.ID, version int, next Status) (*Request, error) {
	var out *Request
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		r, err := s.GetByID(ctx, reqID)
		if err != nil {
			return err
		}
		if r.Version != version {
			return apperror.NewConcurrentModification("disbursement request", reqID.String())
		}

		from := r.Status
		if err := r.Decide(next, appctx.GetUserID(ctx), s.clock().UTC()); err != nil {
			return err
		}
		if err := s.repo.UpdateStatus(ctx, r); err != nil {
			return err
		}

		logger.FromContext(ctx).WithReference(string(identifier.DisbursementRequest), r.Reference).Infow(
			"disbursement request "+string(next), "from", from)
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, fn := range s.decided {
		if err := fn(ctx, out); err != nil {
			logger.Warn(ctx, "decision hook failed", logger.FieldReference, out.Reference, "error", err)
		}
	}
	return out, nil
}
