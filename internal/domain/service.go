package domain

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/id"
	"backoffice/internal/core/identifier"
	"backoffice/internal/core/tx"
	"backoffice/pkg/logger"
)

// RecordService creates referenced records.
//
// Reference generation follows generate, insert, retry on duplicate: the
// unique index on the reference column is the correctness boundary, not the
// generator.
type RecordService[T Referenced] struct {
	repo       RecordRepository[T]
	txManager  tx.Manager
	issuer     *identifier.Issuer
	watermarks identifier.Watermarks // Optional
	hooks      *HookRegistry[T]
	clock      func() time.Time

	// entityName for error messages and logs
	entityName string
}

// RecordServiceConfig configures the record service.
type RecordServiceConfig[T Referenced] struct {
	Repo       RecordRepository[T]
	TxManager  tx.Manager
	Issuer     *identifier.Issuer
	Watermarks identifier.Watermarks
	EntityName string
}

// NewRecordService creates a new record service.
func NewRecordService[T Referenced](cfg RecordServiceConfig[T]) *RecordService[T] {
	return &RecordService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		issuer:     cfg.Issuer,
		watermarks: cfg.Watermarks,
		hooks:      NewHookRegistry[T](),
		clock:      time.Now,
		entityName: cfg.EntityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *RecordService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// EntityName returns the name used in errors and logs.
func (s *RecordService[T]) EntityName() string {
	return s.entityName
}

// SetClock replaces time.Now (bucket selection).
func (s *RecordService[T]) SetClock(clock func() time.Time) {
	s.clock = clock
}

func (s *RecordService[T]) normalizeValidationErr(err error) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *RecordService[T]) normalizeGetErr(err error, idOrRef any) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, idOrRef)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", idOrRef)
}

// Create validates rec, assigns it a reference and inserts it.
func (s *RecordService[T]) Create(ctx context.Context, rec T) error {
	// 1. Validate entity invariants
	if err := rec.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	// 2. Run before-create hooks
	if err := s.hooks.Run(ctx, BeforeCreate, rec); err != nil {
		return err
	}

	if userID := appctx.GetUserID(ctx); userID != "" {
		rec.SetCreatedBy(userID)
	}

	// 3. Generate + insert, retried on duplicate references
	fam := rec.Family()
	issued, err := s.issuer.Issue(ctx, fam, s.clock(), func(ctx context.Context, issued identifier.Issued) error {
		rec.AssignReference(issued.Value, issued.NonSequential)
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.repo.Create(ctx, rec); err != nil {
				return fmt.Errorf("create %s: %w", s.entityName, err)
			}
			if s.watermarks != nil && !issued.NonSequential {
				if err := s.watermarks.Advance(ctx, fam.SequenceKey(issued.Bucket), issued.Sequence); err != nil {
					return fmt.Errorf("advance %s: %w", fam.SequenceKey(issued.Bucket), err)
				}
			}
			return nil
		})
	})
	if err != nil {
		rec.AssignReference("", false)
		return err
	}

	// 4. Run after-create hooks (outside transaction)
	if err := s.hooks.Run(ctx, AfterCreate, rec); err != nil {
		logger.Warn(ctx, "after-create hook failed", "entity", s.entityName, "error", err)
	}

	logger.FromContext(ctx).WithReference(string(issued.Family), issued.Value).Infow(s.entityName+" created",
		"id", rec.GetID(),
		"attempt", issued.Attempt,
		"non_sequential", issued.NonSequential,
	)

	return nil
}

// GetByID retrieves a record.
func (s *RecordService[T]) GetByID(ctx context.Context, recID id.ID) (T, error) {
	rec, err := s.repo.GetByID(ctx, recID)
	if err != nil {
		return rec, s.normalizeGetErr(err, recID.String())
	}
	return rec, nil
}

// GetByReference retrieves a record by its reference.
func (s *RecordService[T]) GetByReference(ctx context.Context, reference string) (T, error) {
	rec, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return rec, s.normalizeGetErr(err, reference)
	}
	return rec, nil
}

// List retrieves records with filtering.
func (s *RecordService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = DefaultListFilter().Limit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Family != "" {
		if _, err := identifier.Lookup(filter.Family); err != nil {
			return ListResult[T]{}, err
		}
	}
	return s.repo.List(ctx, filter)
}
