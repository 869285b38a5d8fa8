// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"

	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/core/identifier"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search matches reference and the record's searchable text columns
	Search string

	// IDs filters by specific IDs
	IDs []id.ID

	// NonSequentialOnly keeps degraded-mode records (reconciliation view)
	NonSequentialOnly bool

	// Family restricts tables shared by several families to one of them
	Family identifier.Key

	// OrderBy specifies sorting (e.g., "reference", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "-created_at",
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Records ---

// Referenced is a record that carries a generated reference.
type Referenced interface {
	entity.Validatable

	// Family selects the identifier family from the record's own fields
	// (payment direction, contact kind).
	Family() identifier.Family

	AssignReference(ref string, nonSequential bool)
	SetCreatedBy(userID string)
	GetID() id.ID
	GetReference() string
	IsNonSequential() bool
}

// RecordRepository defines persistence for referenced records.
type RecordRepository[T Referenced] interface {
	// Create inserts a new record. A reference that already exists must
	// surface as apperror.CodeDuplicateIdentifier.
	Create(ctx context.Context, rec T) error

	// GetByID retrieves record by ID
	GetByID(ctx context.Context, id id.ID) (T, error)

	// GetByReference retrieves record by its human-readable reference
	GetByReference(ctx context.Context, reference string) (T, error)

	// List retrieves records with filtering and pagination
	List(ctx context.Context, filter ListFilter) (ListResult[T], error)
}

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks for the specified event, stopping at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}
