package domain

import (
	"context"
	"sort"
	"strings"
	"sync"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/identifier"
)

// MemoryRepository is an in-memory RecordRepository for unit tests.
// References are committed through the shared MemoryStore, so its unique
// index and the generator see the same rows.
type MemoryRepository[T Referenced] struct {
	mu      sync.Mutex
	store   *identifier.MemoryStore
	records map[id.ID]T
	order   []id.ID

	// CreateErr, when set, fails every Create before the reference is committed.
	CreateErr error
}

// NewMemoryRepository creates a repository backed by store.
func NewMemoryRepository[T Referenced](store *identifier.MemoryStore) *MemoryRepository[T] {
	return &MemoryRepository[T]{
		store:   store,
		records: make(map[id.ID]T),
	}
}

// Create implements RecordRepository.
func (r *MemoryRepository[T]) Create(ctx context.Context, rec T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	if _, exists := r.records[rec.GetID()]; exists {
		return apperror.NewDuplicate("record", "id", rec.GetID().String())
	}
	if err := r.store.Commit(rec.Family().Table, rec.GetReference()); err != nil {
		return err
	}
	r.records[rec.GetID()] = rec
	r.order = append(r.order, rec.GetID())
	return nil
}

// GetByID implements RecordRepository.
func (r *MemoryRepository[T]) GetByID(_ context.Context, recID id.ID) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recID]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound("record", recID.String())
	}
	return rec, nil
}

// GetByReference implements RecordRepository.
func (r *MemoryRepository[T]) GetByReference(_ context.Context, reference string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, recID := range r.order {
		if rec := r.records[recID]; rec.GetReference() == reference {
			return rec, nil
		}
	}
	var zero T
	return zero, apperror.NewNotFound("record", reference)
}

// List implements RecordRepository. Records come back in reference order.
func (r *MemoryRepository[T]) List(_ context.Context, filter ListFilter) (ListResult[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var fam identifier.Family
	if filter.Family != "" {
		fam = identifier.Families[filter.Family]
	}

	var matched []T
	for _, recID := range r.order {
		rec := r.records[recID]
		if filter.NonSequentialOnly && !rec.IsNonSequential() {
			continue
		}
		if filter.Family != "" && !fam.Owns(rec.GetReference()) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(rec.GetReference()), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, rec)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].GetReference() < matched[j].GetReference() })

	result := ListResult[T]{
		Items:      []T{},
		TotalCount: int64(len(matched)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if filter.Offset >= len(matched) {
		return result, nil
	}
	end := len(matched)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	result.Items = matched[filter.Offset:end]
	return result, nil
}

// Ensure compile-time interface compliance.
var _ RecordRepository[Referenced] = (*MemoryRepository[Referenced])(nil)
