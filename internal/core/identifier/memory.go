package identifier

import (
	"context"
	"sort"
	"strings"
	"sync"

	"backoffice/internal/core/apperror"
)

// MemoryStore is an in-memory Store with a unique index per table.
// Use in unit tests to avoid database dependencies.
type MemoryStore struct {
	mu      sync.Mutex
	tables  map[string]map[string]struct{}
	err     error
	lookups int
}

// Ensure compile-time interface compliance.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]map[string]struct{})}
}

// Seed inserts rows without uniqueness checks, like data loaded by hand.
func (m *MemoryStore) Seed(table string, values ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.table(table)
	for _, v := range values {
		rows[v] = struct{}{}
	}
}

// Commit inserts value into table, failing on an existing value.
func (m *MemoryStore) Commit(table, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return apperror.NewStoreUnavailable(m.err)
	}
	rows := m.table(table)
	if _, exists := rows[value]; exists {
		return apperror.NewDuplicateIdentifier(table, value)
	}
	rows[value] = struct{}{}
	return nil
}

// Fail makes every following call return err. Nil restores the store.
func (m *MemoryStore) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Lookups returns how many times Candidates ran.
func (m *MemoryStore) Lookups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups
}

// Values returns all rows of table in sorted order.
func (m *MemoryStore) Values(table string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedKeys(m.tables[table], "")
}

// Candidates implements Store by returning every row under stem.
func (m *MemoryStore) Candidates(ctx context.Context, fam Family, stem string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.err != nil {
		return nil, m.err
	}
	return sortedKeys(m.tables[fam.Table], stem), nil
}

func (m *MemoryStore) table(name string) map[string]struct{} {
	rows, ok := m.tables[name]
	if !ok {
		rows = make(map[string]struct{})
		m.tables[name] = rows
	}
	return rows
}

func sortedKeys(rows map[string]struct{}, prefix string) []string {
	out := make([]string, 0, len(rows))
	for v := range rows {
		if strings.HasPrefix(v, prefix) {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// MemoryWatermarks is an in-memory Watermarks.
type MemoryWatermarks struct {
	mu    sync.Mutex
	marks map[string]int64
}

// Ensure compile-time interface compliance.
var _ Watermarks = (*MemoryWatermarks)(nil)

// NewMemoryWatermarks creates an empty counter table.
func NewMemoryWatermarks() *MemoryWatermarks {
	return &MemoryWatermarks{marks: make(map[string]int64)}
}

// Watermark implements Watermarks.
func (w *MemoryWatermarks) Watermark(_ context.Context, key string) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.marks[key], nil
}

// Advance implements Watermarks.
func (w *MemoryWatermarks) Advance(_ context.Context, key string, seq int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if seq > w.marks[key] {
		w.marks[key] = seq
	}
	return nil
}

// Set implements Watermarks.
func (w *MemoryWatermarks) Set(_ context.Context, key string, seq int64) error {
	if seq < 0 || seq > MaxSequence {
		return apperror.NewValidation("watermark out of range").WithDetail("key", key).WithDetail("value", seq)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.marks[key] = seq
	return nil
}
