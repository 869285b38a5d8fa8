package tx

import "context"

// MockManager runs fn without a database. Errors from fn pass through.
type MockManager struct {
	Calls int
}

// RunInTransaction implements Manager.
func (m *MockManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	return fn(ctx)
}

// Ensure compile-time interface compliance.
var _ Manager = (*MockManager)(nil)
