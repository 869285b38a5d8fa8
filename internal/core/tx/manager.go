// Package tx provides transaction management abstractions.
package tx

import (
	"context"
)

// Manager runs fn inside a database transaction.
// A record insert and its watermark advance share one transaction, so a
// failed insert never consumes a sequence number.
//
// The implementation lives in infrastructure/storage/postgres.
type Manager interface {
	// RunInTransaction commits when fn returns nil and rolls back otherwise.
	// Nested calls reuse the transaction already in ctx.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
