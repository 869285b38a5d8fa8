package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"backoffice/internal/core/tx"
	"backoffice/pkg/logger"
)

var tracer = otel.Tracer("backoffice/postgres")

// Compile-time check that TxManager implements tx.Manager interface.
var _ tx.Manager = (*TxManager)(nil)

// Querier is satisfied by both the pool and an open transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Beginner starts transactions. *pgxpool.Pool implements it.
type Beginner interface {
	Querier
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TxManager runs functions inside Read Committed transactions.
// The unique index on each reference column, not the isolation level,
// arbitrates concurrent inserts.
type TxManager struct {
	db               Beginner
	statementTimeout time.Duration
}

// NewTxManager creates a transaction manager over db.
// A positive statementTimeout is applied with SET LOCAL to every transaction.
func NewTxManager(db Beginner, statementTimeout time.Duration) *TxManager {
	return &TxManager{db: db, statementTimeout: statementTimeout}
}

// txKey is the context key for active transaction.
type txKey struct{}

// RunInTransaction implements tx.Manager. A transaction already in ctx is reused.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, pgx.ReadWrite, fn)
}

// ReadOnly executes fn in a read-only transaction.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, pgx.ReadOnly, fn)
}

func (m *TxManager) run(ctx context.Context, mode pgx.TxAccessMode, fn func(ctx context.Context) error) error {
	if existing := txFrom(ctx); existing != nil {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(attribute.String("tx.access_mode", string(mode))))
	defer span.End()

	pgTx, err := m.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: mode})
	if err != nil {
		span.SetStatus(codes.Error, "begin")
		return TranslateError(fmt.Errorf("begin transaction: %w", err), "")
	}

	if m.statementTimeout > 0 {
		if _, err := pgTx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", m.statementTimeout.Milliseconds())); err != nil {
			_ = pgTx.Rollback(context.Background())
			return TranslateError(fmt.Errorf("set statement_timeout: %w", err), "")
		}
	}

	if err := fn(context.WithValue(ctx, txKey{}, pgTx)); err != nil {
		span.SetStatus(codes.Error, err.Error())
		// Background context: the rollback must run even after cancellation.
		if rbErr := pgTx.Rollback(context.Background()); rbErr != nil {
			logger.Error(ctx, "rollback failed", "error", rbErr, "original_error", err)
		}
		return err
	}

	if err := pgTx.Commit(ctx); err != nil {
		span.SetStatus(codes.Error, "commit")
		return TranslateError(fmt.Errorf("commit transaction: %w", err), "")
	}
	return nil
}

func txFrom(ctx context.Context) pgx.Tx {
	if t, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return t
	}
	return nil
}

// GetQuerier returns the transaction in ctx, or the pool outside one.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if t := txFrom(ctx); t != nil {
		return t
	}
	return m.db
}
