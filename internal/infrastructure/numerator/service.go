// Package numerator provides the PostgreSQL side of reference generation:
// candidate lookups over record tables and the sys_sequences watermarks.
package numerator

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/identifier"
	"backoffice/internal/infrastructure/storage/postgres"
)

// malformedSample bounds how many unparseable rows one lookup reports.
const malformedSample = 20

// maxDigits keeps candidate suffixes inside int64.
const maxDigits = identifier.MaxDigits

var tableNameRE = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// QuerierProvider hands out the transaction in ctx, or the pool.
// *postgres.TxManager implements it.
type QuerierProvider interface {
	GetQuerier(ctx context.Context) postgres.Querier
}

// Service implements identifier.Store and identifier.Watermarks.
type Service struct {
	db QuerierProvider
}

// Ensure compile-time interface compliance.
var (
	_ identifier.Store      = (*Service)(nil)
	_ identifier.Watermarks = (*Service)(nil)
)

// New creates a numerator service.
func New(db QuerierProvider) *Service {
	return &Service{db: db}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// topQuery selects the stored reference under stem with the numerically
// highest suffix. Ordering is numeric, so OR-2025-00010 beats OR-2025-00009
// and legacy narrow values (AP-7) compete fairly.
func topQuery(table, stem string) squirrel.SelectBuilder {
	pos := len(stem) + 1
	return builder().
		Select("reference").
		From(table).
		Where(`reference LIKE ? ESCAPE '\'`, postgres.EscapeLike(stem)+"%").
		Where(fmt.Sprintf("substr(reference, ?) ~ '^[0-9]{1,%d}$'", maxDigits), pos).
		OrderByClause("CAST(substr(reference, ?) AS BIGINT) DESC", pos).
		Limit(1)
}

// malformedQuery samples rows under stem whose suffix is not a sequence.
func malformedQuery(table, stem string) squirrel.SelectBuilder {
	pos := len(stem) + 1
	return builder().
		Select("reference").
		From(table).
		Where(`reference LIKE ? ESCAPE '\'`, postgres.EscapeLike(stem)+"%").
		Where(fmt.Sprintf("substr(reference, ?) !~ '^[0-9]{1,%d}$'", maxDigits), pos).
		OrderBy("reference").
		Limit(malformedSample)
}

// Candidates implements identifier.Store. It returns the highest numeric
// reference under stem plus a sample of malformed ones for the generator
// to report.
func (s *Service) Candidates(ctx context.Context, fam identifier.Family, stem string) ([]string, error) {
	if !tableNameRE.MatchString(fam.Table) {
		return nil, fmt.Errorf("family %s: invalid table name %q", fam.Key, fam.Table)
	}

	q := s.db.GetQuerier(ctx)
	var out []string
	for _, sel := range []squirrel.SelectBuilder{topQuery(fam.Table, stem), malformedQuery(fam.Table, stem)} {
		sql, args, err := sel.ToSql()
		if err != nil {
			return nil, fmt.Errorf("build candidate query: %w", err)
		}
		refs, err := collect(ctx, q, sql, args)
		if err != nil {
			return nil, fmt.Errorf("candidates %s: %w", fam.Table, err)
		}
		out = append(out, refs...)
	}
	return out, nil
}

func collect(ctx context.Context, q postgres.Querier, sql string, args []any) ([]string, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Watermark implements identifier.Watermarks.
func (s *Service) Watermark(ctx context.Context, key string) (int64, error) {
	var val int64
	err := s.db.GetQuerier(ctx).QueryRow(ctx,
		`SELECT current_val FROM sys_sequences WHERE key = $1`, key).Scan(&val)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, postgres.TranslateError(fmt.Errorf("read watermark %s: %w", key, err), "sys_sequences")
	}
	return val, nil
}

// Advance implements identifier.Watermarks. It never lowers the stored
// value and runs in the caller's transaction, so a rolled back insert
// leaves the watermark untouched.
func (s *Service) Advance(ctx context.Context, key string, seq int64) error {
	_, err := s.db.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET current_val = GREATEST(sys_sequences.current_val, EXCLUDED.current_val),
		    updated_at = now()`, key, seq)
	return postgres.TranslateError(err, "sys_sequences")
}

// Set implements identifier.Watermarks. Used to carry numbering over from
// a previous system.
func (s *Service) Set(ctx context.Context, key string, seq int64) error {
	if seq < 0 || seq > identifier.MaxSequence {
		return apperror.NewValidation("watermark out of range").WithDetail("key", key).WithDetail("value", seq)
	}
	_, err := s.db.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET current_val = EXCLUDED.current_val,
		    updated_at = now()`, key, seq)
	return postgres.TranslateError(err, "sys_sequences")
}
