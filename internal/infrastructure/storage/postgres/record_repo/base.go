// Package record_repo provides PostgreSQL implementations for record repositories.
package record_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/identifier"
	"backoffice/internal/domain"
	"backoffice/internal/infrastructure/storage/postgres"
)

// BaseRecordRepo provides insert and lookups for referenced records.
// Embed this in specific record repositories.
type BaseRecordRepo[T domain.Referenced] struct {
	txm        *postgres.TxManager
	tableName  string
	selectCols []string
	searchCols []string
	newFn      func() T
}

// NewBaseRecordRepo creates a new base record repository.
// searchCols are matched with ILIKE by ListFilter.Search, besides reference.
func NewBaseRecordRepo[T domain.Referenced](
	txm *postgres.TxManager,
	tableName string,
	searchCols []string,
	newFn func() T,
) *BaseRecordRepo[T] {
	return &BaseRecordRepo[T]{
		txm:        txm,
		tableName:  tableName,
		selectCols: postgres.ExtractDBColumns[T](),
		searchCols: searchCols,
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseRecordRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Querier returns the transaction in ctx or the pool.
func (r *BaseRecordRepo[T]) Querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// Table returns the table name.
func (r *BaseRecordRepo[T]) Table() string {
	return r.tableName
}

// insertQuery builds the INSERT for rec from its "db" tags.
func (r *BaseRecordRepo[T]) insertQuery(rec T) (squirrel.InsertBuilder, error) {
	data := postgres.StructToMap(rec)
	if len(data) == 0 {
		return squirrel.InsertBuilder{}, fmt.Errorf("no db tags found in %T", rec)
	}

	cols := make([]string, 0, len(r.selectCols))
	vals := make([]any, 0, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			cols = append(cols, col)
			vals = append(vals, val)
		}
	}

	return r.Builder().
		Insert(r.tableName).
		Columns(cols...).
		Values(vals...), nil
}

// Create inserts a record. A taken reference surfaces as
// apperror.CodeDuplicateIdentifier.
func (r *BaseRecordRepo[T]) Create(ctx context.Context, rec T) error {
	q, err := r.insertQuery(rec)
	if err != nil {
		return err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		translated := postgres.TranslateError(err, r.tableName)
		if appErr, ok := apperror.AsAppError(translated); ok && appErr.Code == apperror.CodeDuplicateIdentifier {
			return appErr.WithDetail("value", rec.GetReference())
		}
		return translated
	}
	return nil
}

// baseSelect creates a SELECT builder.
func (r *BaseRecordRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetOne returns the single row matching where.
func (r *BaseRecordRepo[T]) GetOne(ctx context.Context, where squirrel.Sqlizer, key string) (T, error) {
	rec := r.newFn()

	sql, args, err := r.baseSelect().Where(where).Limit(1).ToSql()
	if err != nil {
		return rec, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.Querier(ctx), rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return rec, apperror.NewNotFound(r.tableName, key)
		}
		return rec, postgres.TranslateError(err, r.tableName)
	}
	return rec, nil
}

// GetByID retrieves a record by ID.
func (r *BaseRecordRepo[T]) GetByID(ctx context.Context, recID id.ID) (T, error) {
	return r.GetOne(ctx, squirrel.Eq{"id": recID}, recID.String())
}

// GetByReference retrieves a record by reference.
func (r *BaseRecordRepo[T]) GetByReference(ctx context.Context, reference string) (T, error) {
	return r.GetOne(ctx, squirrel.Eq{"reference": reference}, reference)
}

// listQuery applies filter conditions (no ordering or pagination).
func (r *BaseRecordRepo[T]) listQuery(filter domain.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect()

	if filter.Search != "" {
		pattern := "%" + postgres.EscapeLike(filter.Search) + "%"
		or := squirrel.Or{squirrel.ILike{"reference": pattern}}
		for _, col := range r.searchCols {
			or = append(or, squirrel.ILike{col: pattern})
		}
		q = q.Where(or)
	}

	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	if filter.NonSequentialOnly {
		q = q.Where(squirrel.Eq{"non_sequential": true})
	}

	if filter.Family != "" {
		if fam, ok := identifier.Families[filter.Family]; ok {
			q = q.Where(`reference LIKE ? ESCAPE '\'`, postgres.EscapeLike(fam.Root())+"%")
		}
	}

	return q
}

// parseOrderBy converts "-created_at" into "created_at DESC".
// Only selected columns are accepted.
func (r *BaseRecordRepo[T]) parseOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return "created_at DESC, reference DESC", nil
	}

	dir := "ASC"
	col := orderBy
	if strings.HasPrefix(col, "-") {
		dir = "DESC"
		col = col[1:]
	}
	for _, c := range r.selectCols {
		if c == col {
			return col + " " + dir, nil
		}
	}
	return "", apperror.NewValidation("invalid sort column").WithDetail("orderBy", orderBy)
}

// List retrieves records with filtering and pagination.
func (r *BaseRecordRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Items:  []T{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}

	q := r.listQuery(filter)
	querier := r.Querier(ctx)

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, postgres.TranslateError(fmt.Errorf("count %s: %w", r.tableName, err), r.tableName)
	}

	q = q.OrderBy(orderBy)
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, postgres.TranslateError(fmt.Errorf("list %s: %w", r.tableName, err), r.tableName)
	}
	return result, nil
}
