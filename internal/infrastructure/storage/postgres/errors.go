package postgres

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"backoffice/internal/core/apperror"
)

// PostgreSQL error codes used for classification.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgSerialization       = "40001"
	pgDeadlock            = "40P01"
	pgQueryCanceled       = "57014"
	pgAdminShutdown       = "57P01"
	pgCannotConnectNow    = "57P03"
	pgTooManyConnections  = "53300"
)

// CodeReferenceViolation is returned when a row points at a missing parent.
const CodeReferenceViolation = "REFERENCE_VIOLATION"

// referenceColumn is the column every referenced table indexes uniquely.
const referenceColumn = "reference"

// TranslateError maps driver errors into the application taxonomy.
//
//   - unique violation on the reference index: DuplicateIdentifier
//   - connection loss, timeouts, shutdown: StoreUnavailable
//   - pgx.ErrNoRows: NotFound
//
// Context cancellation is returned unchanged. table names the relation
// for error details and may be empty.
func TranslateError(err error, table string) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) || errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound(table, "").WithCause(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if isReferenceConstraint(pgErr) {
				return apperror.NewDuplicateIdentifier(table, "").
					WithDetail("constraint", pgErr.ConstraintName).
					WithCause(err)
			}
			return apperror.NewDuplicate(table, pgErr.ConstraintName, "").WithCause(err)
		case pgForeignKeyViolation:
			return apperror.NewBusinessRule(CodeReferenceViolation, "record refers to a row that does not exist").
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case pgCheckViolation:
			return apperror.NewValidation("record violates a database check").
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case pgSerialization, pgDeadlock:
			return apperror.NewConcurrentModification(table, "").WithCause(err)
		case pgQueryCanceled, pgAdminShutdown, pgCannotConnectNow, pgTooManyConnections:
			return apperror.NewStoreUnavailable(err)
		}
		// Class 08: connection exception.
		if strings.HasPrefix(pgErr.Code, "08") {
			return apperror.NewStoreUnavailable(err)
		}
		return apperror.NewInternal(err)
	}

	if isUnavailable(err) {
		return apperror.NewStoreUnavailable(err)
	}
	return apperror.NewInternal(err)
}

func isReferenceConstraint(pgErr *pgconn.PgError) bool {
	if pgErr.ColumnName == referenceColumn {
		return true
	}
	// Constraint created by "reference TEXT NOT NULL UNIQUE" is <table>_reference_key.
	return strings.HasSuffix(pgErr.ConstraintName, "_"+referenceColumn+"_key")
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
