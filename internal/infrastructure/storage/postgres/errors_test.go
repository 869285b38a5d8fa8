package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"backoffice/internal/core/apperror"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"reference unique index", &pgconn.PgError{Code: "23505", ConstraintName: "payments_reference_key"}, apperror.CodeDuplicateIdentifier},
		{"wrapped reference index", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "contacts_reference_key"}), apperror.CodeDuplicateIdentifier},
		{"other unique index", &pgconn.PgError{Code: "23505", ConstraintName: "official_receipts_payment_id_key"}, apperror.CodeDuplicate},
		{"foreign key", &pgconn.PgError{Code: "23503"}, CodeReferenceViolation},
		{"check", &pgconn.PgError{Code: "23514"}, apperror.CodeValidation},
		{"serialization", &pgconn.PgError{Code: "40001"}, apperror.CodeConcurrentModification},
		{"statement timeout", &pgconn.PgError{Code: "57014"}, apperror.CodeStoreUnavailable},
		{"connection failure", &pgconn.PgError{Code: "08006"}, apperror.CodeStoreUnavailable},
		{"deadline", context.DeadlineExceeded, apperror.CodeStoreUnavailable},
		{"no rows", pgx.ErrNoRows, apperror.CodeNotFound},
		{"unknown", errors.New("boom"), apperror.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranslateError(tt.err, "payments")
			assert.True(t, apperror.HasCode(got, tt.code), "got %v", got)
		})
	}
}

func TestTranslateError_PassThrough(t *testing.T) {
	assert.NoError(t, TranslateError(nil, ""))
	assert.ErrorIs(t, TranslateError(context.Canceled, ""), context.Canceled)

	appErr := apperror.NewValidation("bad")
	assert.Same(t, appErr, TranslateError(appErr, ""))
}
