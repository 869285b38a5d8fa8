package postgres

import (
	"context"
	"fmt"

	"backoffice/pkg/logger"
)

// migrationLockID serializes concurrent Migrate calls across processes.
const migrationLockID = 72_410_001

// schema is applied in order. Every statement is idempotent.
//
// Each referenced table carries "reference TEXT NOT NULL UNIQUE": the
// constraint <table>_reference_key is what turns a lost race into a
// DuplicateIdentifier. The text_pattern_ops index serves the prefix scans
// behind candidate lookups.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS contacts (
		id             UUID PRIMARY KEY,
		reference      TEXT NOT NULL UNIQUE,
		non_sequential BOOLEAN NOT NULL DEFAULT FALSE,
		version        INT NOT NULL DEFAULT 1,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by     TEXT NOT NULL DEFAULT '',
		kind           TEXT NOT NULL CHECK (kind IN ('vendor', 'customer')),
		name           TEXT NOT NULL,
		email          TEXT,
		phone          TEXT,
		tax_id         TEXT,
		UNIQUE (kind, tax_id)
	)`,
	`CREATE INDEX IF NOT EXISTS contacts_reference_pattern_idx ON contacts (reference text_pattern_ops)`,

	`CREATE TABLE IF NOT EXISTS payments (
		id             UUID PRIMARY KEY,
		reference      TEXT NOT NULL UNIQUE,
		non_sequential BOOLEAN NOT NULL DEFAULT FALSE,
		version        INT NOT NULL DEFAULT 1,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by     TEXT NOT NULL DEFAULT '',
		direction      TEXT NOT NULL CHECK (direction IN ('received', 'made')),
		amount         NUMERIC(18, 2) NOT NULL CHECK (amount > 0),
		currency       TEXT NOT NULL,
		method         TEXT NOT NULL,
		contact_id     UUID REFERENCES contacts (id),
		paid_at        TIMESTAMPTZ NOT NULL,
		memo           TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS payments_reference_pattern_idx ON payments (reference text_pattern_ops)`,

	`CREATE TABLE IF NOT EXISTS official_receipts (
		id             UUID PRIMARY KEY,
		reference      TEXT NOT NULL UNIQUE,
		non_sequential BOOLEAN NOT NULL DEFAULT FALSE,
		version        INT NOT NULL DEFAULT 1,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by     TEXT NOT NULL DEFAULT '',
		payment_id     UUID NOT NULL UNIQUE REFERENCES payments (id),
		received_from  TEXT NOT NULL,
		amount         NUMERIC(18, 2) NOT NULL CHECK (amount > 0),
		currency       TEXT NOT NULL,
		issued_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS official_receipts_reference_pattern_idx ON official_receipts (reference text_pattern_ops)`,

	`CREATE TABLE IF NOT EXISTS disbursement_requests (
		id             UUID PRIMARY KEY,
		reference      TEXT NOT NULL UNIQUE,
		non_sequential BOOLEAN NOT NULL DEFAULT FALSE,
		version        INT NOT NULL DEFAULT 1,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by     TEXT NOT NULL DEFAULT '',
		payee          TEXT NOT NULL,
		amount         NUMERIC(18, 2) NOT NULL CHECK (amount > 0),
		currency       TEXT NOT NULL,
		purpose        TEXT NOT NULL,
		department     TEXT NOT NULL,
		status         TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected', 'released')),
		requested_at   TIMESTAMPTZ NOT NULL,
		decided_at     TIMESTAMPTZ,
		decided_by     TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS disbursement_requests_reference_pattern_idx ON disbursement_requests (reference text_pattern_ops)`,

	// Optional floor per family+bucket. Advanced in the insert transaction.
	`CREATE TABLE IF NOT EXISTS sys_sequences (
		key         TEXT PRIMARY KEY,
		current_val BIGINT NOT NULL DEFAULT 0,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS audit_log (
		id                 UUID PRIMARY KEY,
		entity_type        TEXT NOT NULL,
		entity_id          UUID NOT NULL,
		reference          TEXT NOT NULL,
		action             TEXT NOT NULL,
		user_id            TEXT NOT NULL DEFAULT '',
		non_sequential     BOOLEAN NOT NULL DEFAULT FALSE,
		payload            JSONB,
		payload_compressed BYTEA,
		compression_algo   TEXT NOT NULL DEFAULT 'none',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS audit_log_entity_idx ON audit_log (entity_type, entity_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS sys_idempotency (
		idempotency_key       TEXT PRIMARY KEY,
		user_id               TEXT NOT NULL DEFAULT '',
		operation             TEXT NOT NULL,
		status                TEXT NOT NULL,
		request_hash          TEXT NOT NULL,
		response              BYTEA,
		response_status       INT,
		response_content_type TEXT,
		created_at            TIMESTAMPTZ NOT NULL,
		updated_at            TIMESTAMPTZ NOT NULL,
		expires_at            TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sys_idempotency_expires_idx ON sys_idempotency (expires_at)`,
}

// Migrate creates the tables if they do not exist.
func Migrate(ctx context.Context, txm *TxManager) error {
	return txm.RunInTransaction(ctx, func(ctx context.Context) error {
		q := txm.GetQuerier(ctx)
		if _, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID); err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		for i, stmt := range schema {
			if _, err := q.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("migration step %d: %w", i+1, err)
			}
		}
		logger.Info(ctx, "schema up to date", "statements", len(schema))
		return nil
	})
}
