package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/id"
	"backoffice/internal/domain"
)

// AuditAction represents the type of audited operation.
type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionStatus AuditAction = "status"
)

// CompressionAlgo specifies the compression applied to a payload.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// defaultCompressThreshold is the payload size above which zstd is used.
const defaultCompressThreshold = 4 * 1024

// AuditEntry is one row of audit_log.
type AuditEntry struct {
	ID                id.ID           `db:"id" json:"id"`
	EntityType        string          `db:"entity_type" json:"entityType"`
	EntityID          id.ID           `db:"entity_id" json:"entityId"`
	Reference         string          `db:"reference" json:"reference"`
	Action            AuditAction     `db:"action" json:"action"`
	UserID            string          `db:"user_id" json:"userId"`
	NonSequential     bool            `db:"non_sequential" json:"nonSequential"`
	Payload           json.RawMessage `db:"payload" json:"payload,omitempty"`
	PayloadCompressed []byte          `db:"payload_compressed" json:"-"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}

// AuditLog writes the issuance trail: who created which reference, and
// whether it was issued in degraded mode.
type AuditLog struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditLog creates an audit log writer.
func NewAuditLog(txManager *TxManager) (*AuditLog, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditLog{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: defaultCompressThreshold,
	}, nil
}

// Close releases the zstd decoder.
func (a *AuditLog) Close() {
	a.decoder.Close()
	_ = a.encoder.Close()
}

// prepare fills defaults and compresses large payloads.
func (a *AuditLog) prepare(ctx context.Context, entry *AuditEntry) {
	if entry.UserID == "" {
		entry.UserID = appctx.GetUserID(ctx)
	}
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	entry.CompressionAlgo = CompressionNone
	if len(entry.Payload) > a.compressThreshold {
		entry.PayloadCompressed = a.encoder.EncodeAll(entry.Payload, nil)
		entry.Payload = nil
		entry.CompressionAlgo = CompressionZstd
	}
}

// Log records an audit entry.
func (a *AuditLog) Log(ctx context.Context, entry AuditEntry) error {
	a.prepare(ctx, &entry)

	const sql = `
		INSERT INTO audit_log (
			id, entity_type, entity_id, reference, action, user_id, non_sequential,
			payload, payload_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := a.txManager.GetQuerier(ctx).Exec(ctx, sql,
		entry.ID, entry.EntityType, entry.EntityID, entry.Reference, entry.Action,
		entry.UserID, entry.NonSequential,
		entry.Payload, entry.PayloadCompressed, entry.CompressionAlgo, entry.CreatedAt,
	)
	return TranslateError(err, "audit_log")
}

// LogRecord marshals record as the payload.
func (a *AuditLog) LogRecord(ctx context.Context, entityType string, action AuditAction, entityID id.ID, reference string, nonSequential bool, record any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	return a.Log(ctx, AuditEntry{
		EntityType:    entityType,
		EntityID:      entityID,
		Reference:     reference,
		Action:        action,
		NonSequential: nonSequential,
		Payload:       payload,
	})
}

// RecordHook returns a hook writing rec to the audit log under action.
// Registered after create, it records every issued reference.
func RecordHook[T domain.Referenced](a *AuditLog, entityType string, action AuditAction) domain.Hook[T] {
	return func(ctx context.Context, rec T) error {
		return a.LogRecord(ctx, entityType, action, rec.GetID(), rec.GetReference(), rec.IsNonSequential(), rec)
	}
}

// History returns the newest entries for an entity, payloads decompressed.
func (a *AuditLog) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]AuditEntry, error) {
	const sql = `
		SELECT id, entity_type, entity_id, reference, action, user_id, non_sequential,
			payload, payload_compressed, compression_algo, created_at
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := a.txManager.GetQuerier(ctx).Query(ctx, sql, entityType, entityID, limit)
	if err != nil {
		return nil, TranslateError(err, "audit_log")
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Reference, &e.Action, &e.UserID, &e.NonSequential,
			&e.Payload, &e.PayloadCompressed, &e.CompressionAlgo, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if err := a.inflate(&e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (a *AuditLog) inflate(e *AuditEntry) error {
	if e.CompressionAlgo != CompressionZstd || len(e.PayloadCompressed) == 0 {
		return nil
	}
	raw, err := a.decoder.DecodeAll(e.PayloadCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress audit payload: %w", err)
	}
	e.Payload = raw
	e.PayloadCompressed = nil
	return nil
}
