package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"backoffice/internal/core/apperror"
)

// IdempotencyStatus represents the state of a keyed request.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
)

// staleAfter is how long a pending key may sit before another request reclaims it.
const staleAfter = time.Minute

// IdempotencyReplay is the cached HTTP response for replay.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore remembers the response of a create request so a client
// retrying after a lost response gets the same record instead of a second
// reference.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
	clock     func() time.Time
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		txManager: txManager,
		ttl:       ttl,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// AcquireKey claims key for this request.
// Returns:
//   - (nil, nil) if the key was claimed
//   - (replay, nil) if the same request already completed
//   - (nil, error) if the key is in flight or belongs to another request
func (s *IdempotencyStore) AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*IdempotencyReplay, error) {
	now := s.clock()
	q := s.txManager.GetQuerier(ctx)

	tag, err := q.Exec(ctx, `
		INSERT INTO sys_idempotency (idempotency_key, user_id, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, key, userID, operation, IdempotencyStatusPending, requestHash, now, now.Add(s.ttl))
	if err != nil {
		return nil, TranslateError(err, "sys_idempotency")
	}
	if tag.RowsAffected() == 1 {
		return nil, nil
	}

	var (
		storedUser, storedOp, storedHash string
		status                           IdempotencyStatus
		body                             []byte
		statusCode                       *int
		contentType                      *string
		updatedAt                        time.Time
	)
	err = q.QueryRow(ctx, `
		SELECT user_id, operation, request_hash, status, response, response_status, response_content_type, updated_at
		FROM sys_idempotency WHERE idempotency_key = $1
	`, key).Scan(&storedUser, &storedOp, &storedHash, &status, &body, &statusCode, &contentType, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Released between our insert and select.
		return s.AcquireKey(ctx, key, userID, operation, requestHash)
	}
	if err != nil {
		return nil, TranslateError(err, "sys_idempotency")
	}

	if storedUser != userID || storedOp != operation || storedHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key).
			WithDetail("operation", operation)
	}

	if status == IdempotencyStatusSuccess {
		replay := &IdempotencyReplay{StatusCode: 200, ContentType: "application/json", Body: body}
		if statusCode != nil && *statusCode != 0 {
			replay.StatusCode = *statusCode
		}
		if contentType != nil && *contentType != "" {
			replay.ContentType = *contentType
		}
		return replay, nil
	}

	if now.Sub(updatedAt) > staleAfter {
		tag, err := q.Exec(ctx, `
			UPDATE sys_idempotency SET updated_at = $1
			WHERE idempotency_key = $2 AND status = $3 AND updated_at = $4
		`, now, key, IdempotencyStatusPending, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("reclaim stale key: %w", TranslateError(err, "sys_idempotency"))
		}
		if tag.RowsAffected() == 1 {
			return nil, nil
		}
	}
	return nil, apperror.NewIdempotencyConflict(key)
}

// CompleteKey stores the response for replay.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_idempotency
		SET status = $1,
		    response = $2,
		    response_status = $3,
		    response_content_type = $4,
		    updated_at = $5
		WHERE idempotency_key = $6
	`, IdempotencyStatusSuccess, body, statusCode, contentType, s.clock(), key)
	return TranslateError(err, "sys_idempotency")
}

// ReleaseKey forgets a key whose request failed, so the client may retry it.
func (s *IdempotencyStore) ReleaseKey(ctx context.Context, key string) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_idempotency WHERE idempotency_key = $1 AND status = $2
	`, key, IdempotencyStatusPending)
	return TranslateError(err, "sys_idempotency")
}

// CleanupExpired removes expired idempotency records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_idempotency WHERE expires_at < $1
	`, s.clock())
	if err != nil {
		return 0, TranslateError(err, "sys_idempotency")
	}
	return result.RowsAffected(), nil
}
