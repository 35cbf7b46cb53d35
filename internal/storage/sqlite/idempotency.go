package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/splitengine/internal/models"
	"github.com/mmynk/splitengine/internal/storage"
)

// GetIdempotencyKey retrieves the live key userID registered as key.
// Keys that expired at or before now are reported as ErrNotFound.
func (s *SQLiteStore) GetIdempotencyKey(ctx context.Context, userID, key string, now int64) (*models.IdempotencyKey, error) {
	k := &models.IdempotencyKey{}
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, idempotency_key, request_procedure, request_hash,
		        resource_type, resource_id, created_at, expires_at
		 FROM idempotency_keys
		 WHERE user_id = ? AND idempotency_key = ? AND expires_at > ?`,
		userID, key, now,
	).Scan(&k.UserID, &k.Key, &k.Procedure, &k.RequestHash,
		&k.ResourceType, &k.ResourceID, &k.CreatedAt, &k.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("idempotency key %q: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get idempotency key: %w", err)
	}
	return k, nil
}

// DeleteExpiredIdempotencyKeys removes every key that expired at or before now.
func (s *SQLiteStore) DeleteExpiredIdempotencyKeys(ctx context.Context, now int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired idempotency keys: %w", err)
	}
	return res.RowsAffected()
}

// insertIdempotencyKey records key for the resource just written in tx. An
// expired row under the same key is replaced; a live one is a conflict.
func insertIdempotencyKey(ctx context.Context, tx *sql.Tx, key *models.IdempotencyKey) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM idempotency_keys
		 WHERE user_id = ? AND idempotency_key = ? AND expires_at <= ?`,
		key.UserID, key.Key, key.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to clear expired idempotency key: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO idempotency_keys (user_id, idempotency_key, request_procedure, request_hash,
		                               resource_type, resource_id, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		key.UserID, key.Key, key.Procedure, key.RequestHash,
		key.ResourceType, key.ResourceID, key.CreatedAt, key.ExpiresAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("idempotency key %q: %w", key.Key, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert idempotency key: %w", err)
	}
	return nil
}
