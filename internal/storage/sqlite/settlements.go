package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitengine/internal/models"
	"github.com/mmynk/splitengine/internal/storage"
)

// CreateSettlement persists a new settlement, its ledger entry and an
// optional idempotency key.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement, key *models.IdempotencyKey) error {
	// Generate ID if not set
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}
	if settlement.SettledAt == 0 {
		settlement.SettledAt = settlement.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO settlements (id, group_id, payer_id, payee_id, amount, currency_code,
		                          created_by, note, settled_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.GroupID, settlement.PayerID, settlement.PayeeID,
		formatMoney(settlement.Amount), settlement.CurrencyCode, settlement.CreatedBy,
		nullString(settlement.Note), settlement.SettledAt, settlement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	if err := insertLedgerEntry(ctx, tx, settlement.LedgerEntry()); err != nil {
		return err
	}

	if key != nil {
		key.ResourceType = models.ResourceSettlement
		key.ResourceID = settlement.ID
		if err := insertIdempotencyKey(ctx, tx, key); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListSettlementsByGroup retrieves all settlements for a group.
func (s *SQLiteStore) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, payer_id, payee_id, amount, currency_code, created_by, note, settled_at, created_at
		 FROM settlements WHERE group_id = ? ORDER BY settled_at DESC, rowid DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}

// GetSettlement retrieves a settlement by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	settlement, err := scanSettlement(s.db.QueryRowContext(ctx,
		`SELECT id, group_id, payer_id, payee_id, amount, currency_code, created_by, note, settled_at, created_at
		 FROM settlements WHERE id = ?`,
		settlementID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return settlement, nil
}

func scanSettlement(row rowScanner) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var amount string
	var note sql.NullString

	if err := row.Scan(&settlement.ID, &settlement.GroupID, &settlement.PayerID, &settlement.PayeeID,
		&amount, &settlement.CurrencyCode, &settlement.CreatedBy, &note,
		&settlement.SettledAt, &settlement.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if settlement.Amount, err = parseMoney(amount); err != nil {
		return nil, err
	}
	settlement.Note = note.String
	return settlement, nil
}
