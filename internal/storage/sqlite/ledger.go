package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/splitengine/internal/models"
)

func insertLedgerEntry(ctx context.Context, tx *sql.Tx, entry models.LedgerEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (group_id, debtor_id, creditor_id, amount, currency_code,
		                             entry_type, expense_id, settlement_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.GroupID, entry.DebtorID, entry.CreditorID, formatMoney(entry.Amount),
		entry.CurrencyCode, string(entry.EntryType), nullString(entry.ExpenseID),
		nullString(entry.SettlementID), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

// ListLedgerEntries retrieves every ledger entry of a group in insertion order.
func (s *SQLiteStore) ListLedgerEntries(ctx context.Context, groupID string) ([]models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, debtor_id, creditor_id, amount, currency_code,
		        entry_type, expense_id, settlement_id, created_at
		 FROM ledger_entries WHERE group_id = ? ORDER BY id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		var amount, entryType string
		var expenseID, settlementID sql.NullString
		if err := rows.Scan(&entry.ID, &entry.GroupID, &entry.DebtorID, &entry.CreditorID,
			&amount, &entry.CurrencyCode, &entryType, &expenseID, &settlementID,
			&entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		if entry.Amount, err = parseMoney(amount); err != nil {
			return nil, err
		}
		entry.EntryType = models.EntryType(entryType)
		entry.ExpenseID = expenseID.String
		entry.SettlementID = settlementID.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}
