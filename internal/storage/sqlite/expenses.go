package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitengine/internal/models"
	"github.com/mmynk/splitengine/internal/storage"
)

// CreateExpense persists an expense with its shares, its ledger entries and
// an optional idempotency key.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense, key *models.IdempotencyKey) error {
	// Generate IDs if not set
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.OccurredAt == 0 {
		expense.OccurredAt = expense.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, paid_by, created_by, description, currency_code,
		                       total_amount, split_method, occurred_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.PaidBy, expense.CreatedBy, expense.Description,
		expense.CurrencyCode, formatMoney(expense.Total), expense.SplitMethod,
		expense.OccurredAt, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, p := range expense.Participants {
		var pct sql.NullString
		if p.SharePercentage != nil {
			pct = nullString(p.SharePercentage.String())
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO expense_participants (expense_id, user_id, position, share_amount, share_percentage)
			 VALUES (?, ?, ?, ?, ?)`,
			expense.ID, p.UserID, i, formatMoney(p.ShareAmount), pct,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense participant: %w", err)
		}
	}

	for _, entry := range expense.LedgerEntries() {
		if err := insertLedgerEntry(ctx, tx, entry); err != nil {
			return err
		}
	}

	if key != nil {
		key.ResourceType = models.ResourceExpense
		key.ResourceID = expense.ID
		if err := insertIdempotencyKey(ctx, tx, key); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense by ID, including participant shares in
// their original order.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := scanExpense(s.db.QueryRowContext(ctx,
		`SELECT id, group_id, paid_by, created_by, description, currency_code,
		        total_amount, split_method, occurred_at, created_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := s.loadParticipants(ctx, expense); err != nil {
		return nil, err
	}

	return expense, nil
}

// ListExpensesByGroup retrieves all expenses of a group, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, paid_by, created_by, description, currency_code,
		        total_amount, split_method, occurred_at, created_at
		 FROM expenses WHERE group_id = ?
		 ORDER BY created_at DESC, rowid DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	for _, expense := range expenses {
		if err := s.loadParticipants(ctx, expense); err != nil {
			return nil, err
		}
	}

	return expenses, nil
}

func (s *SQLiteStore) loadParticipants(ctx context.Context, expense *models.Expense) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, share_amount, share_percentage
		 FROM expense_participants WHERE expense_id = ?
		 ORDER BY position`,
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.ExpenseParticipant
		var share string
		var pct sql.NullString
		if err := rows.Scan(&p.UserID, &share, &pct); err != nil {
			return fmt.Errorf("failed to scan expense participant: %w", err)
		}
		if p.ShareAmount, err = parseMoney(share); err != nil {
			return err
		}
		if pct.Valid {
			d, err := decimal.NewFromString(pct.String)
			if err != nil {
				return fmt.Errorf("invalid share percentage %q: %w", pct.String, err)
			}
			p.SharePercentage = &d
		}
		expense.Participants = append(expense.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense participants: %w", err)
	}

	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	expense := &models.Expense{}
	var total string
	err := row.Scan(
		&expense.ID,
		&expense.GroupID,
		&expense.PaidBy,
		&expense.CreatedBy,
		&expense.Description,
		&expense.CurrencyCode,
		&total,
		&expense.SplitMethod,
		&expense.OccurredAt,
		&expense.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expense.Total, err = parseMoney(total); err != nil {
		return nil, err
	}
	return expense, nil
}
