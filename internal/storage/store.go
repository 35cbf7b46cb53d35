// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitengine/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a record collides with an existing one.
	ErrConflict = errors.New("already exists")
)

// Store defines the interface for storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateUser persists a new user. Returns ErrConflict if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email (case-insensitive).
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// CreateGroup persists a new group together with its initial members.
	// The group.ID and CreatedAt fields are populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its members.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser retrieves every group userID belongs to, newest first.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// AddGroupMember adds a member to a group. Returns ErrConflict if the
	// user is already a member.
	AddGroupMember(ctx context.Context, groupID string, member models.GroupMember) error

	// CreateExpense persists an expense, its participant shares and the
	// ledger entries derived from it in a single transaction. When key is
	// non-nil it is saved in the same transaction, pointing at the new
	// expense; ErrConflict means the caller already holds that key.
	CreateExpense(ctx context.Context, expense *models.Expense, key *models.IdempotencyKey) error

	// GetExpense retrieves an expense with its participant shares.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup retrieves a group's expenses, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// CreateSettlement persists a settlement and its ledger entry in a
	// single transaction. key is handled as in CreateExpense.
	CreateSettlement(ctx context.Context, settlement *models.Settlement, key *models.IdempotencyKey) error

	// GetSettlement retrieves a settlement by ID.
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// ListSettlementsByGroup retrieves a group's settlements, newest first.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// ListLedgerEntries retrieves every ledger entry of a group in insertion order.
	ListLedgerEntries(ctx context.Context, groupID string) ([]models.LedgerEntry, error)

	// GetIdempotencyKey retrieves a user's key that is still live at the
	// Unix time now. Returns ErrNotFound otherwise.
	GetIdempotencyKey(ctx context.Context, userID, key string, now int64) (*models.IdempotencyKey, error)

	// DeleteExpiredIdempotencyKeys removes keys expired at now and returns
	// how many were removed.
	DeleteExpiredIdempotencyKeys(ctx context.Context, now int64) (int64, error)

	// Close releases any resources held by the store.
	Close() error
}
