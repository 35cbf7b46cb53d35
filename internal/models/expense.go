package models

import (
	"github.com/shopspring/decimal"
)

// Expense is a payment made by one group member and split among members.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group the expense belongs to.
	GroupID string

	// PaidBy is the user ID of the member who paid.
	PaidBy string

	// CreatedBy is the user ID of the member who recorded the expense.
	CreatedBy string

	// Description is a free-form label (e.g., "Groceries").
	Description string

	// CurrencyCode is the three-letter ISO 4217 code of Total.
	CurrencyCode string

	// Total is the amount paid, with two fractional digits.
	Total decimal.Decimal

	// SplitMethod is the allocation method used: equal, percentage or exact.
	SplitMethod string

	// Participants holds the computed shares in the order they were supplied.
	Participants []ExpenseParticipant

	// OccurredAt is the Unix timestamp of the purchase.
	OccurredAt int64

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// ExpenseParticipant is one member's share of an expense.
type ExpenseParticipant struct {
	UserID string

	// ShareAmount is the allocated amount this member owes toward the expense.
	ShareAmount decimal.Decimal

	// SharePercentage is set only for percentage splits.
	SharePercentage *decimal.Decimal
}

// LedgerEntries derives the ledger rows for the expense: every participant
// other than the payer owes the payer their share. Zero shares produce no row.
func (e *Expense) LedgerEntries() []LedgerEntry {
	var entries []LedgerEntry
	for _, p := range e.Participants {
		if p.UserID == e.PaidBy || !p.ShareAmount.IsPositive() {
			continue
		}
		entries = append(entries, LedgerEntry{
			GroupID:      e.GroupID,
			DebtorID:     p.UserID,
			CreditorID:   e.PaidBy,
			Amount:       p.ShareAmount,
			CurrencyCode: e.CurrencyCode,
			EntryType:    EntryTypeExpense,
			ExpenseID:    e.ID,
			CreatedAt:    e.CreatedAt,
		})
	}
	return entries
}
