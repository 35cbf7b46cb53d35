package models

import (
	"github.com/shopspring/decimal"
)

// EntryType tells which record a ledger entry came from.
type EntryType string

const (
	EntryTypeExpense    EntryType = "expense"
	EntryTypeSettlement EntryType = "settlement"
)

// LedgerEntry records that DebtorID owes CreditorID Amount within a group.
// Exactly one of ExpenseID and SettlementID is set, matching EntryType.
type LedgerEntry struct {
	ID           int64
	GroupID      string
	DebtorID     string
	CreditorID   string
	Amount       decimal.Decimal
	CurrencyCode string
	EntryType    EntryType
	ExpenseID    string
	SettlementID string
	CreatedAt    int64
}
