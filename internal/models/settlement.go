package models

import (
	"github.com/shopspring/decimal"
)

// Settlement represents a payment between group members to clear debts.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// PayerID is the member who paid (debtor settling up).
	PayerID string

	// PayeeID is the member who received payment (creditor being paid).
	PayeeID string

	// Amount is the payment amount, with two fractional digits.
	Amount decimal.Decimal

	// CurrencyCode is the three-letter ISO 4217 code of Amount.
	CurrencyCode string

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string

	// Note is an optional description for the settlement.
	Note string

	// SettledAt is the Unix timestamp of the payment.
	SettledAt int64

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64
}

// LedgerEntry derives the ledger row for the settlement. The payee now owes
// the payer, which offsets the payer's earlier debt when balances are netted.
func (s *Settlement) LedgerEntry() LedgerEntry {
	return LedgerEntry{
		GroupID:      s.GroupID,
		DebtorID:     s.PayeeID,
		CreditorID:   s.PayerID,
		Amount:       s.Amount,
		CurrencyCode: s.CurrencyCode,
		EntryType:    EntryTypeSettlement,
		SettlementID: s.ID,
		CreatedAt:    s.CreatedAt,
	}
}
