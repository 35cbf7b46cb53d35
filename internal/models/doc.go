// Package models defines the core domain models for splitengine.
//
// # Models
//
//   - User: a registered account; its ID is the opaque participant key used everywhere else
//   - Group: a set of users who share expenses
//   - Expense: a payment by one member, split among members by the allocator
//   - Settlement: a direct payment from one member to another to clear debt
//   - LedgerEntry: one debtor/creditor row derived from an expense or settlement
//   - IdempotencyKey: a client request key mapped to the expense or settlement it created
//
// # Money
//
// Every amount is a decimal.Decimal with two fractional digits. Nothing in this
// package stores money as float64.
//
// # Ledger
//
// Balances are never stored. They are recomputed from ledger entries, which are
// written in the same transaction as the expense or settlement they came from.
package models
