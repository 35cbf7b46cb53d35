package api

// Expense is a recorded, already-split expense.
type Expense struct {
	ID           string  `json:"id"`
	GroupID      string  `json:"group_id"`
	PaidBy       string  `json:"paid_by"`
	CreatedBy    string  `json:"created_by"`
	Description  string  `json:"description"`
	CurrencyCode string  `json:"currency_code"`
	TotalAmount  string  `json:"total_amount"`
	SplitMethod  string  `json:"split_method"`
	Shares       []Share `json:"shares"`
	OccurredAt   int64   `json:"occurred_at"`
	CreatedAt    int64   `json:"created_at"`
}

type CreateExpenseRequest struct {
	GroupID      string `json:"group_id"`
	PaidBy       string `json:"paid_by"`
	Description  string `json:"description"`
	CurrencyCode string `json:"currency_code,omitempty"`
	OccurredAt   int64  `json:"occurred_at,omitempty"`
	SplitSpec
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	GroupID string `json:"group_id"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}
