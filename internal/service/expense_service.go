package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitengine/internal/calculator"
	"github.com/mmynk/splitengine/internal/middleware"
	"github.com/mmynk/splitengine/internal/models"
	"github.com/mmynk/splitengine/internal/storage"
	"github.com/mmynk/splitengine/pkg/api"
)

// ExpenseService implements the Connect ExpenseService.
type ExpenseService struct {
	store           storage.Store
	metrics         *middleware.Metrics
	defaultCurrency string
	idempotency     idempotency
}

// NewExpenseService creates a new ExpenseService. Expenses submitted without
// a currency code are recorded in defaultCurrency. Idempotency keys are
// honored for idempotencyTTL after first use.
func NewExpenseService(store storage.Store, metrics *middleware.Metrics, defaultCurrency string, idempotencyTTL time.Duration) *ExpenseService {
	return &ExpenseService{
		store:           store,
		metrics:         metrics,
		defaultCurrency: defaultCurrency,
		idempotency:     newIdempotency(store, idempotencyTTL),
	}
}

// CreateExpense splits an expense among group members and records it along
// with the debts it creates. A retry carrying the same Idempotency-Key header
// returns the expense created the first time.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	key, err := idempotencyKey(req.Header())
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	slog.Info("CreateExpense request received",
		"group_id", msg.GroupID,
		"method", msg.Method,
		"user_id", userID,
	)

	group, err := groupForMember(ctx, s.store, msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	paidBy := msg.PaidBy
	if paidBy == "" {
		paidBy = userID
	}
	if !group.HasMember(paidBy) {
		return nil, toConnectError(fmt.Errorf("payer %s: %w", paidBy, errNotMember))
	}

	currency, err := normalizeCurrency(msg.CurrencyCode, s.defaultCurrency)
	if err != nil {
		return nil, err
	}

	allocation, err := allocate(s.metrics, msg.SplitSpec)
	if err != nil {
		slog.Warn("CreateExpense split rejected", "group_id", msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	participants := make([]models.ExpenseParticipant, len(allocation))
	for i, share := range allocation {
		if !group.HasMember(share.ID) {
			return nil, toConnectError(fmt.Errorf("participant %s: %w", share.ID, errNotMember))
		}
		participants[i] = models.ExpenseParticipant{UserID: share.ID, ShareAmount: share.Amount}
		if msg.Method == string(calculator.MethodPercentage) {
			pct := msg.Percentages[i].Percentage
			participants[i].SharePercentage = &pct
		}
	}

	expense := &models.Expense{
		GroupID:      group.ID,
		PaidBy:       paidBy,
		CreatedBy:    userID,
		Description:  msg.Description,
		CurrencyCode: currency,
		Total:        allocation.Sum(),
		SplitMethod:  msg.Method,
		Participants: participants,
		OccurredAt:   msg.OccurredAt,
	}

	replay, pending, err := s.idempotency.begin(ctx, userID, key, req.Spec().Procedure, expenseHash(expense))
	if err != nil {
		return nil, err
	}
	if replay != nil {
		return s.replayExpense(ctx, replay)
	}

	if err := s.store.CreateExpense(ctx, expense, pending); err != nil {
		slog.Error("CreateExpense failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Expense created",
		"expense_id", expense.ID,
		"group_id", group.ID,
		"total", calculator.FormatAmount(expense.Total),
		"participants", len(participants),
	)

	return connect.NewResponse(&api.CreateExpenseResponse{
		Expense: toAPIExpense(expense),
	}), nil
}

// replayExpense answers a retried CreateExpense with the stored expense.
func (s *ExpenseService) replayExpense(ctx context.Context, record *models.IdempotencyKey) (*connect.Response[api.CreateExpenseResponse], error) {
	expense, err := s.store.GetExpense(ctx, record.ResourceID)
	if err != nil {
		slog.Error("CreateExpense replay failed", "expense_id", record.ResourceID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("CreateExpense replayed", "expense_id", expense.ID, "idempotency_key", record.Key)

	resp := connect.NewResponse(&api.CreateExpenseResponse{Expense: toAPIExpense(expense)})
	markReplayed(resp.Header())
	return resp, nil
}

// expenseHash fingerprints an expense before the store assigns IDs and times.
func expenseHash(expense *models.Expense) string {
	fields := []string{
		expense.GroupID,
		expense.PaidBy,
		expense.Description,
		expense.CurrencyCode,
		strconv.FormatInt(expense.OccurredAt, 10),
		expense.SplitMethod,
	}
	for _, p := range expense.Participants {
		pct := ""
		if p.SharePercentage != nil {
			pct = p.SharePercentage.String()
		}
		fields = append(fields, p.UserID, calculator.FormatAmount(p.ShareAmount), pct)
	}
	return requestHash(fields...)
}

// GetExpense retrieves an expense visible to the caller.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		slog.Error("GetExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, toConnectError(err)
	}

	if _, err := groupForMember(ctx, s.store, expense.GroupID, userID); err != nil {
		return nil, err
	}

	return connect.NewResponse(&api.GetExpenseResponse{
		Expense: toAPIExpense(expense),
	}), nil
}

// ListExpenses returns a group's expenses, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := groupForMember(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListExpenses failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Expense, len(expenses))
	for i, expense := range expenses {
		out[i] = toAPIExpense(expense)
	}

	slog.Info("ListExpenses successful", "group_id", req.Msg.GroupID, "count", len(out))

	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}
