// Package service implements the Connect RPC services on top of the
// allocator and the storage layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitengine/internal/auth"
	"github.com/mmynk/splitengine/internal/calculator"
	"github.com/mmynk/splitengine/internal/middleware"
	"github.com/mmynk/splitengine/internal/models"
	"github.com/mmynk/splitengine/internal/storage"
	"github.com/mmynk/splitengine/pkg/api"
)

var (
	errNotMember        = errors.New("not a member of this group")
	errSelfSettlement   = errors.New("payer and payee must be different users")
	errMissingGroupID   = errors.New("group_id is required")
	errMissingGroupName = errors.New("group name is required")
	errInvalidCurrency  = errors.New("currency code must be three letters")
)

// toConnectError maps domain and storage errors to Connect codes.
func toConnectError(err error) error {
	var validation *calculator.ValidationError
	switch {
	case errors.As(err, &validation):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, errNotMember):
		return connect.NewError(connect.CodePermissionDenied, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// requireUser returns the authenticated user ID from ctx.
func requireUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

// groupForMember loads a group and checks that userID belongs to it.
func groupForMember(ctx context.Context, store storage.Store, groupID, userID string) (*models.Group, error) {
	if groupID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingGroupID)
	}
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !group.HasMember(userID) {
		return nil, toConnectError(fmt.Errorf("user %s: %w", userID, errNotMember))
	}
	return group, nil
}

// normalizeCurrency upper-cases an ISO 4217 code, falling back to fallback
// when code is empty.
func normalizeCurrency(code, fallback string) (string, error) {
	if code == "" {
		code = fallback
	}
	code = strings.ToUpper(code)
	if len(code) != 3 {
		return "", connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %q", errInvalidCurrency, code))
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %q", errInvalidCurrency, code))
		}
	}
	return code, nil
}

// splitParticipants builds the allocator input described by spec. The total
// is checked before the method so that errors are reported in the same order
// the allocator validates.
func splitParticipants(spec api.SplitSpec) (calculator.Participants, error) {
	if _, err := calculator.NormalizeAmount(spec.TotalAmount); err != nil {
		return nil, err
	}
	method, err := calculator.ParseMethod(spec.Method)
	if err != nil {
		return nil, err
	}

	switch method {
	case calculator.MethodPercentage:
		shares := make(calculator.Percentage, len(spec.Percentages))
		for i, p := range spec.Percentages {
			shares[i] = calculator.PercentageShare{ID: p.UserID, Percentage: p.Percentage}
		}
		return shares, nil
	case calculator.MethodExact:
		shares := make(calculator.Exact, len(spec.Amounts))
		for i, p := range spec.Amounts {
			shares[i] = calculator.ExactShare{ID: p.UserID, Amount: p.Amount}
		}
		return shares, nil
	default:
		return calculator.Equal(spec.ParticipantIDs), nil
	}
}

// methodLabel keeps metric label cardinality bounded.
func methodLabel(method string) string {
	if m, err := calculator.ParseMethod(method); err == nil {
		return string(m)
	}
	return "unknown"
}

func toAPIShares(allocation calculator.Allocation) []api.Share {
	shares := make([]api.Share, len(allocation))
	for i, s := range allocation {
		shares[i] = api.Share{UserID: s.ID, Amount: calculator.FormatAmount(s.Amount)}
	}
	return shares
}

func toAPIUser(user *models.User) *api.User {
	return &api.User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
	}
}

func toAPIGroup(group *models.Group) *api.Group {
	members := make([]api.GroupMember, len(group.Members))
	for i, m := range group.Members {
		members[i] = api.GroupMember{UserID: m.UserID, Role: string(m.Role), JoinedAt: m.JoinedAt}
	}
	return &api.Group{
		ID:        group.ID,
		Name:      group.Name,
		CreatedBy: group.CreatedBy,
		Members:   members,
		CreatedAt: group.CreatedAt,
	}
}

func toAPIExpense(expense *models.Expense) *api.Expense {
	shares := make([]api.Share, len(expense.Participants))
	for i, p := range expense.Participants {
		shares[i] = api.Share{UserID: p.UserID, Amount: calculator.FormatAmount(p.ShareAmount)}
		if p.SharePercentage != nil {
			shares[i].Percentage = p.SharePercentage.String()
		}
	}
	return &api.Expense{
		ID:           expense.ID,
		GroupID:      expense.GroupID,
		PaidBy:       expense.PaidBy,
		CreatedBy:    expense.CreatedBy,
		Description:  expense.Description,
		CurrencyCode: expense.CurrencyCode,
		TotalAmount:  calculator.FormatAmount(expense.Total),
		SplitMethod:  expense.SplitMethod,
		Shares:       shares,
		OccurredAt:   expense.OccurredAt,
		CreatedAt:    expense.CreatedAt,
	}
}

func toAPISettlement(settlement *models.Settlement) *api.Settlement {
	return &api.Settlement{
		ID:           settlement.ID,
		GroupID:      settlement.GroupID,
		PayerID:      settlement.PayerID,
		PayeeID:      settlement.PayeeID,
		Amount:       calculator.FormatAmount(settlement.Amount),
		CurrencyCode: settlement.CurrencyCode,
		CreatedBy:    settlement.CreatedBy,
		Note:         settlement.Note,
		SettledAt:    settlement.SettledAt,
	}
}
