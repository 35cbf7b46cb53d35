package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/splitengine/pkg/api"
)

func TestCreateExpense(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")
	group := env.createGroup(t, alice, bob, carol)

	resp, err := env.expenses.CreateExpense(ctx, authed(alice, &api.CreateExpenseRequest{
		GroupID:     group.ID,
		Description: "Dinner",
		SplitSpec: api.SplitSpec{
			Method:         "equal",
			TotalAmount:    dec("100"),
			ParticipantIDs: []string{alice.ID, bob.ID, carol.ID},
		},
	}))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	expense := resp.Msg.Expense
	if expense.ID == "" {
		t.Error("expected non-empty expense ID")
	}
	if expense.PaidBy != alice.ID {
		t.Errorf("paid_by: expected caller %s, got %s", alice.ID, expense.PaidBy)
	}
	if expense.CurrencyCode != "USD" {
		t.Errorf("currency: expected default USD, got %s", expense.CurrencyCode)
	}
	if expense.TotalAmount != "100.00" {
		t.Errorf("total: expected 100.00, got %s", expense.TotalAmount)
	}
	want := []string{"33.34", "33.33", "33.33"}
	for i, share := range expense.Shares {
		if share.Amount != want[i] {
			t.Errorf("share %d: expected %s, got %s", i, want[i], share.Amount)
		}
	}

	// Any member can read it back with the same shares in the same order
	got, err := env.expenses.GetExpense(ctx, authed(bob, &api.GetExpenseRequest{ExpenseID: expense.ID}))
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if got.Msg.Expense.Description != "Dinner" {
		t.Errorf("description: expected Dinner, got %s", got.Msg.Expense.Description)
	}
	for i, share := range got.Msg.Expense.Shares {
		if share != expense.Shares[i] {
			t.Errorf("stored share %d: expected %+v, got %+v", i, expense.Shares[i], share)
		}
	}

	list, err := env.expenses.ListExpenses(ctx, authed(carol, &api.ListExpensesRequest{GroupID: group.ID}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(list.Msg.Expenses) != 1 {
		t.Errorf("expected 1 expense, got %d", len(list.Msg.Expenses))
	}
}

func TestCreateExpense_Percentage(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	group := env.createGroup(t, alice, bob)

	resp, err := env.expenses.CreateExpense(context.Background(), authed(alice, &api.CreateExpenseRequest{
		GroupID:      group.ID,
		PaidBy:       bob.ID,
		Description:  "Rent",
		CurrencyCode: "eur",
		SplitSpec: api.SplitSpec{
			Method:      "percentage",
			TotalAmount: dec("1000.01"),
			Percentages: []api.PercentageParticipant{
				{UserID: alice.ID, Percentage: dec("60")},
				{UserID: bob.ID, Percentage: dec("40")},
			},
		},
	}))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	expense := resp.Msg.Expense
	if expense.CurrencyCode != "EUR" {
		t.Errorf("currency: expected EUR, got %s", expense.CurrencyCode)
	}
	if expense.CreatedBy != alice.ID || expense.PaidBy != bob.ID {
		t.Errorf("expected created_by %s and paid_by %s, got %s and %s", alice.ID, bob.ID, expense.CreatedBy, expense.PaidBy)
	}

	shares := shareAmounts(expense.Shares)
	if shares[alice.ID] != "600.00" || shares[bob.ID] != "400.01" {
		t.Errorf("unexpected shares: %v", shares)
	}
	if expense.Shares[0].Percentage != "60" {
		t.Errorf("percentage: expected 60, got %q", expense.Shares[0].Percentage)
	}
}

func TestCreateExpense_Errors(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	outsider := env.register(t, "mallory")
	group := env.createGroup(t, alice, bob)

	equal := func(total string, ids ...string) api.SplitSpec {
		return api.SplitSpec{Method: "equal", TotalAmount: dec(total), ParticipantIDs: ids}
	}

	tests := []struct {
		name     string
		caller   testUser
		req      *api.CreateExpenseRequest
		wantCode connect.Code
	}{
		{
			name:     "caller not in group",
			caller:   outsider,
			req:      &api.CreateExpenseRequest{GroupID: group.ID, SplitSpec: equal("10", outsider.ID)},
			wantCode: connect.CodePermissionDenied,
		},
		{
			name:     "payer not in group",
			caller:   alice,
			req:      &api.CreateExpenseRequest{GroupID: group.ID, PaidBy: outsider.ID, SplitSpec: equal("10", alice.ID)},
			wantCode: connect.CodePermissionDenied,
		},
		{
			name:     "participant not in group",
			caller:   alice,
			req:      &api.CreateExpenseRequest{GroupID: group.ID, SplitSpec: equal("10", alice.ID, outsider.ID)},
			wantCode: connect.CodePermissionDenied,
		},
		{
			name:     "unknown group",
			caller:   alice,
			req:      &api.CreateExpenseRequest{GroupID: "no-such-group", SplitSpec: equal("10", alice.ID)},
			wantCode: connect.CodeNotFound,
		},
		{
			name:     "missing group",
			caller:   alice,
			req:      &api.CreateExpenseRequest{SplitSpec: equal("10", alice.ID)},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "sub-cent total",
			caller:   alice,
			req:      &api.CreateExpenseRequest{GroupID: group.ID, SplitSpec: equal("10.005", alice.ID, bob.ID)},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "empty participants",
			caller:   alice,
			req:      &api.CreateExpenseRequest{GroupID: group.ID, SplitSpec: equal("10")},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:   "exact amounts that wrap int64",
			caller: alice,
			req: &api.CreateExpenseRequest{GroupID: group.ID, SplitSpec: api.SplitSpec{
				Method:      "exact",
				TotalAmount: dec("0.01"),
				Amounts: []api.ExactParticipant{
					{UserID: alice.ID, Amount: dec("92233720368547758.07")},
					{UserID: bob.ID, Amount: dec("92233720368547758.07")},
				},
			}},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "bad currency",
			caller:   alice,
			req:      &api.CreateExpenseRequest{GroupID: group.ID, CurrencyCode: "dollars", SplitSpec: equal("10", alice.ID)},
			wantCode: connect.CodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.expenses.CreateExpense(ctx, authed(tt.caller, tt.req))
			assertCode(t, err, tt.wantCode)
		})
	}

	t.Run("no token", func(t *testing.T) {
		_, err := env.expenses.CreateExpense(ctx, connect.NewRequest(&api.CreateExpenseRequest{
			GroupID:   group.ID,
			SplitSpec: equal("10", alice.ID),
		}))
		assertCode(t, err, connect.CodeUnauthenticated)
	})

	list, err := env.expenses.ListExpenses(ctx, authed(alice, &api.ListExpensesRequest{GroupID: group.ID}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(list.Msg.Expenses) != 0 {
		t.Errorf("rejected expenses must not be stored, found %d", len(list.Msg.Expenses))
	}
}

func TestGetExpense_Errors(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	alice := env.register(t, "alice")
	outsider := env.register(t, "mallory")
	group := env.createGroup(t, alice)

	created, err := env.expenses.CreateExpense(ctx, authed(alice, &api.CreateExpenseRequest{
		GroupID:   group.ID,
		SplitSpec: api.SplitSpec{Method: "equal", TotalAmount: dec("5"), ParticipantIDs: []string{alice.ID}},
	}))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	_, err = env.expenses.GetExpense(ctx, authed(alice, &api.GetExpenseRequest{ExpenseID: "nonexistent-id"}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = env.expenses.GetExpense(ctx, authed(outsider, &api.GetExpenseRequest{ExpenseID: created.Msg.Expense.ID}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = env.expenses.ListExpenses(ctx, authed(outsider, &api.ListExpensesRequest{GroupID: group.ID}))
	assertCode(t, err, connect.CodePermissionDenied)
}
