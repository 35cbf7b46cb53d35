package calculator

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// Obligation is one ledger row: Debtor owes Creditor Amount.
type Obligation struct {
	Debtor   string
	Creditor string
	Amount   decimal.Decimal
}

// MemberBalance is the aggregated position of one group member.
type MemberBalance struct {
	MemberID   string
	TotalOwed  decimal.Decimal // owed to this member by others
	TotalOwes  decimal.Decimal // this member owes to others
	NetBalance decimal.Decimal // positive = owed money, negative = owes money
}

// DebtEdge is a simplified debt from one member to another.
type DebtEdge struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// ErrBalanceOverflow is returned when a member's running total leaves the
// range of int64 minor units.
var ErrBalanceOverflow = errors.New("balance out of range")

type position struct {
	id    string
	cents int64
}

// CalculateGroupBalances nets a group's ledger rows into per-member balances
// and a minimal-ish set of debts that settles them.
//
// Debts are matched greedily: the largest debtor pays the largest creditor
// until one side is cleared. Ties break on member id so the output is stable.
// Balances are returned sorted by member id. Per-member totals are summed
// with overflow checks; a total beyond the int64 minor unit range fails with
// ErrBalanceOverflow.
func CalculateGroupBalances(obligations []Obligation) ([]MemberBalance, []DebtEdge, error) {
	owed := make(map[string]int64)
	owes := make(map[string]int64)

	for i, o := range obligations {
		cents, ok := ToMinorUnits(o.Amount)
		if !ok || cents <= 0 {
			return nil, nil, fmt.Errorf("obligation %d: %w", i, invalid(ErrInvalidParticipantAmount, "amount", Describe(o.Amount)))
		}
		if o.Debtor == o.Creditor {
			continue
		}
		if owed[o.Creditor], ok = addMinorUnits(owed[o.Creditor], cents); !ok {
			return nil, nil, fmt.Errorf("obligation %d: creditor %s: %w", i, o.Creditor, ErrBalanceOverflow)
		}
		if owes[o.Debtor], ok = addMinorUnits(owes[o.Debtor], cents); !ok {
			return nil, nil, fmt.Errorf("obligation %d: debtor %s: %w", i, o.Debtor, ErrBalanceOverflow)
		}
		if _, ok := owed[o.Debtor]; !ok {
			owed[o.Debtor] = 0
		}
		if _, ok := owes[o.Creditor]; !ok {
			owes[o.Creditor] = 0
		}
	}

	members := make([]string, 0, len(owed))
	for id := range owed {
		members = append(members, id)
	}
	slices.Sort(members)

	balances := make([]MemberBalance, 0, len(members))
	var creditors, debtors []position
	for _, id := range members {
		net := owed[id] - owes[id]
		balances = append(balances, MemberBalance{
			MemberID:   id,
			TotalOwed:  FromMinorUnits(owed[id]),
			TotalOwes:  FromMinorUnits(owes[id]),
			NetBalance: FromMinorUnits(net),
		})
		switch {
		case net > 0:
			creditors = append(creditors, position{id: id, cents: net})
		case net < 0:
			debtors = append(debtors, position{id: id, cents: -net})
		}
	}

	byAmount := func(a, b position) int {
		if c := cmp.Compare(b.cents, a.cents); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	}
	slices.SortFunc(creditors, byAmount)
	slices.SortFunc(debtors, byAmount)

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := min(debtors[i].cents, creditors[j].cents)
		edges = append(edges, DebtEdge{
			From:   debtors[i].id,
			To:     creditors[j].id,
			Amount: FromMinorUnits(amount),
		})

		debtors[i].cents -= amount
		creditors[j].cents -= amount
		if debtors[i].cents == 0 {
			i++
		}
		if creditors[j].cents == 0 {
			j++
		}
	}

	return balances, edges, nil
}
