// Package calculator allocates a monetary total across participants and
// derives group balances from the resulting ledger rows.
package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Method identifies a split strategy.
type Method string

const (
	MethodEqual      Method = "equal"
	MethodPercentage Method = "percentage"
	MethodExact      Method = "exact"
)

// ParseMethod converts a method tag into a Method.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodEqual, MethodPercentage, MethodExact:
		return m, nil
	default:
		return "", invalid(ErrUnsupportedSplitMethod, "method", s)
	}
}

// Participants describes who takes part in one split. It is one of
// Equal, Percentage or Exact; the concrete type selects the strategy.
type Participants interface {
	Method() Method
	ids() []string
}

// Equal lists participant identifiers for an equal split. Order decides who
// absorbs leftover minor units: the first participants in the list each get one.
type Equal []string

// PercentageShare is one participant's percentage of the total, in (0, 100].
type PercentageShare struct {
	ID         string
	Percentage decimal.Decimal
}

// Percentage lists participant percentages. They must sum to exactly 100.
// The last participant receives whatever the others' rounded-down shares leave.
type Percentage []PercentageShare

// ExactShare is one participant's pre-computed amount.
type ExactShare struct {
	ID     string
	Amount decimal.Decimal
}

// Exact lists pre-computed participant amounts. They must sum to the total.
type Exact []ExactShare

func (Equal) Method() Method      { return MethodEqual }
func (Percentage) Method() Method { return MethodPercentage }
func (Exact) Method() Method      { return MethodExact }

func (p Equal) ids() []string { return p }

func (p Percentage) ids() []string {
	ids := make([]string, len(p))
	for i, s := range p {
		ids[i] = s.ID
	}
	return ids
}

func (p Exact) ids() []string {
	ids := make([]string, len(p))
	for i, s := range p {
		ids[i] = s.ID
	}
	return ids
}

// Share is the amount allocated to one participant.
type Share struct {
	ID     string
	Amount decimal.Decimal
}

// Allocation is the result of a split, one Share per participant in input order.
type Allocation []Share

// Map returns the allocation keyed by participant identifier.
func (a Allocation) Map() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(a))
	for _, s := range a {
		m[s.ID] = s.Amount
	}
	return m
}

// Get returns the share allocated to id.
func (a Allocation) Get(id string) (decimal.Decimal, bool) {
	for _, s := range a {
		if s.ID == id {
			return s.Amount, true
		}
	}
	return decimal.Zero, false
}

// Sum returns the total of all shares.
func (a Allocation) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, s := range a {
		sum = sum.Add(s.Amount)
	}
	return sum
}

// ComputeSplit allocates total across participants. The shares of a successful
// result always sum to total exactly. All input is validated before any
// allocation happens; on failure the returned error wraps one of the Err* kinds.
func ComputeSplit(total decimal.Decimal, participants Participants) (Allocation, error) {
	cents, err := totalMinorUnits(total)
	if err != nil {
		return nil, err
	}

	if participants == nil {
		return nil, invalid(ErrUnsupportedSplitMethod, "method", "")
	}
	if err := validateIDs(participants.ids()); err != nil {
		return nil, err
	}

	switch p := participants.(type) {
	case Equal:
		return equalSplit(cents, p), nil
	case Percentage:
		return percentageSplit(cents, p)
	case Exact:
		return exactSplit(cents, p)
	default:
		return nil, invalid(ErrUnsupportedSplitMethod, "method", string(participants.Method()))
	}
}

func validateIDs(ids []string) error {
	if len(ids) == 0 {
		return invalid(ErrEmptyParticipantSet, "participants", "[]")
	}
	seen := make(map[string]struct{}, len(ids))
	for i, id := range ids {
		if id == "" {
			return invalid(ErrInvalidParticipantID, fmt.Sprintf("participants[%d]", i), fmt.Sprintf("%q", id))
		}
		if _, dup := seen[id]; dup {
			return invalid(ErrDuplicateParticipant, fmt.Sprintf("participants[%d]", i), id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// equalSplit gives every participant floor(total/n) and hands the remaining
// minor units, one each, to the first participants in order.
func equalSplit(cents int64, p Equal) Allocation {
	n := int64(len(p))
	base, remainder := cents/n, cents%n

	result := make(Allocation, len(p))
	for i, id := range p {
		share := base
		if int64(i) < remainder {
			share++
		}
		result[i] = Share{ID: id, Amount: FromMinorUnits(share)}
	}
	return result
}

func percentageSplit(cents int64, p Percentage) (Allocation, error) {
	sum := decimal.Zero
	for i, s := range p {
		// Scale is checked first so the comparisons below stay cheap.
		if !withinScale(s.Percentage, PercentagePlaces) || !s.Percentage.IsPositive() || s.Percentage.GreaterThan(hundred) {
			return nil, invalid(ErrInvalidParticipantAmount, fmt.Sprintf("participants[%d].percentage", i), Describe(s.Percentage))
		}
		sum = sum.Add(s.Percentage)
	}
	if !sum.Equal(hundred) {
		return nil, invalid(ErrPercentageSumMismatch, "participants", Describe(sum))
	}

	total := decimal.NewFromInt(cents)
	result := make(Allocation, len(p))
	var allocated int64
	last := len(p) - 1
	for i, s := range p[:last] {
		// Shift(-2) divides by 100 exactly; Floor never sees an inexact quotient.
		share := total.Mul(s.Percentage).Shift(-2).Floor().IntPart()
		allocated += share
		result[i] = Share{ID: s.ID, Amount: FromMinorUnits(share)}
	}
	result[last] = Share{ID: p[last].ID, Amount: FromMinorUnits(cents - allocated)}
	return result, nil
}

// exactSplit checks every amount before summing. The running sum never
// exceeds cents, so it cannot overflow.
func exactSplit(cents int64, p Exact) (Allocation, error) {
	result := make(Allocation, len(p))
	shares := make([]int64, len(p))
	for i, s := range p {
		amount, ok := ToMinorUnits(s.Amount)
		if !ok || amount <= 0 {
			return nil, invalid(ErrInvalidParticipantAmount, fmt.Sprintf("participants[%d].amount", i), Describe(s.Amount))
		}
		shares[i] = amount
	}

	var sum int64
	for i, amount := range shares {
		if amount > cents-sum {
			return nil, invalid(ErrExactSumMismatch, fmt.Sprintf("participants[%d].amount", i), FormatAmount(FromMinorUnits(amount)))
		}
		sum += amount
		result[i] = Share{ID: p[i].ID, Amount: FromMinorUnits(amount)}
	}
	if sum != cents {
		return nil, invalid(ErrExactSumMismatch, "participants", FormatAmount(FromMinorUnits(sum)))
	}
	return result, nil
}
