package calculator

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// MinorUnitPlaces is the number of fractional digits carried by a money amount.
const MinorUnitPlaces = 2

// PercentagePlaces is the finest precision accepted for a percentage share.
const PercentagePlaces = 10

const (
	// maxCoefficientBits bounds the coefficient of any decimal input. Wider
	// inputs are rejected before arithmetic sees them.
	maxCoefficientBits = 128
	// maxExponent is the largest power of ten a non-zero amount can carry and
	// still fit int64 minor units.
	maxExponent = 18
	// maxDescribeLen caps how much of a rejected value is copied into an error.
	maxDescribeLen = 40
)

var (
	hundred = decimal.NewFromInt(100)
	ten     = big.NewInt(10)
)

// withinScale reports whether d can be written with at most places
// fractional digits and a magnitude small enough for int64 minor units.
// Its cost depends on the coefficient width only, never on the exponent.
func withinScale(d decimal.Decimal, places int32) bool {
	if d.IsZero() {
		return true
	}
	coef := d.Coefficient()
	if coef.BitLen() > maxCoefficientBits {
		return false
	}
	exp := d.Exponent()
	// A non-zero coefficient of bounded width has few trailing zeros, so this
	// loop ends quickly even for an exponent like -1e9.
	var q, r big.Int
	for exp < -places {
		q.QuoRem(coef, ten, &r)
		if r.Sign() != 0 {
			return false
		}
		coef.Set(&q)
		exp++
	}
	return exp <= maxExponent
}

// ToMinorUnits converts d into an integer count of minor units (cents).
// It reports false when d has non-zero digits past the minor unit or does not
// fit in an int64.
func ToMinorUnits(d decimal.Decimal) (int64, bool) {
	if d.IsZero() {
		return 0, true
	}
	if !withinScale(d, MinorUnitPlaces) {
		return 0, false
	}
	shifted := d.Shift(MinorUnitPlaces)
	if !shifted.IsInteger() {
		return 0, false
	}
	n := shifted.BigInt()
	if !n.IsInt64() {
		return 0, false
	}
	return n.Int64(), true
}

// FromMinorUnits converts a count of minor units back to a decimal amount with
// exactly MinorUnitPlaces fractional digits.
func FromMinorUnits(n int64) decimal.Decimal {
	return decimal.New(n, -MinorUnitPlaces)
}

// addMinorUnits returns a+b for non-negative counts, reporting false on overflow.
func addMinorUnits(a, b int64) (int64, bool) {
	if b > math.MaxInt64-a {
		return 0, false
	}
	return a + b, true
}

// NormalizeAmount returns d rescaled to exactly two fractional digits.
// d must be strictly positive and representable in minor units; otherwise
// ErrInvalidTotalAmount is returned.
func NormalizeAmount(d decimal.Decimal) (decimal.Decimal, error) {
	cents, err := totalMinorUnits(d)
	if err != nil {
		return decimal.Zero, err
	}
	return FromMinorUnits(cents), nil
}

func totalMinorUnits(d decimal.Decimal) (int64, error) {
	cents, ok := ToMinorUnits(d)
	if !ok || cents <= 0 {
		return 0, invalid(ErrInvalidTotalAmount, "total_amount", Describe(d))
	}
	return cents, nil
}

// Describe renders a caller-supplied decimal for an error or log line. Values
// outside the accepted scale are shown in coefficient-exponent form, so the
// exponent is never expanded into digits. The result is at most maxDescribeLen
// bytes plus an ellipsis.
func Describe(d decimal.Decimal) string {
	var s string
	switch {
	case d.IsZero():
		s = "0"
	case withinScale(d, PercentagePlaces):
		s = d.String()
	case d.Coefficient().BitLen() > maxCoefficientBits:
		s = fmt.Sprintf("(%d-bit coefficient)e%d", d.Coefficient().BitLen(), d.Exponent())
	default:
		s = fmt.Sprintf("%se%d", d.Coefficient(), d.Exponent())
	}
	if len(s) > maxDescribeLen {
		s = s[:maxDescribeLen] + "..."
	}
	return s
}

// FormatAmount renders d with exactly two fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(MinorUnitPlaces)
}
