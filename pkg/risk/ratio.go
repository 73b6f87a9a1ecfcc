package risk

import (
	"errors"

	"github.com/shopspring/decimal"
)

const (
	ratioPlaces = 2

	// amounts beyond these bounds are rejected before any arithmetic
	maxAmountLength   = 32
	maxAmountDigits   = 15
	minAmountExponent = -8
)

// ErrAmountOutOfRange is returned for amounts too large or too precise to be
// a sum of money.
var ErrAmountOutOfRange = errors.New("amount out of range")

var maxAmount = decimal.New(1, maxAmountDigits)

// SaneAmount reports whether d is within the magnitude and precision accepted
// for income and loan amounts.
func SaneAmount(d decimal.Decimal) bool {
	if e := d.Exponent(); e < minAmountExponent || e > maxAmountDigits {
		return false
	}
	return d.Abs().LessThan(maxAmount)
}

// ParseAmount parses a money amount, rejecting input outside SaneAmount.
func ParseAmount(v string) (decimal.Decimal, error) {
	if len(v) > maxAmountLength {
		return decimal.Zero, ErrAmountOutOfRange
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, err
	}
	if !SaneAmount(d) {
		return decimal.Zero, ErrAmountOutOfRange
	}
	return d, nil
}

// LoanToIncome divides the loan amount by the annual income, rounded half up
// to two places. Non-positive or out of range amounts yield zero.
func LoanToIncome(income, loanAmount decimal.Decimal) decimal.Decimal {
	if !income.IsPositive() || !SaneAmount(income) || !SaneAmount(loanAmount) {
		return decimal.Zero
	}
	return loanAmount.DivRound(income, ratioPlaces)
}

// FormatRatio renders a ratio with two decimal places.
func FormatRatio(ratio decimal.Decimal) string {
	return ratio.StringFixed(ratioPlaces)
}
