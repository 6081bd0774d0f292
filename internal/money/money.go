// Package money holds the exact-decimal primitives shared by budgets, goals
// and loans: progress ratios and amount parsing.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Hundred is the percent scale.
var Hundred = decimal.NewFromInt(100)

// Amount parsing failures. Services translate these into validation errors.
var (
	ErrMalformedAmount   = errors.New("amount is not a number")
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrNegativeAmount    = errors.New("amount must not be negative")
	ErrAmountPrecision   = errors.New("amount has more than two decimal places")
)

// Progress is how far current has moved toward target.
type Progress struct {
	// Percent is capped at 100 and is zero when target is not positive.
	Percent decimal.Decimal `json:"percent"`
	// Remaining never goes below zero.
	Remaining decimal.Decimal `json:"remaining"`
}

// ProgressOf computes percent and remaining for current against target.
func ProgressOf(current, target decimal.Decimal) Progress {
	remaining := target.Sub(current)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	if !target.IsPositive() {
		return Progress{Percent: decimal.Zero, Remaining: remaining}
	}
	pct := current.Mul(Hundred).Div(target)
	if pct.GreaterThan(Hundred) {
		pct = Hundred
	}
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	return Progress{Percent: pct, Remaining: remaining}
}

// Overage returns how far current exceeds limit, or zero.
func Overage(current, limit decimal.Decimal) decimal.Decimal {
	over := current.Sub(limit)
	if over.IsNegative() {
		return decimal.Zero
	}
	return over
}

// ParseAmount parses a strictly positive amount with at most two fractional digits.
func ParseAmount(raw string) (decimal.Decimal, error) {
	d, err := parse(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}
	return d, nil
}

// ParseNonNegative is ParseAmount that also accepts zero.
func ParseNonNegative(raw string) (decimal.Decimal, error) {
	d, err := parse(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

func parse(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, ErrMalformedAmount
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, ErrMalformedAmount
	}
	if d.Exponent() < -2 && !d.Equal(d.Truncate(2)) {
		return decimal.Zero, ErrAmountPrecision
	}
	return d, nil
}

// Percent1 renders a percent with one decimal place, e.g. "90.0".
func Percent1(p decimal.Decimal) string {
	return p.StringFixed(1)
}
