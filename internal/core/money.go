// Package core provides money parsing and handling utilities.
//
// Amounts are carried as integer cents; decimal strings from forms are parsed
// exactly and only rounded once, to the cent.
package core

import (
	"errors"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	Money struct {
		Cents int64
	}

	// Percent is expressed in hundredths of a percent: 100% == FullPercent.
	Percent int64
)

const FullPercent Percent = 10000

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidPercent = errors.New("invalid percentage")
	ErrAmountTooLarge = errors.New("amount too large")
)

// plainNumber accepts digits with an optional decimal point: no signs,
// separators, symbols or exponents.
var plainNumber = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)

var maxCents = decimal.NewFromInt(math.MaxInt64)

// ParseDecimalToCents converts a decimal string to cents.
//
// Only plain numbers are accepted ("12", "12.34", ".5"). The value is rounded
// half-up to two decimals:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
//	ParseDecimalToCents("1,000")  -> 0, ErrInvalidAmount
func ParseDecimalToCents(s string) (int64, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	return hundredths(d)
}

// ParseMoney is ParseDecimalToCents wrapped in a Money.
func ParseMoney(s string) (Money, error) {
	c, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: c}, nil
}

// ParseDecimal parses a plain number exactly. Callers that check ranges do
// so on this value, before anything is rounded.
func ParseDecimal(s string) (decimal.Decimal, error) {
	d, err := parsePlain(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}

// MoneyFromDecimal rounds d half-up to the cent.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	c, err := hundredths(d)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: c}, nil
}

// PercentFromDecimal rounds a percentage such as 33.335 half-up to
// hundredths of a percent.
func PercentFromDecimal(d decimal.Decimal) (Percent, error) {
	h, err := hundredths(d)
	if err != nil {
		return 0, ErrInvalidPercent
	}
	return Percent(h), nil
}

func hundredths(d decimal.Decimal) (int64, error) {
	h := d.Shift(2).Round(0)
	if h.GreaterThan(maxCents) {
		return 0, ErrAmountTooLarge
	}
	return h.IntPart(), nil
}

func parsePlain(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !plainNumber.MatchString(s) {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return decimal.NewFromString(s)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with two decimals, e.g. "12.34".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// PercentOf returns round-half-up(m * p / 100%).
func (m Money) PercentOf(p Percent) Money {
	v := decimal.NewFromInt(m.Cents).
		Mul(decimal.NewFromInt(int64(p))).
		Div(decimal.NewFromInt(int64(FullPercent))).
		Round(0)
	return Money{Cents: v.IntPart()}
}

func (p Percent) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -2)
}

// String renders the percentage without trailing zeros, e.g. "70" or "33.5".
func (p Percent) String() string {
	return p.Decimal().String()
}
