// Package money holds whole-unit currency amounts and the step rounding used
// for credit limits and service fees.
package money

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Currency is an ISO 4217 currency code.
type Currency struct {
	code string
}

// NewCurrency validates an ISO 4217 code.
func NewCurrency(code string) (Currency, error) {
	if !currencyCodeRe.MatchString(code) {
		return Currency{}, fmt.Errorf("invalid currency code %q: must be exactly 3 uppercase letters", code)
	}
	return Currency{code: code}, nil
}

// MustCurrency is NewCurrency for package-level variables.
func MustCurrency(code string) Currency {
	c, err := NewCurrency(code)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Currency) Code() string   { return c.code }
func (c Currency) String() string { return c.code }

// KES is the Kenyan shilling, the settlement currency of the push-payment rail.
var KES = MustCurrency("KES")

// Money is an immutable amount in a currency.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// New creates a Money value.
func New(amount decimal.Decimal, currency Currency) Money {
	return Money{amount: amount, currency: currency}
}

// Shillings is New(amount, KES).
func Shillings(amount decimal.Decimal) Money {
	return New(amount, KES)
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsPositive() bool        { return m.amount.IsPositive() }

// Equal compares amount and currency.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// WholeUnits returns the amount rounded to an integer, as mobile-money rails
// only accept whole shillings.
func (m Money) WholeUnits() int64 {
	return m.amount.Round(0).IntPart()
}

// String formats the value as "KES 12,500" (two decimals only when fractional).
func (m Money) String() string {
	s := m.amount.StringFixed(2)
	if m.amount.Equal(m.amount.Truncate(0)) {
		s = m.amount.StringFixed(0)
	}
	return m.currency.Code() + " " + groupThousands(s)
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}

// RoundToStep rounds d to the nearest multiple of step, halves away from zero.
func RoundToStep(d, step decimal.Decimal) decimal.Decimal {
	return d.Div(step).Round(0).Mul(step)
}

// FloorToStep rounds d down to a multiple of step.
func FloorToStep(d, step decimal.Decimal) decimal.Decimal {
	return d.Div(step).Floor().Mul(step)
}

// CeilToStep rounds d up to a multiple of step.
func CeilToStep(d, step decimal.Decimal) decimal.Decimal {
	return d.Div(step).Ceil().Mul(step)
}
