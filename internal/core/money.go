// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. Parsing, rounding and formatting go
// through shopspring/decimal so no float arithmetic touches a balance.
package core

import (
	"bytes"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidMonth     = &kindError{kind: ErrValidation, msg: "invalid month"}
	ErrInvalidDate      = &kindError{kind: ErrValidation, msg: "invalid date"}
	ErrInvalidAmount    = &kindError{kind: ErrValidation, msg: "amount must be greater than 0"}
	ErrEmptyDescription = &kindError{kind: ErrValidation, msg: "empty description"}
	ErrEmptyName        = &kindError{kind: ErrValidation, msg: "empty name"}
	ErrEmptyColor       = &kindError{kind: ErrValidation, msg: "empty color"}
	ErrInvalidKind      = &kindError{kind: ErrValidation, msg: "invalid type"}
	ErrMissingCategory  = &kindError{kind: ErrValidation, msg: "category is required"}
)

var (
	hundred = decimal.NewFromInt(100)
	// Largest single amount accepted. Sums of up to ~90,000 such amounts
	// still fit in an int64 of cents.
	maxAmount = decimal.New(MaxAmountCents, -2)
)

// Money is an amount in cents. Balances may be negative; amounts recorded
// on transactions and ledger entries must be positive (see Validate).
type Money struct {
	Cents int64
}

// MaxAmountCents caps every parsed amount at 999,999,999,999.99.
const MaxAmountCents int64 = 99_999_999_999_999

// NewMoney builds a Money from cents.
func NewMoney(cents int64) Money { return Money{Cents: cents} }

// MoneyFromDecimal rounds d to the cent, half away from zero.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.Abs().GreaterThan(maxAmount) {
		return Money{}, Validationf("amount out of range")
	}
	return Money{Cents: d.Mul(hundred).Round(0).IntPart()}, nil
}

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place. Only strictly positive amounts are
// accepted.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	m, err := ParseMoney(s)
	if err != nil {
		return 0, err
	}
	if m.Cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return m.Cents, nil
}

// ParseMoney parses a signed decimal amount. Comma is accepted as the
// decimal separator; thousands separators are not.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.Count(s, ".") > 1 {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// Decimal returns the amount in euros.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with two decimals, e.g. "120.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Euros returns the euro value as a float64 for display purposes.
// Use cents for calculations.
func (m Money) Euros() float64 {
	return m.Decimal().InexactFloat64()
}

// Add and Sub do not check for overflow; MaxAmountCents keeps realistic
// totals far from the int64 limit.
func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalJSON writes the amount as a JSON number in euros.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*m = Money{}
		return nil
	}
	if len(b) > 1 && b[0] == '"' {
		parsed, err := ParseMoney(string(b[1 : len(b)-1]))
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return errors.Join(ErrInvalidAmount, err)
	}
	parsed, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
