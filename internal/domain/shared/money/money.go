package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
)

// minorUnits is the number of decimal places stored in Amount.
const minorUnits = 2

// Money keeps amounts in integer cents to avoid floating point issues.
type Money struct {
	Amount   int64
	Currency string
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	currency = strings.ToUpper(currency)
	return Money{Amount: amount, Currency: currency}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Amount: 0, Currency: strings.ToUpper(currency)}
}

// FromDecimal rounds d half away from zero to whole cents.
func FromDecimal(d decimal.Decimal, currency string) (Money, error) {
	cents := d.Round(minorUnits).Shift(minorUnits)
	return New(cents.IntPart(), currency)
}

// ParseDecimal parses a major-unit string such as "12.50".
func ParseDecimal(raw, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return Money{}, err
	}
	return FromDecimal(d, currency)
}

// FromFloat converts a major-unit float, as received from JSON clients.
func FromFloat(v float64, currency string) (Money, error) {
	return FromDecimal(decimal.NewFromFloat(v), currency)
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -minorUnits)
}

// Float returns the amount in major units for JSON transport.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

// String renders the amount with two decimals followed by the currency.
func (m Money) String() string {
	return m.Decimal().StringFixed(minorUnits) + " " + m.Currency
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// IsNegative returns true if the amount is below zero.
func (m Money) IsNegative() bool {
	return m.Amount < 0
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
