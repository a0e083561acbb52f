// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer minor units (paise). Text is converted through
// shopspring/decimal so that no float rounding ever reaches stored values.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencySymbol prefixes formatted amounts.
const CurrencySymbol = "₹"

var maxAmount = decimal.New(1<<63-1, -2)

// ParseAmount converts a decimal string to Money with half-up rounding to two places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs, exponents
// and anything other than digits and a single separator are rejected, as are zero
// amounts.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 paise
//	ParseAmount("12,34")  -> 1234 paise
//	ParseAmount("12.345") -> 1235 paise (rounds half up)
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && (r < '0' || r > '9') {
			return Money{}, ErrInvalidAmount
		}
	}
	if s == "." {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	d = d.Round(2)
	if d.GreaterThan(maxAmount) {
		return Money{}, ErrInvalidAmount
	}
	m := Money{Cents: d.Shift(2).IntPart()}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// MoneyFromDecimal converts an already-parsed decimal, used when decoding stored entries.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Round(2).Shift(2).IntPart()}
}

// Decimal returns the amount in rupees.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the shortest exact decimal form, e.g. "2500" or "12.5".
func (m Money) String() string {
	return m.Decimal().String()
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

var amountPrinter = message.NewPrinter(language.English)

// Format renders the amount for display with digit grouping, e.g. "₹1,200.50" or "-₹40.00".
func (m Money) Format() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + CurrencySymbol + amountPrinter.Sprintf("%d", cents/100) + fmt.Sprintf(".%02d", cents%100)
}
