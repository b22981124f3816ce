// Package core provides money parsing and handling utilities.
//
// This file contains the Amount type used for every monetary field. Amounts
// are read leniently: anything that is not a finite number is kept as an
// invalid amount instead of failing, and aggregation treats it as zero.
package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts are stored as NUMERIC(12,2): at most two decimal places and an
// absolute value below 1e10.
const (
	amountPlaces = 2
	amountMaxExp = 10
	amountMinExp = -18
)

var amountLimit = decimal.New(1, amountMaxExp)

// Amount is a decimal money value that remembers whether it was readable.
type Amount struct {
	dec   decimal.Decimal
	valid bool
}

// NewAmount wraps a decimal. Values outside the storable range or with more
// than two significant decimal places come back invalid.
func NewAmount(d decimal.Decimal) Amount {
	if d.IsZero() {
		return Amount{dec: decimal.Zero, valid: true}
	}
	if !inAmountRange(d) {
		return Amount{}
	}
	return Amount{dec: d, valid: true}
}

// inAmountRange checks the exponent before anything that rescales, since
// comparing 1e-20000000 against a cents value allocates millions of digits.
func inAmountRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp < amountMinExp || exp > amountMaxExp {
		return false
	}
	if d.Abs().Cmp(amountLimit) >= 0 {
		return false
	}
	return d.Equal(d.Truncate(amountPlaces))
}

// AmountFromInt is a shorthand for whole amounts.
func AmountFromInt(v int64) Amount {
	return NewAmount(decimal.NewFromInt(v))
}

// ParseAmount reads a decimal string. It accepts both dot (12.34) and comma
// (12,34) separators. It never fails: unreadable input returns an invalid
// Amount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34
//	ParseAmount("12,34") -> 12.34
//	ParseAmount("abc")   -> invalid
//	ParseAmount("1e-30") -> invalid
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}
	}
	return NewAmount(d)
}

// amountFromFloat drops NaN and infinities.
func amountFromFloat(f float64) Amount {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Amount{}
	}
	return NewAmount(decimal.NewFromFloat(f))
}

// Valid reports whether the amount was readable.
func (a Amount) Valid() bool { return a.valid }

// Decimal returns the raw value, zero when invalid.
func (a Amount) Decimal() decimal.Decimal {
	if !a.valid {
		return decimal.Zero
	}
	return a.dec
}

// Contribution is what the amount adds to a total: invalid and negative
// amounts contribute nothing.
func (a Amount) Contribution() decimal.Decimal {
	if !a.valid || a.dec.IsNegative() {
		return decimal.Zero
	}
	return a.dec
}

// Validate is used on writes, where only finite non-negative amounts are
// accepted.
func (a Amount) Validate() error {
	if !a.valid || a.dec.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (a Amount) String() string {
	if !a.valid {
		return ""
	}
	return a.dec.String()
}

// MarshalJSON writes a bare number, or null for invalid amounts.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.valid {
		return []byte("null"), nil
	}
	return []byte(a.dec.String()), nil
}

// UnmarshalJSON accepts numbers and numeric strings and never errors.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch x := v.(type) {
	case float64:
		// Re-read the literal to keep full decimal precision.
		if d, err := decimal.NewFromString(strings.TrimSpace(string(data))); err == nil {
			*a = NewAmount(d)
			return nil
		}
		*a = amountFromFloat(x)
	case string:
		*a = ParseAmount(x)
	}
	return nil
}

func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
	case int64:
		*a = AmountFromInt(v)
	case float64:
		*a = amountFromFloat(v)
	case string:
		*a = ParseAmount(v)
	case []byte:
		*a = ParseAmount(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Amount", src)
	}
	return nil
}

func (a Amount) Value() (driver.Value, error) {
	if !a.valid {
		return nil, nil
	}
	return a.dec.String(), nil
}
