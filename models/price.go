package models

import (
	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places a Price keeps.
const PriceScale = 2

// PriceMaxDigits bounds the total number of digits of a Price.
const PriceMaxDigits = 5

// Price is a fixed-precision monetary amount stored as decimal(5,2).
type Price struct {
	decimal.Decimal
}

// NewPrice parses a decimal string such as "5.50".
func NewPrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, err
	}
	return Price{d}, nil
}

// MustPrice is NewPrice for literals known to be valid.
func MustPrice(s string) Price {
	p, err := NewPrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the price with exactly two decimal places.
func (p Price) String() string {
	return p.StringFixed(PriceScale)
}

// MarshalJSON renders the price as a quoted fixed-point string, e.g. "5.50".
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// Fits reports whether the value fits decimal(5,2) without rounding.
func (p Price) Fits() bool {
	if p.Exponent() < -PriceScale && !p.Equal(p.Truncate(PriceScale)) {
		return false
	}
	intDigits := len(p.Abs().Truncate(0).String())
	return intDigits <= PriceMaxDigits-PriceScale
}
