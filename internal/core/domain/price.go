package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice normalizes a price received as text.
//
// Empty, non-numeric and negative values are rejected with a
// [ValidationError] wrapping [ErrInvalidPrice].
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, NewValidationError("price", MsgRequired, ErrInvalidPrice)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, NewValidationError("price", MsgInvalidPrice, ErrInvalidPrice)
	}

	if d.IsNegative() {
		return decimal.Zero, NewValidationError("price", MsgInvalidPrice, ErrInvalidPrice)
	}
	return d, nil
}

// PriceFromFloat normalizes a price received as a number.
func PriceFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return decimal.Zero, NewValidationError("price", MsgInvalidPrice, ErrInvalidPrice)
	}
	return decimal.NewFromFloat(f), nil
}

// PriceFromJSON normalizes a price received either as a JSON number or as
// a JSON string holding a number.
func PriceFromJSON(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, NewValidationError("price", MsgRequired, ErrInvalidPrice)
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, NewValidationError("price", MsgInvalidPrice, ErrInvalidPrice)
		}
		return ParsePrice(s)
	}
	return ParsePrice(string(raw))
}
