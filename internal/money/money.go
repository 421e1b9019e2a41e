// Package money converts between dollar strings and integer cents.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseDollars parses a US-formatted dollar amount into cents.
// Accepted forms: "10000", "10,000.00", "$10,000.5".
func ParseDollars(s string) (int64, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "$")
	clean = strings.ReplaceAll(clean, ",", "")

	if clean == "" {
		return 0, fmt.Errorf("empty amount")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return 0, fmt.Errorf("invalid amount %q: more than two decimal places", s)
	}

	cents := d.Mul(hundred).Round(0)
	if !cents.BigInt().IsInt64() {
		return 0, fmt.Errorf("invalid amount %q: too large", s)
	}

	return cents.IntPart(), nil
}

// FormatCents renders cents as "$1,234.56".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	whole := decimal.NewFromInt(cents).Div(hundred).StringFixed(2)
	intPart, frac, _ := strings.Cut(whole, ".")

	var sb strings.Builder

	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}

		sb.WriteRune(r)
	}

	return fmt.Sprintf("%s$%s.%s", sign, sb.String(), frac)
}
