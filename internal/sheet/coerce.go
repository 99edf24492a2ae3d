package sheet

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyStripper = strings.NewReplacer("$", "", ",", "")

// cleanNumeric strips currency symbols and thousands separators
func cleanNumeric(s string) string {
	return strings.TrimSpace(currencyStripper.Replace(s))
}

// ToNumber converts a cell to float64. Native finite numbers pass through;
// text like " $1,234.50 " is cleaned before parsing. Blank or non-numeric
// input reports ok=false rather than an error.
func ToNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, isFinite(t)
	case float32:
		return float64(t), isFinite(float64(t))
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case decimal.Decimal:
		return t.InexactFloat64(), true
	case string:
		s := cleanNumeric(t)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || !isFinite(n) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// ToDecimal converts a cell to an exact decimal. Text is parsed digit for digit,
// never through float64, so "1,234.50" yields exactly 1234.50.
func ToDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return t, true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int32:
		return decimal.NewFromInt32(t), true
	case int64:
		return decimal.NewFromInt(t), true
	case float64:
		if !isFinite(t) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(t), true
	case float32:
		if !isFinite(float64(t)) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(t), true
	case string:
		s := cleanNumeric(t)
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// ToNullDecimal is ToDecimal for optional columns
func ToNullDecimal(v any) decimal.NullDecimal {
	d, ok := ToDecimal(v)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
