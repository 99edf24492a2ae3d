package sheet

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   float64
		wantOK bool
	}{
		{"native", 42.0, 42, true},
		{"int", 7, 7, true},
		{"currency string", " $1,234.50 ", 1234.5, true},
		{"negative", "-3.25", -3.25, true},
		{"plain string", "10", 10, true},
		{"blank", "   ", 0, false},
		{"nil", nil, 0, false},
		{"text", "abc", 0, false},
		{"NaN", math.NaN(), 0, false},
		{"Inf", math.Inf(1), 0, false},
		{"bool", true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToNumber(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestToDecimal_ExactFromText(t *testing.T) {
	d, ok := ToDecimal("$1,234.50")
	assert.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("1234.50")), "got %s", d)

	d, ok = ToDecimal("0.1")
	assert.True(t, ok)
	assert.Equal(t, "0.1", d.String())
}

func TestToDecimal_Rejects(t *testing.T) {
	for _, in := range []any{nil, "", " ", "n/a", math.NaN(), struct{}{}} {
		_, ok := ToDecimal(in)
		assert.False(t, ok, "input %v", in)
	}
}

func TestToDecimal_ZeroIsSupplied(t *testing.T) {
	d, ok := ToDecimal("0")
	assert.True(t, ok)
	assert.True(t, d.IsZero())
}

func TestToNullDecimal(t *testing.T) {
	assert.False(t, ToNullDecimal("").Valid)
	assert.False(t, ToNullDecimal("abc").Valid)

	nd := ToNullDecimal(" 99.95 ")
	assert.True(t, nd.Valid)
	assert.Equal(t, "99.95", nd.Decimal.String())
}
