package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestProgressOf(t *testing.T) {
	tests := []struct {
		name          string
		current       string
		target        string
		wantPercent   string
		wantRemaining string
	}{
		{"under target", "450", "500", "90", "50"},
		{"exactly at target", "500", "500", "100", "0"},
		{"over target is capped", "150", "100", "100", "0"},
		{"zero target", "20", "0", "0", "0"},
		{"nothing spent", "0", "3000", "0", "3000"},
		{"fractional", "33.33", "100", "33.33", "66.67"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ProgressOf(dec(tt.current), dec(tt.target))
			assert.True(t, p.Percent.Equal(dec(tt.wantPercent)), "percent = %s, want %s", p.Percent, tt.wantPercent)
			assert.True(t, p.Remaining.Equal(dec(tt.wantRemaining)), "remaining = %s, want %s", p.Remaining, tt.wantRemaining)
		})
	}
}

func TestOverage(t *testing.T) {
	assert.True(t, Overage(dec("550"), dec("500")).Equal(dec("50")))
	assert.True(t, Overage(dec("450"), dec("500")).IsZero())
}

func TestParseAmount(t *testing.T) {
	t.Run("accepts two decimal places", func(t *testing.T) {
		d, err := ParseAmount("200.50")
		require.NoError(t, err)
		assert.Equal(t, "200.5", d.String())
	})

	t.Run("accepts trailing zeros beyond two places", func(t *testing.T) {
		d, err := ParseAmount("10.000")
		require.NoError(t, err)
		assert.True(t, d.Equal(dec("10")))
	})

	t.Run("rejects zero", func(t *testing.T) {
		_, err := ParseAmount("0")
		assert.ErrorIs(t, err, ErrNonPositiveAmount)
	})

	t.Run("rejects negative", func(t *testing.T) {
		_, err := ParseAmount("-5")
		assert.ErrorIs(t, err, ErrNonPositiveAmount)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseAmount("ten")
		assert.ErrorIs(t, err, ErrMalformedAmount)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseAmount("  ")
		assert.ErrorIs(t, err, ErrMalformedAmount)
	})

	t.Run("rejects sub-cent precision", func(t *testing.T) {
		_, err := ParseAmount("1.005")
		assert.ErrorIs(t, err, ErrAmountPrecision)
	})
}

func TestParseNonNegative(t *testing.T) {
	d, err := ParseNonNegative("0")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseNonNegative("-0.01")
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestPercent1(t *testing.T) {
	assert.Equal(t, "90.0", Percent1(dec("90")))
	assert.Equal(t, "33.3", Percent1(dec("33.333333")))
}
