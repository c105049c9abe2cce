package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"91.666666", "91.67"},
		{"8.875", "8.88"},
		{"19.998", "20"},
		{"-10.005", "-10.01"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Round(decimal.RequireFromString(tt.in))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$34.99", Format(decimal.RequireFromString("34.99")))
	assert.Equal(t, "$1,234.50", Format(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "$44,836.00", Format(decimal.NewFromInt(44836)))
	assert.Equal(t, "-$10.00", Format(decimal.NewFromInt(-10)))
	assert.Equal(t, "$0.00", Format(decimal.Zero))
}

func TestParse(t *testing.T) {
	d, err := Parse(" $1,204.17 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("1204.17")))

	_, err = Parse("")
	require.Error(t, err)

	_, err = Parse("twelve")
	require.Error(t, err)
}

func TestPercentAndMax(t *testing.T) {
	assert.True(t, Percent(decimal.RequireFromString("6.25")).Equal(decimal.RequireFromString("0.0625")))
	assert.True(t, Max(decimal.NewFromInt(-3), Zero).Equal(Zero))
}
