package ucr

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quicktrucktax/internal/validation"
)

func TestFeeCarrierBrackets(t *testing.T) {
	table, err := Lookup("2025")
	require.NoError(t, err)

	tests := []struct {
		units int
		want  string
	}{
		{0, "46"},
		{1, "46"},
		{2, "46"},
		{3, "138"},
		{5, "138"},
		{6, "276"},
		{20, "276"},
		{21, "963"},
		{100, "963"},
		{101, "4592"},
		{1000, "4592"},
		{1001, "44836"},
		{500000, "44836"},
	}
	for _, tt := range tests {
		fee, err := table.Fee(tt.units, Carrier)
		require.NoError(t, err)
		assert.True(t, fee.Equal(decimal.RequireFromString(tt.want)), "units %d: got %s", tt.units, fee)
	}
}

func TestFeeFlatRateKinds(t *testing.T) {
	table, err := Lookup("2026")
	require.NoError(t, err)

	base, err := table.Fee(1, Broker)
	require.NoError(t, err)

	for _, kind := range []OperatorKind{Broker, FreightForwarder, Leasing} {
		fee, err := table.Fee(500000, kind)
		require.NoError(t, err)
		assert.True(t, fee.Equal(base), string(kind))
	}

	b, err := table.Bracket(250, Leasing)
	require.NoError(t, err)
	assert.Equal(t, "0-2 power units", b.Label)
}

func TestFeeRejectsNegativeCount(t *testing.T) {
	table, err := Lookup("2026")
	require.NoError(t, err)

	_, err = table.Fee(-1, Carrier)
	require.Error(t, err)
	assert.True(t, validation.IsValidationError(err))

	_, err = table.Fee(-1, Broker)
	require.Error(t, err)
}

func TestParseOperatorKind(t *testing.T) {
	k, err := ParseOperatorKind(" Freight_Forwarder ")
	require.NoError(t, err)
	assert.Equal(t, FreightForwarder, k)

	_, err = ParseOperatorKind("shipper")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier, broker, freight_forwarder, leasing")

	table, _ := Lookup("2026")
	_, err = table.Fee(3, OperatorKind("shipper"))
	require.Error(t, err)
}

func TestLookupUnknownYear(t *testing.T) {
	_, err := Lookup("1999")
	require.ErrorIs(t, err, ErrUnknownYear)
}

func TestLoadRejectsGaps(t *testing.T) {
	_, err := load([]byte(`
years:
  - year: 2030
    brackets:
      - {min: 0, max: 2, label: a, fee: "10"}
      - {min: 4, label: b, fee: "20"}
`))
	require.ErrorIs(t, err, ErrInvalidTable)
}
