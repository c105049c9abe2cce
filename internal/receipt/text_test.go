package receipt

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pilotReceipt = `
PILOT TRAVEL CENTER #392
1200 N MAIN ST
BARSTOW, CA 92311
08/14/2025 10:42
PUMP 07  DIESEL #2
GALLONS: 120.500
PRICE/GAL $4.899
SUBTOTAL $590.33
TOTAL $590.33
`

func TestParseText(t *testing.T) {
	p := ParseText(pilotReceipt)

	assert.Equal(t, "PILOT TRAVEL CENTER #392", p.Vendor)
	assert.Equal(t, "CA", p.State)
	assert.True(t, p.Gallons.Equal(decimal.RequireFromString("120.5")), p.Gallons.String())
	assert.True(t, p.AmountPaid.Equal(decimal.RequireFromString("590.33")), p.AmountPaid.String())
	assert.Equal(t, time.Date(2025, time.August, 14, 0, 0, 0, 0, time.UTC), p.Date)
	assert.Empty(t, p.Missing())
}

func TestParseTextVariants(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		state   string
		gallons string
		amount  string
	}{
		{
			name:    "trailing unit and largest total",
			text:    "LOVES #512\nAMARILLO TX 79101-1234\nDSL 101.3 GAL @ 3.799\nTOTAL FUEL TAX 24.10\nTOTAL 384.84\n",
			state:   "TX",
			gallons: "101.3",
			amount:  "384.84",
		},
		{
			name:    "canadian postal code and thousands",
			text:    "PETRO-PASS\nLONDON ON N6A 1B2\nQTY 410.0\nGRAND TOTAL $1,312.40\n",
			state:   "ON",
			gallons: "410",
			amount:  "1312.40",
		},
		{
			name:    "city comma state only",
			text:    "TA EXPRESS\nTUCSON, AZ\n75 gallons\nAMOUNT DUE 290.25\n",
			state:   "AZ",
			gallons: "75",
			amount:  "290.25",
		},
		{
			name:    "labelled gallons with four decimals",
			text:    "FLYING J #611\nRENO, NV 89501\nGALLONS: 120.4567\nTOTAL 451.23\n",
			state:   "NV",
			gallons: "120.4567",
			amount:  "451.23",
		},
		{
			name:    "trailing gallons with four decimals",
			text:    "PILOT #88\nELKO, NV 89801\nDSL 120.4567 GAL\nTOTAL 455.10\n",
			state:   "NV",
			gallons: "120.4567",
			amount:  "455.10",
		},
		{
			name:    "labelled gallons with thousands separator",
			text:    "BIG RIG STOP\nOMAHA, NE 68102\nGALLONS: 1,204.5\nTOTAL $4,515.06\n",
			state:   "NE",
			gallons: "1204.5",
			amount:  "4515.06",
		},
		{
			name:    "trailing gallons with thousands separator",
			text:    "BIG RIG STOP\nOMAHA, NE 68102\nDSL 1,204.5 GAL\nTOTAL $4,515.06\n",
			state:   "NE",
			gallons: "1204.5",
			amount:  "4515.06",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseText(tt.text)
			assert.Equal(t, tt.state, p.State)
			assert.True(t, p.Gallons.Equal(decimal.RequireFromString(tt.gallons)), p.Gallons.String())
			assert.True(t, p.AmountPaid.Equal(decimal.RequireFromString(tt.amount)), p.AmountPaid.String())
		})
	}
}

func TestParseTextMissingFields(t *testing.T) {
	p := ParseText("THANK YOU FOR STOPPING\nSEE YOU AGAIN\n")
	assert.Equal(t, []string{"state", "gallons"}, p.Missing())
	assert.True(t, p.AmountPaid.IsZero())
	assert.True(t, p.Date.IsZero())
}

func TestStateFromTextIgnoresUnknownCodes(t *testing.T) {
	assert.Equal(t, "", StateFromText("ZZ 12345"))
	assert.Equal(t, "NV", StateFromText("ZZ 12345\nRENO, NV 89501"))
}

func TestDateFromText(t *testing.T) {
	assert.Equal(t, time.Date(2025, time.September, 3, 0, 0, 0, 0, time.UTC), dateFromText("DATE 2025-09-03"))
	assert.Equal(t, time.Date(2025, time.July, 4, 0, 0, 0, 0, time.UTC), dateFromText("7/4/25 06:10"))
}

func TestParseQuantity(t *testing.T) {
	q, ok := parseQuantity("$1,024.75 USD")
	require.True(t, ok)
	assert.True(t, q.Equal(decimal.RequireFromString("1024.75")))

	_, ok = parseQuantity("n/a")
	assert.False(t, ok)
}
