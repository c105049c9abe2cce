package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateVIN(t *testing.T) {
	tests := []struct {
		name    string
		vin     string
		want    string
		wantMsg string
	}{
		{name: "valid", vin: "1FUJGLDR12LM12345", want: "1FUJGLDR12LM12345"},
		{name: "lowercase normalized", vin: " 1fujgldr12lm12345 ", want: "1FUJGLDR12LM12345"},
		{name: "empty", vin: "", wantMsg: "VIN is required"},
		{name: "too short", vin: "1FUJGLDR12LM1234", wantMsg: "exactly 17 characters, got 16"},
		{name: "contains I", vin: "1FUJGLDR12LI12345", wantMsg: "letter I"},
		{name: "contains O", vin: "1FUJGLDR12LO12345", wantMsg: "letter O"},
		{name: "contains Q", vin: "1FUJGLDR12LQ12345", wantMsg: "letter Q"},
		{name: "punctuation", vin: "1FUJGLDR12L-12345", wantMsg: "letters and digits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateVIN("vin", tt.vin)
			if tt.wantMsg != "" {
				require.Error(t, err)
				var ve *ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "vin", ve.Field)
				assert.Contains(t, ve.Message, tt.wantMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEIN(t *testing.T) {
	formatted, err := FormatEIN("123456789")
	require.NoError(t, err)
	assert.Equal(t, "12-3456789", formatted)

	formatted, err = FormatEIN("12-3456789")
	require.NoError(t, err)
	assert.Equal(t, "12-3456789", formatted)

	_, err = FormatEIN("12345678")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly 9 digits")

	_, err = FormatEIN("12345678A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only contain digits")
}

func TestValidationErrorsCollect(t *testing.T) {
	var errs ValidationErrors
	require.NoError(t, errs.Err())

	errs.Add("originalVIN", "X", "VIN must be exactly 17 characters, got 1")
	require.NoError(t, errs.Append(nil))
	require.NoError(t, errs.Append(NewValidationError("correctedVIN", "", "VIN is required")))

	other := errors.New("boom")
	require.ErrorIs(t, errs.Append(other), other)

	err := errs.Err()
	require.Error(t, err)
	assert.Len(t, errs, 2)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "originalVIN")
	assert.Contains(t, err.Error(), "correctedVIN: VIN is required")

	var one *ValidationError
	require.True(t, errors.As(err, &one))
	assert.Equal(t, "originalVIN", one.Field)
}

type sampleVehicle struct {
	VIN   string `json:"vin" validate:"required,vin"`
	Type  string `json:"vehicleType" validate:"required,oneof=taxable suspended credit"`
	State string `json:"state" validate:"omitempty,state"`
	Miles int    `json:"miles" validate:"gte=0"`
}

type sampleFiling struct {
	Vehicles []sampleVehicle `json:"vehicles" validate:"dive"`
}

func TestStruct(t *testing.T) {
	ok := sampleFiling{Vehicles: []sampleVehicle{{VIN: "1FUJGLDR12LM12345", Type: "taxable", State: "tx"}}}
	require.NoError(t, Struct(ok))

	bad := sampleFiling{Vehicles: []sampleVehicle{{VIN: "1FUJGLDR12LQ12345", Type: "leased", State: "Texas", Miles: -1}}}
	err := Struct(bad)
	require.Error(t, err)

	var errs ValidationErrors
	require.True(t, errors.As(err, &errs))
	require.Len(t, errs, 4)
	assert.Equal(t, "vehicles[0].vin", errs[0].Field)
	assert.Contains(t, errs[0].Message, "17-character VIN")
	assert.Equal(t, "vehicles[0].vehicleType", errs[1].Field)
	assert.Equal(t, "must be one of: taxable, suspended, credit", errs[1].Message)
	assert.Equal(t, "vehicles[0].state", errs[2].Field)
	assert.Equal(t, "vehicles[0].miles", errs[3].Field)
}
