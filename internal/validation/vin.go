// Package validation implements the input rules shared by the filing
// calculators: VIN and EIN formats, and struct-tag validation of filing
// models. Every failure is reported as a ValidationError carrying the field,
// the offending value, and a message fit to show to the person filing.
package validation

import (
	"fmt"
	"strings"
)

const (
	// VINLength is the length of a modern (1981+) vehicle identification number.
	VINLength = 17

	// EINLength is the number of digits in an employer identification number.
	EINLength = 9
)

// NormalizeVIN trims and upper-cases a VIN without validating it.
func NormalizeVIN(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}

// ValidateVIN checks the 17-character format and returns the normalized VIN.
// The letters I, O and Q never appear in a VIN.
func ValidateVIN(field, vin string) (string, error) {
	normalized := NormalizeVIN(vin)
	if normalized == "" {
		return "", NewValidationError(field, vin, "VIN is required")
	}
	if len(normalized) != VINLength {
		return "", NewValidationError(field, vin,
			fmt.Sprintf("VIN must be exactly %d characters, got %d", VINLength, len(normalized)))
	}
	for i, r := range normalized {
		switch {
		case r == 'I' || r == 'O' || r == 'Q':
			return "", NewValidationError(field, vin,
				fmt.Sprintf("VIN cannot contain the letter %c (position %d)", r, i+1))
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return "", NewValidationError(field, vin,
				fmt.Sprintf("VIN may only contain letters and digits, found %q at position %d", r, i+1))
		}
	}
	return normalized, nil
}

// ValidateEIN checks that an EIN has exactly nine digits. Dashes and spaces are ignored.
// It returns the bare nine-digit form.
func ValidateEIN(field, ein string) (string, error) {
	digits := strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(ein))
	if digits == "" {
		return "", NewValidationError(field, ein, "EIN is required")
	}
	if len(digits) != EINLength {
		return "", NewValidationError(field, ein,
			fmt.Sprintf("EIN must be exactly %d digits, got %d", EINLength, len(digits)))
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", NewValidationError(field, ein, "EIN may only contain digits")
		}
	}
	return digits, nil
}

// FormatEIN validates an EIN and renders it as NN-NNNNNNN.
func FormatEIN(ein string) (string, error) {
	digits, err := ValidateEIN("ein", ein)
	if err != nil {
		return "", err
	}
	return digits[:2] + "-" + digits[2:], nil
}
