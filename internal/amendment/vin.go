package amendment

import "quicktrucktax/internal/validation"

// ValidateVinCorrection checks both VINs and that the correction actually
// changes the VIN. All failures are returned together as ValidationErrors.
func ValidateVinCorrection(originalVIN, correctedVIN string) error {
	var errs validation.ValidationErrors

	original, err := validation.ValidateVIN("originalVIN", originalVIN)
	if err := errs.Append(err); err != nil {
		return err
	}
	corrected, err := validation.ValidateVIN("correctedVIN", correctedVIN)
	if err := errs.Append(err); err != nil {
		return err
	}

	if len(errs) == 0 && original == corrected {
		errs.Add("correctedVIN", correctedVIN, "VINs must be different")
	}
	return errs.Err()
}
