package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("vin", func(fl validator.FieldLevel) bool {
			_, err := ValidateVIN("vin", fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("state", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if len(s) != 2 {
				return false
			}
			for _, r := range strings.ToUpper(s) {
				if r < 'A' || r > 'Z' {
					return false
				}
			}
			return true
		})
		validate = v
	})
	return validate
}

// Struct validates s against its `validate` struct tags and converts every
// failing field into a ValidationError with a readable message.
func Struct(s interface{}) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var out ValidationErrors
	for _, fe := range fieldErrs {
		out.Add(fieldPath(fe), fe.Value(), describe(fe))
	}
	return out.Err()
}

// fieldPath drops the top-level struct name from the validator namespace ("Filing.vehicles[0].vin" -> "vehicles[0].vin").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "vin":
		return "must be a 17-character VIN without the letters I, O or Q"
	case "state":
		return "must be a two-letter state or province code"
	case "required_if":
		return "is required for this vehicle type"
	default:
		return fmt.Sprintf("failed the %q rule", fe.Tag())
	}
}
