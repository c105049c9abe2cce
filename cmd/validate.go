package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"quicktrucktax/internal/logger"
	"quicktrucktax/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check VINs and EINs",
}

var validateVINCmd = &cobra.Command{
	Use:     "vin [vin]...",
	Short:   "Validate vehicle identification numbers",
	Example: `  qtt validate vin 1fujgldr12lm12345 1XKAD49X0CJ123456`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runValidateVIN,
}

var validateEINCmd = &cobra.Command{
	Use:     "ein [ein]",
	Short:   "Validate and format an employer identification number",
	Example: `  qtt validate ein 123456789`,
	Args:    cobra.ExactArgs(1),
	RunE:    runValidateEIN,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.AddCommand(validateVINCmd, validateEINCmd)
}

func runValidateVIN(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("validate")

	var errs validation.ValidationErrors
	for i, raw := range args {
		vin, err := validation.ValidateVIN(fmt.Sprintf("vin[%d]", i), raw)
		if err != nil {
			_ = errs.Append(err)
			fmt.Printf("INVALID  %s\n", raw)
			continue
		}
		fmt.Printf("OK       %s\n", vin)
	}
	return handleValidationError(errs.Err(), log)
}

func runValidateEIN(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("validate")

	formatted, err := validation.FormatEIN(args[0])
	if err != nil {
		return handleValidationError(err, log)
	}
	fmt.Println(formatted)
	return nil
}
