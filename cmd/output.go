package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"quicktrucktax/internal/validation"
)

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// readJSONInput decodes a JSON file into v; "-" reads stdin.
func readJSONInput(path string, v interface{}) error {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("input file not found: %s", path)
			}
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return nil
}

// writeOutput writes data to outputPath, or stdout when outputPath is empty.
func writeOutput(data []byte, outputPath string, log zerolog.Logger) error {
	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			log.Error().
				Err(err).
				Str("output_file", outputPath).
				Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(data)).
			Msg("Results written to file")
		return nil
	}

	if _, err := os.Stdout.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// outputJSON writes v as indented JSON.
func outputJSON(v interface{}, outputPath string, log zerolog.Logger) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON output")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return writeOutput(append(data, '\n'), outputPath, log)
}

// handleValidationError lists every invalid field on its own line. Other
// errors are returned unchanged.
func handleValidationError(err error, log zerolog.Logger) error {
	if !validation.IsValidationError(err) {
		return err
	}
	log.Warn().Err(err).Msg("Input validation failed")

	var errs validation.ValidationErrors
	var single *validation.ValidationError
	switch {
	case errors.As(err, &errs):
	case errors.As(err, &single):
		errs = validation.ValidationErrors{single}
	}

	var b strings.Builder
	b.WriteString("invalid input:")
	for _, e := range errs {
		fmt.Fprintf(&b, "\n  - %s: %s", e.Field, e.Message)
	}
	return errors.New(b.String())
}
