package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"quicktrucktax/internal/logger"
)

var (
	// ErrGoogleSheetsNotConfigured is returned when a command needs Google Sheets but no sheet URL is set.
	ErrGoogleSheetsNotConfigured = errors.New("GOOGLE_SHEET_URL is required")

	// ErrDocumentAINotConfigured is returned when Document AI receipt parsing is requested without a processor.
	ErrDocumentAINotConfigured = errors.New("GOOGLE_CLOUD_PROJECT and DOCUMENT_AI_PROCESSOR_ID are required")
)

type Config struct {
	// Rate table versions
	HVUTTaxPeriod string
	UCRYear       string
	IFTAQuarter   string
	SalesTaxTable string
	CouponBook    string

	// Google Cloud Configuration
	GoogleCloudProject         string
	GoogleCloudLocation        string
	DocumentAIProcessorID      string
	DocumentAIProcessorVersion string

	// Google Sheets Configuration
	GoogleSheetURL     string
	TripSheet          string
	FuelSheet          string
	IFTAReportSheet    string
	PricingReportSheet string

	// Receipt scanning
	ScanWorkers int

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads configuration from the process environment. A .env file, if any,
// must already have been loaded by the caller.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	config := &Config{
		HVUTTaxPeriod:              getEnv(k, "HVUT_TAX_PERIOD", "2025"),
		UCRYear:                    getEnv(k, "UCR_YEAR", "2026"),
		IFTAQuarter:                getEnv(k, "IFTA_QUARTER", "2025Q3"),
		SalesTaxTable:              getEnv(k, "SALES_TAX_TABLE", "2025"),
		CouponBook:                 getEnv(k, "COUPON_BOOK", "2025"),
		GoogleCloudProject:         getEnv(k, "GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:        getEnv(k, "GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:      getEnv(k, "DOCUMENT_AI_PROCESSOR_ID", ""),
		DocumentAIProcessorVersion: getEnv(k, "DOCUMENT_AI_PROCESSOR_VERSION", ""),
		GoogleSheetURL:             getEnv(k, "GOOGLE_SHEET_URL", ""),
		TripSheet:                  getEnv(k, "GOOGLE_SHEET_TRIPS", "Trips"),
		FuelSheet:                  getEnv(k, "GOOGLE_SHEET_FUEL", "Fuel"),
		IFTAReportSheet:            getEnv(k, "GOOGLE_SHEET_IFTA_REPORT", "IFTA_Report"),
		PricingReportSheet:         getEnv(k, "GOOGLE_SHEET_PRICING_REPORT", "Pricing"),
		LogLevel:                   getEnv(k, "LOG_LEVEL", "info"),
		LogFormat:                  getEnv(k, "LOG_FORMAT", "console"),
		LogTimeFormat:              getEnv(k, "LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                  getEnv(k, "LOG_OUTPUT", "stderr"),
	}

	workers, err := getInt(k, "SCAN_WORKERS", 4)
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.ScanWorkers = workers

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.HVUTTaxPeriod == "" {
		return fmt.Errorf("HVUT_TAX_PERIOD must not be empty")
	}
	if c.UCRYear == "" {
		return fmt.Errorf("UCR_YEAR must not be empty")
	}
	if c.IFTAQuarter == "" {
		return fmt.Errorf("IFTA_QUARTER must not be empty")
	}
	if c.ScanWorkers < 1 {
		return fmt.Errorf("SCAN_WORKERS must be at least 1, got %d", c.ScanWorkers)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	return nil
}

// RequireGoogleSheets reports whether the Sheets import/export commands can run.
func (c *Config) RequireGoogleSheets() error {
	if c.GoogleSheetURL == "" {
		return ErrGoogleSheetsNotConfigured
	}
	return nil
}

// RequireDocumentAI reports whether Document AI receipt parsing can run.
func (c *Config) RequireDocumentAI() error {
	if c.GoogleCloudProject == "" || c.DocumentAIProcessorID == "" {
		return ErrDocumentAINotConfigured
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(k *koanf.Koanf, key, defaultValue string) string {
	if value := strings.TrimSpace(k.String(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(k *koanf.Koanf, key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(k.String(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number, got %q", key, value)
	}
	return n, nil
}
