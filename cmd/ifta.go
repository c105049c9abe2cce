package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quicktrucktax/internal/ifta"
	"quicktrucktax/internal/logger"
	"quicktrucktax/internal/money"
	"quicktrucktax/internal/ocr"
	"quicktrucktax/internal/receipt"
	"quicktrucktax/internal/sheets"
	"quicktrucktax/pkg/models"
)

var iftaCmd = &cobra.Command{
	Use:   "ifta",
	Short: "Quarterly IFTA fuel tax returns",
}

var iftaCalcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Compute a quarterly IFTA return",
	Long: `Compute fleet MPG, taxable gallons per jurisdiction, tax owed, tax paid at the
pump and the net balance or credit for one quarter.

Input is a JSON file:

  {"trips": [{"state": "CA", "miles": 1000}],
   "fuel":  [{"state": "CA", "gallons": 100, "amountPaid": 500}]}

or, with --sheets, the trip log and fuel sheets of GOOGLE_SHEET_URL.`,
	Example: `  qtt ifta calc --input q3.json
  qtt ifta calc --sheets --write-report --quarter 2025Q3`,
	RunE: runIFTACalc,
}

var iftaScanCmd = &cobra.Command{
	Use:   "scan [receipt]...",
	Short: "Read fuel purchases from scanned receipts",
	Long: `Extract jurisdiction, gallons, amount and date from fuel receipts (PDF or image).

The ocr processor uses Google Cloud Vision text detection. The documentai
processor uses the Document AI expense parser configured by GOOGLE_CLOUD_PROJECT,
GOOGLE_CLOUD_LOCATION and DOCUMENT_AI_PROCESSOR_ID.

With --trips the scanned purchases are combined with the trip log and the
quarterly return is computed.`,
	Example: `  qtt ifta scan receipts/*.jpg
  qtt ifta scan receipt.pdf --processor documentai --json
  qtt ifta scan receipts/ --trips q3.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIFTAScan,
}

// IFTAInput is the JSON input of ifta calc.
type IFTAInput struct {
	Trips []models.TripEntry    `json:"trips"`
	Fuel  []models.FuelPurchase `json:"fuel"`
}

// ScanResult is the outcome of one scanned receipt.
type ScanResult struct {
	File    string              `json:"file"`
	Receipt *models.FuelReceipt `json:"receipt,omitempty"`
	Error   string              `json:"error,omitempty"`

	err error
}

// ScanOutput is the JSON shape of ifta scan.
type ScanOutput struct {
	Receipts []ScanResult `json:"receipts"`
	Return   *ifta.Result `json:"return,omitempty"`
}

type scanJob struct {
	path  string
	index int
}

func init() {
	rootCmd.AddCommand(iftaCmd)
	iftaCmd.AddCommand(iftaCalcCmd, iftaScanCmd)

	iftaCmd.PersistentFlags().String("quarter", "", "Rate quarter, e.g. 2025Q3 (default: IFTA_QUARTER)")
	iftaCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	iftaCmd.PersistentFlags().StringP("output", "o", "", "Output file path (default: stdout)")

	iftaCalcCmd.Flags().StringP("input", "i", "", "Trips and fuel JSON file (- for stdin)")
	iftaCalcCmd.Flags().Bool("sheets", false, "Read trips and fuel from Google Sheets")
	iftaCalcCmd.Flags().Bool("write-report", false, "Append the return to the IFTA report sheet")

	iftaScanCmd.Flags().String("processor", "ocr", "Receipt processor: ocr or documentai")
	iftaScanCmd.Flags().String("trips", "", "Trips JSON file; computes the return with the scanned fuel")
	iftaScanCmd.Flags().Int("workers", 0, "Parallel receipts (default: SCAN_WORKERS or 4)")
	iftaScanCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runIFTACalc(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ifta")
	cfg := currentConfig()

	inputPath, _ := cmd.Flags().GetString("input")
	useSheets, _ := cmd.Flags().GetBool("sheets")
	writeReport, _ := cmd.Flags().GetBool("write-report")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	outputPath, _ := cmd.Flags().GetString("output")

	if (inputPath == "") == !useSheets {
		return fmt.Errorf("use exactly one of --input or --sheets")
	}

	calc, err := newIFTACalculator(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(120, log)
	defer cancel()

	var input IFTAInput
	var sheetsService *sheets.Service
	if useSheets || writeReport {
		sheetsService, err = createSheetsService(ctx, log)
		if err != nil {
			return err
		}
	}

	if useSheets {
		if input.Trips, err = sheetsService.ReadTrips(ctx, cfg.TripSheet); err != nil {
			return handleValidationError(err, log)
		}
		if input.Fuel, err = sheetsService.ReadFuel(ctx, cfg.FuelSheet); err != nil {
			return handleValidationError(err, log)
		}
	} else if err := readJSONInput(inputPath, &input); err != nil {
		return err
	}

	result, err := calc.Calculate(input.Trips, input.Fuel)
	if err != nil {
		return handleIFTAError(err, log)
	}

	log.Info().
		Str("quarter", result.Quarter).
		Int("trips", len(input.Trips)).
		Int("fuel_purchases", len(input.Fuel)).
		Str("total_tax_due", result.TotalTaxDue.StringFixed(money.Cents)).
		Msg("IFTA return computed")

	if writeReport {
		if err := sheetsService.WriteIFTAReport(ctx, cfg.IFTAReportSheet, result); err != nil {
			return err
		}
	}

	return outputIFTAResult(result.Rounded(), jsonOutput, outputPath, log)
}

func runIFTAScan(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ifta-scan")

	processor, _ := cmd.Flags().GetString("processor")
	tripsPath, _ := cmd.Flags().GetString("trips")
	workers, _ := cmd.Flags().GetInt("workers")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	outputPath, _ := cmd.Flags().GetString("output")

	files, err := findReceiptFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no receipt files found")
	}
	workers = scanWorkers(workers)

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	extractor, closeFn, err := createExtractor(ctx, processor, log)
	if err != nil {
		return err
	}
	defer closeFn()

	log.Info().
		Int("files", len(files)).
		Int("workers", workers).
		Str("processor", processor).
		Msg("Scanning receipts")

	results := scanReceiptsInParallel(ctx, files, extractor, workers, log)

	out := ScanOutput{Receipts: results}
	var fuel []models.FuelPurchase
	var failed int
	for _, r := range results {
		if r.err != nil {
			failed++
			continue
		}
		fuel = append(fuel, r.Receipt.Purchase)
	}

	if tripsPath != "" {
		var input IFTAInput
		if err := readJSONInput(tripsPath, &input); err != nil {
			return err
		}
		calc, err := newIFTACalculator(cmd)
		if err != nil {
			return err
		}
		result, err := calc.Calculate(input.Trips, append(input.Fuel, fuel...))
		if err != nil {
			return handleIFTAError(err, log)
		}
		out.Return = result.Rounded()
	}

	if jsonOutput {
		if err := outputJSON(out, outputPath, log); err != nil {
			return err
		}
	} else {
		fmt.Printf("\n%d of %d receipts read\n", len(results)-failed, len(results))
		if out.Return != nil {
			if err := outputIFTAResult(out.Return, false, outputPath, log); err != nil {
				return err
			}
		}
	}

	if failed == len(results) {
		return fmt.Errorf("no receipts could be read")
	}
	return nil
}

func newIFTACalculator(cmd *cobra.Command) (*ifta.Calculator, error) {
	quarter, _ := cmd.Flags().GetString("quarter")
	if quarter == "" {
		quarter = currentConfig().IFTAQuarter
	}
	calc, err := ifta.NewCalculatorForQuarter(quarter)
	if err != nil {
		return nil, fmt.Errorf("no IFTA rates are loaded for quarter %s (available: %s)", quarter, strings.Join(ifta.Quarters(), ", "))
	}
	return calc, nil
}

// findReceiptFiles expands directories to the PDFs and images they contain.
func findReceiptFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("receipt not found: %s", arg)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && isReceiptFile(info.Name()) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isReceiptFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".jpg", ".jpeg", ".png", ".gif", ".tif", ".tiff", ".webp", ".bmp":
		return true
	}
	return false
}

// scanWorkers returns the --workers value, or SCAN_WORKERS when it is unset.
func scanWorkers(flag int) int {
	if flag > 0 {
		return flag
	}
	return currentConfig().ScanWorkers
}

func createExtractor(ctx context.Context, processor string, log zerolog.Logger) (receipt.Extractor, func(), error) {
	switch strings.ToLower(processor) {
	case "ocr":
		svc, err := ocr.NewGoogleVisionService(ctx)
		if err != nil {
			return nil, nil, handleOCRError(err, log)
		}
		return receipt.NewOCRExtractor(svc), func() { _ = svc.Close() }, nil
	case "documentai":
		x, err := receipt.NewDocumentAIExtractor(ctx, currentConfig())
		if err != nil {
			return nil, nil, handleReceiptError(err, log)
		}
		return x, func() { _ = x.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown processor %q: use ocr or documentai", processor)
	}
}

// scanReceiptsInParallel extracts receipts using a worker pool. Results keep
// the order of files.
func scanReceiptsInParallel(ctx context.Context, files []string, extractor receipt.Extractor, numWorkers int, log zerolog.Logger) []ScanResult {
	jobs := make(chan scanJob, len(files))
	results := make([]ScanResult, len(files))

	var processedCount int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range jobs {
				log.Debug().
					Int("worker", workerID).
					Str("file", job.path).
					Msg("Worker scanning receipt")

				result := scanReceipt(ctx, job.path, extractor)
				results[job.index] = result

				mu.Lock()
				processedCount++
				fmt.Fprintf(os.Stderr, "[%d/%d] %s", processedCount, len(files), result.File)
				if result.err != nil {
					fmt.Fprintf(os.Stderr, " failed (%s)\n", handleReceiptError(result.err, log))
				} else {
					p := result.Receipt.Purchase
					fmt.Fprintf(os.Stderr, " %s %s gal %s\n", p.State, p.Gallons.StringFixed(ifta.GallonPlaces), money.Format(p.AmountPaid))
				}
				mu.Unlock()
			}
		}(w)
	}

	for i, f := range files {
		jobs <- scanJob{path: f, index: i}
	}
	close(jobs)

	wg.Wait()
	return results
}

func scanReceipt(ctx context.Context, path string, extractor receipt.Extractor) ScanResult {
	result := ScanResult{File: filepath.Base(path)}

	f, err := os.Open(path)
	if err != nil {
		result.err = fmt.Errorf("failed to open receipt: %w", err)
		result.Error = result.err.Error()
		return result
	}
	defer f.Close()

	r, err := extractor.Extract(ctx, f)
	if err != nil {
		result.err = err
		result.Error = err.Error()
		return result
	}
	result.Receipt = r
	return result
}

func outputIFTAResult(r *ifta.Result, jsonOutput bool, outputPath string, log zerolog.Logger) error {
	if jsonOutput {
		return outputJSON(r, outputPath, log)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "IFTA return %s\n", r.Quarter)
	if r.MPGUndefined {
		fmt.Fprintf(&b, "Total miles %s, no fuel reported: MPG is undefined and no tax is computed\n", r.TotalMiles.String())
		return writeOutput([]byte(b.String()), outputPath, log)
	}
	fmt.Fprintf(&b, "Miles %s  Gallons %s  MPG %s\n\n", r.TotalMiles.String(), r.TotalGallons.String(), r.MPG.StringFixed(2))
	fmt.Fprintf(&b, "%-4s %10s %12s %12s %8s %12s %12s %12s\n", "Jur", "Miles", "Taxable gal", "Paid gal", "Rate", "Owed", "Paid", "Net")
	for _, j := range r.Jurisdictions {
		fmt.Fprintf(&b, "%-4s %10s %12s %12s %8s %12s %12s %12s\n",
			j.Jurisdiction, j.Miles.String(), j.TaxableGallons.String(), j.TaxPaidGallons.String(), j.TaxRate.String(),
			money.Format(j.TaxOwed), money.Format(j.TaxPaidAtPump), money.Format(j.NetTax))
	}
	fmt.Fprintf(&b, "\nBalances %s  Credits %s  Net due %s\n",
		money.Format(r.TotalBalances), money.Format(r.TotalCredits), money.Format(r.TotalTaxDue))
	return writeOutput([]byte(b.String()), outputPath, log)
}

// handleIFTAError provides user-friendly messages for IFTA calculation failures
func handleIFTAError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("IFTA calculation failed")

	switch {
	case errors.Is(err, ifta.ErrUnknownJurisdiction):
		return fmt.Errorf("a trip or fuel purchase uses a jurisdiction with no IFTA rate this quarter: %w", err)
	default:
		return handleValidationError(err, log)
	}
}
