package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"settlement-reconciliation-service/cmd/reconciler/config"
	"settlement-reconciliation-service/internal/parsers"
	"settlement-reconciliation-service/internal/reconciler"
	"settlement-reconciliation-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	wgrFile      string
	qliroFile    string
	outputFormat string
	outputFile   string
	startDate    string
	endDate      string
	dateColumn   string

	wgrUTF16            bool
	mismatchesOnly      bool
	includeBeforePeriod bool
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile warehouse orders with settlement records",
	Long: `Reconcile matches warehouse order records against payment provider
settlement records, compares the paid and settled amounts, and classifies
each match against the reporting period.

This command requires:
- A warehouse order export (tab-separated, UTF-16)
- A settlement export (semicolon-separated CSV)

When no dates are given the current calendar month is used.

Examples:
  # Reconcile the current month
  reconciler reconcile --wgr-file orders.txt --qliro-file settlements.csv

  # Explicit period, classified by order time instead of settlement date
  reconciler reconcile --wgr-file orders.txt --qliro-file settlements.csv \
    --start-date 2024-03-01 --end-date 2024-03-31 --date-column order-time

  # Machine-readable output
  reconciler reconcile --wgr-file orders.txt --qliro-file settlements.csv \
    --output-format json --output-file report.json

  # Only rows where the amounts disagree
  reconciler reconcile --wgr-file orders.txt --qliro-file settlements.csv \
    --mismatches-only`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&wgrFile, "wgr-file", "w", "", "path to warehouse order export (required)")
	reconcileCmd.Flags().StringVarP(&qliroFile, "qliro-file", "q", "", "path to settlement export (required)")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Period flags
	reconcileCmd.Flags().StringVar(&startDate, "start-date", "", "period start date (YYYY-MM-DD, default: first of current month)")
	reconcileCmd.Flags().StringVar(&endDate, "end-date", "", "period end date (YYYY-MM-DD, default: last of current month)")
	reconcileCmd.Flags().StringVarP(&dateColumn, "date-column", "d", "settlement-date", "date column for period classification: settlement-date, order-time")

	// Input format flags
	reconcileCmd.Flags().BoolVar(&wgrUTF16, "wgr-utf16", true, "decode the warehouse export as UTF-16")

	// Report detail flags
	reconcileCmd.Flags().BoolVar(&mismatchesOnly, "mismatches-only", false, "only list records where amounts disagree")
	reconcileCmd.Flags().BoolVar(&includeBeforePeriod, "include-before-period", false, "include records dated before the period in the report")

	// Mark required flags
	reconcileCmd.MarkFlagRequired("wgr-file")
	reconcileCmd.MarkFlagRequired("qliro-file")

	// Bind flags to viper
	viper.BindPFlag("wgr-file", reconcileCmd.Flags().Lookup("wgr-file"))
	viper.BindPFlag("qliro-file", reconcileCmd.Flags().Lookup("qliro-file"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("start-date", reconcileCmd.Flags().Lookup("start-date"))
	viper.BindPFlag("end-date", reconcileCmd.Flags().Lookup("end-date"))
	viper.BindPFlag("date-column", reconcileCmd.Flags().Lookup("date-column"))
	viper.BindPFlag("wgr-utf16", reconcileCmd.Flags().Lookup("wgr-utf16"))
	viper.BindPFlag("mismatches-only", reconcileCmd.Flags().Lookup("mismatches-only"))
	viper.BindPFlag("include-before-period", reconcileCmd.Flags().Lookup("include-before-period"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	wgrFile = viper.GetString("wgr-file")
	qliroFile = viper.GetString("qliro-file")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	startDate = viper.GetString("start-date")
	endDate = viper.GetString("end-date")
	dateColumn = viper.GetString("date-column")
	wgrUTF16 = viper.GetBool("wgr-utf16")
	mismatchesOnly = viper.GetBool("mismatches-only")
	includeBeforePeriod = viper.GetBool("include-before-period")

	// Validate required flags
	if wgrFile == "" {
		return fmt.Errorf("wgr-file is required")
	}
	if qliroFile == "" {
		return fmt.Errorf("qliro-file is required")
	}

	// Validate file existence
	if err := validateFileExists(wgrFile, "warehouse order export"); err != nil {
		return err
	}
	if err := validateFileExists(qliroFile, "settlement export"); err != nil {
		return err
	}

	// Validate output format
	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	// Validate dates
	if startDate != "" {
		if _, err := time.Parse("2006-01-02", startDate); err != nil {
			return fmt.Errorf("invalid start date format. Use YYYY-MM-DD: %w", err)
		}
	}
	if endDate != "" {
		if _, err := time.Parse("2006-01-02", endDate); err != nil {
			return fmt.Errorf("invalid end date format. Use YYYY-MM-DD: %w", err)
		}
	}

	// Validate output file directory exists if specified
	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	// Check if file is readable
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting reconciliation...\n")
		fmt.Fprintf(os.Stderr, "Warehouse export: %s\n", wgrFile)
		fmt.Fprintf(os.Stderr, "Settlement export: %s\n", qliroFile)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	// Build parameters before touching the files
	params, err := config.CreateReconcileParams(startDate, endDate, dateColumn, time.Now())
	if err != nil {
		return err
	}

	// Parse both exports
	wgrParser := parsers.NewWGRParser(config.CreateWGRParserConfig(wgrUTF16))
	orders, orderStats, err := wgrParser.ParseFile(wgrFile)
	if err != nil {
		return err
	}

	qliroParser := parsers.NewQliroParser(config.CreateQliroParserConfig())
	settlements, settlementStats, err := qliroParser.ParseFile(qliroFile)
	if err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Parsed %d order rows (%d skipped), %d settlement rows (%d skipped).\n",
			orderStats.ParsedRows, orderStats.SkippedRows,
			settlementStats.ParsedRows, settlementStats.SkippedRows)
	}

	// Run the pipeline
	service := reconciler.NewService()
	result, err := service.Reconcile(orders, settlements, params)
	if err != nil {
		return err
	}

	// Generate report
	reportConfig := config.CreateReportConfig(outputFormat, mismatchesOnly, includeBeforePeriod)
	reportGenerator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	// Determine output destination
	var output *os.File
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	if err := reportGenerator.GenerateReport(result, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nReconciliation completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Matched %d orders: %d within period, %d ahead, %d before.\n",
			len(result.Results.AllMatched), len(result.Results.InPeriod),
			len(result.Results.AheadOfPeriod), len(result.Results.BeforePeriod))
	}

	return nil
}
