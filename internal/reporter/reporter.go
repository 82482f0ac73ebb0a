// Package reporter renders reconciliation results for the surrounding
// environment: human-readable console tables, structured JSON, and CSV for
// spreadsheet review. Mismatched rows are marked in every format; how the
// marking is presented is the consumer's business.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"settlement-reconciliation-service/internal/models"
	"settlement-reconciliation-service/internal/reconciler"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Detail level options
	IncludeAllMatched    bool `json:"include_all_matched"`
	IncludeBeforePeriod  bool `json:"include_before_period"`
	MismatchesOnly       bool `json:"mismatches_only"`
	IncludeVatSummary    bool `json:"include_vat_summary"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:            FormatConsole,
		IncludeAllMatched: true,
		IncludeVatSummary: true,
		CSVDelimiter:      ',',
		CSVHeaders:        true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator generates reconciliation reports in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified
// configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{config: config}, nil
}

// GenerateReport renders a reconciliation result to the provided writer
func (rg *ReportGenerator) GenerateReport(result *reconciler.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("reconciliation result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	case FormatCSV:
		return rg.generateCSVReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// generateConsoleReport generates a human-readable console report
func (rg *ReportGenerator) generateConsoleReport(result *reconciler.Result, writer io.Writer) error {
	fmt.Fprintf(writer, "RECONCILIATION REPORT\n")
	fmt.Fprintf(writer, "Generated: %s\n", result.ProcessedAt.Format(time.RFC3339))
	fmt.Fprintf(writer, "Period: %s to %s (by %s)\n\n",
		result.Period.Start.Format("2006-01-02"),
		result.Period.End.Format("2006-01-02"),
		result.DateColumn)

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	rg.printSummary(result, writer)
	fmt.Fprintf(writer, "\n")

	if rg.config.IncludeVatSummary && len(result.VatSummary) > 0 {
		fmt.Fprintf(writer, "=== SUMMARY BY VAT RATE ===\n")
		rg.printVatSummary(result.VatSummary, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeAllMatched {
		fmt.Fprintf(writer, "=== ALL MATCHED ORDERS ===\n")
		rg.printRecords(result.Results.AllMatched, writer)
		fmt.Fprintf(writer, "\n")
	}

	fmt.Fprintf(writer, "=== ORDERS WITHIN PERIOD ===\n")
	rg.printRecords(result.Results.InPeriod, writer)
	fmt.Fprintf(writer, "\n")

	fmt.Fprintf(writer, "=== ORDERS AHEAD OF PERIOD ===\n")
	rg.printRecords(result.Results.AheadOfPeriod, writer)

	if rg.config.IncludeBeforePeriod {
		fmt.Fprintf(writer, "\n=== ORDERS BEFORE PERIOD ===\n")
		rg.printRecords(result.Results.BeforePeriod, writer)
	}

	return nil
}

func (rg *ReportGenerator) printSummary(result *reconciler.Result, writer io.Writer) {
	rs := result.Results
	mismatches := 0
	for _, r := range rs.AllMatched {
		if r.IsMismatch {
			mismatches++
		}
	}

	fmt.Fprintf(writer, "Matched orders:   %d\n", len(rs.AllMatched))
	fmt.Fprintf(writer, "Within period:    %d\n", len(rs.InPeriod))
	fmt.Fprintf(writer, "Ahead of period:  %d\n", len(rs.AheadOfPeriod))
	fmt.Fprintf(writer, "Before period:    %d\n", len(rs.BeforePeriod))
	fmt.Fprintf(writer, "Amount mismatches: %d\n", mismatches)

	if !result.FirstMatched.IsZero() {
		fmt.Fprintf(writer, "First matched %s: %s\n", result.DateColumn, result.FirstMatched.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(writer, "Last matched %s:  %s\n", result.DateColumn, result.LastMatched.Format("2006-01-02 15:04:05"))
	}
}

func (rg *ReportGenerator) printVatSummary(summary reconciler.VatSummary, writer io.Writer) {
	fmt.Fprintf(writer, "%-12s %14s %14s %14s %8s\n", "VAT rate (%)", "Total paid", "Settled", "Difference", "Orders")
	for _, row := range summary {
		rate := row.VATRatePct.String()
		if !row.VATRatePct.Valid {
			rate = "unknown"
		}
		fmt.Fprintf(writer, "%-12s %14s %14s %14s %8d\n",
			rate,
			row.TotalPaidSum.StringFixed(2),
			row.SettledAmountSum.StringFixed(2),
			row.AmountDifferenceSum.StringFixed(2),
			row.RecordCount)
	}
}

func (rg *ReportGenerator) printRecords(records []*models.ReconciledRecord, writer io.Writer) {
	if len(records) == 0 {
		fmt.Fprintf(writer, "(none)\n")
		return
	}

	fmt.Fprintf(writer, "%-12s %12s %12s %12s %-12s %-10s %s\n",
		"Order ID", "Total paid", "Settled", "Difference", "Settled on", "VAT (%)", "Status")

	for _, r := range records {
		if rg.config.MismatchesOnly && !r.IsMismatch {
			continue
		}

		marker := ""
		if r.IsMismatch {
			marker = "  << MISMATCH"
		}

		settledOn := ""
		if !r.SettlementDate.IsZero() {
			settledOn = r.SettlementDate.Format("2006-01-02")
		}

		fmt.Fprintf(writer, "%-12s %12s %12s %12s %-12s %-10s %s%s\n",
			r.OrderID,
			r.TotalPaid.String(),
			r.SettledAmount.String(),
			r.AmountDifference.String(),
			settledOn,
			r.VATRatePct.String(),
			r.SettlementStatus,
			marker)
	}
}

// generateJSONReport generates a structured JSON report
func (rg *ReportGenerator) generateJSONReport(result *reconciler.Result, writer io.Writer) error {
	filtered := *result
	if !rg.config.IncludeAllMatched || !rg.config.IncludeBeforePeriod {
		results := *result.Results
		if !rg.config.IncludeAllMatched {
			results.AllMatched = nil
		}
		if !rg.config.IncludeBeforePeriod {
			results.BeforePeriod = nil
		}
		filtered.Results = &results
	}
	if !rg.config.IncludeVatSummary {
		filtered.VatSummary = nil
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(&filtered)
}

// generateCSVReport generates a CSV report with one row per reconciled
// record, tagged with its period bucket
func (rg *ReportGenerator) generateCSVReport(result *reconciler.Result, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"Bucket",
			"Order_ID",
			"Total_Paid",
			"Settled_Amount",
			"Amount_Difference",
			"Is_Mismatch",
			"VAT_Rate_Pct",
			"Order_Time",
			"Settlement_Date",
			"Settlement_Status",
			"Payment_Transaction_Ref",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	buckets := []struct {
		name    string
		records []*models.ReconciledRecord
	}{
		{"in_period", result.Results.InPeriod},
		{"ahead_of_period", result.Results.AheadOfPeriod},
	}
	if rg.config.IncludeBeforePeriod {
		buckets = append(buckets, struct {
			name    string
			records []*models.ReconciledRecord
		}{"before_period", result.Results.BeforePeriod})
	}

	for _, bucket := range buckets {
		for _, r := range bucket.records {
			if rg.config.MismatchesOnly && !r.IsMismatch {
				continue
			}
			if err := csvWriter.Write(rg.csvRow(bucket.name, r)); err != nil {
				return fmt.Errorf("failed to write record: %w", err)
			}
		}
	}

	return nil
}

func (rg *ReportGenerator) csvRow(bucket string, r *models.ReconciledRecord) []string {
	orderTime := ""
	if !r.OrderTime.IsZero() {
		orderTime = r.OrderTime.Format("2006-01-02 15:04:05")
	}
	settlementDate := ""
	if !r.SettlementDate.IsZero() {
		settlementDate = r.SettlementDate.Format("2006-01-02")
	}

	return []string{
		bucket,
		r.OrderID,
		r.TotalPaid.String(),
		r.SettledAmount.String(),
		r.AmountDifference.String(),
		fmt.Sprintf("%t", r.IsMismatch),
		r.VATRatePct.String(),
		orderTime,
		settlementDate,
		r.SettlementStatus,
		r.PaymentTransactionRef,
	}
}
