// Package config assembles the parser, reconciliation, and report
// configurations for the CLI from flag values.
package config

import (
	"time"

	"settlement-reconciliation-service/internal/models"
	"settlement-reconciliation-service/internal/parsers"
	"settlement-reconciliation-service/internal/reconciler"
	"settlement-reconciliation-service/internal/reporter"
	"settlement-reconciliation-service/pkg/errors"
)

// CreateWGRParserConfig creates the parser configuration for the warehouse
// order export
func CreateWGRParserConfig(utf16 bool) *parsers.WGRParserConfig {
	config := parsers.DefaultWGRParserConfig()
	config.UTF16 = utf16
	return config
}

// CreateQliroParserConfig creates the parser configuration for the payment
// provider settlement export
func CreateQliroParserConfig() *parsers.QliroParserConfig {
	return parsers.DefaultQliroParserConfig()
}

// DefaultPeriod returns the current calendar month of the reference time,
// the period used when no dates are given on the command line
func DefaultPeriod(now time.Time) (start, end time.Time) {
	start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end = start.AddDate(0, 1, -1)
	return start, end
}

// CreateReconcileParams builds reconciliation parameters from raw flag
// values. Empty dates fall back to the current calendar month; a date column
// the pipeline does not know is rejected here rather than mid-run.
func CreateReconcileParams(startDate, endDate, dateColumn string, now time.Time) (reconciler.Params, error) {
	column, err := models.ParseDateColumn(dateColumn)
	if err != nil {
		return reconciler.Params{}, errors.ConfigurationError(
			errors.CodeInvalidConfig, "date-column", dateColumn, err,
		).WithSuggestion("use settlement-date or order-time")
	}

	start, end := DefaultPeriod(now)
	if startDate != "" {
		start, err = time.Parse("2006-01-02", startDate)
		if err != nil {
			return reconciler.Params{}, errors.ConfigurationError(
				errors.CodeInvalidConfig, "start-date", startDate, err,
			).WithSuggestion("use the YYYY-MM-DD format")
		}
	}
	if endDate != "" {
		end, err = time.Parse("2006-01-02", endDate)
		if err != nil {
			return reconciler.Params{}, errors.ConfigurationError(
				errors.CodeInvalidConfig, "end-date", endDate, err,
			).WithSuggestion("use the YYYY-MM-DD format")
		}
	}

	return reconciler.Params{
		StartDate:  start,
		EndDate:    end,
		DateColumn: column,
	}, nil
}

// CreateReportConfig creates a report configuration for the specified
// output format
func CreateReportConfig(format string, mismatchesOnly, includeBeforePeriod bool) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()
	config.MismatchesOnly = mismatchesOnly
	config.IncludeBeforePeriod = includeBeforePeriod

	switch format {
	case "json":
		config.Format = reporter.FormatJSON
		config.IncludeAllMatched = false // keep JSON output focused on the buckets
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = ','
		config.IncludeVatSummary = false // CSV is for record data
	default:
		config.Format = reporter.FormatConsole
	}

	return config
}
