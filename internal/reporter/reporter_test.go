package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settlement-reconciliation-service/internal/models"
	"settlement-reconciliation-service/internal/reconciler"
)

func money(s string) models.Money {
	return models.MoneyFromDecimal(decimal.RequireFromString(s))
}

func sampleResult(t *testing.T) *reconciler.Result {
	t.Helper()

	matched := &models.ReconciledRecord{
		OrderID:          "1001",
		TotalPaid:        money("100.00"),
		SettledAmount:    money("100.00"),
		AmountDifference: money("0.00"),
		IsMismatch:       false,
		VATRatePct:       money("25"),
		OrderTime:        time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC),
		SettlementDate:   time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		SettlementStatus: "Settled",
	}
	mismatched := &models.ReconciledRecord{
		OrderID:          "1002",
		TotalPaid:        money("250.00"),
		SettledAmount:    money("240.00"),
		AmountDifference: money("10.00"),
		IsMismatch:       true,
		VATRatePct:       money("25"),
		OrderTime:        time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
		SettlementDate:   time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
		SettlementStatus: "Settled",
	}

	period, err := reconciler.NewPeriod(
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	return &reconciler.Result{
		Results: &reconciler.ResultSet{
			AllMatched:    []*models.ReconciledRecord{matched, mismatched},
			InPeriod:      []*models.ReconciledRecord{matched},
			AheadOfPeriod: []*models.ReconciledRecord{mismatched},
		},
		VatSummary: reconciler.VatSummary{
			{
				VATRatePct:          money("25"),
				TotalPaidSum:        decimal.RequireFromString("350.00"),
				SettledAmountSum:    decimal.RequireFromString("340.00"),
				AmountDifferenceSum: decimal.RequireFromString("10.00"),
				RecordCount:         2,
			},
		},
		FirstMatched: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		LastMatched:  time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
		DateColumn:   models.DateColumnSettlement,
		Period:       period,
		ProcessedAt:  time.Date(2024, 4, 5, 10, 0, 0, 0, time.UTC),
	}
}

func TestNewReportGeneratorDefaults(t *testing.T) {
	rg, err := NewReportGenerator(nil)
	require.NoError(t, err)
	assert.Equal(t, FormatConsole, rg.config.Format)
	assert.True(t, rg.config.IncludeVatSummary)
}

func TestNewReportGeneratorRejectsInvalidFormat(t *testing.T) {
	_, err := NewReportGenerator(&ReportConfig{Format: "xml"})
	assert.Error(t, err)
}

func TestConsoleReport(t *testing.T) {
	rg, err := NewReportGenerator(DefaultReportConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rg.GenerateReport(sampleResult(t), &buf))
	out := buf.String()

	assert.Contains(t, out, "RECONCILIATION REPORT")
	assert.Contains(t, out, "Period: 2024-03-01 to 2024-03-31")
	assert.Contains(t, out, "Matched orders:   2")
	assert.Contains(t, out, "Within period:    1")
	assert.Contains(t, out, "Ahead of period:  1")
	assert.Contains(t, out, "Amount mismatches: 1")
	assert.Contains(t, out, "SUMMARY BY VAT RATE")
	assert.Contains(t, out, "1001")
	assert.Contains(t, out, "1002")
	assert.Contains(t, out, "<< MISMATCH")
}

func TestConsoleReportMismatchesOnly(t *testing.T) {
	config := DefaultReportConfig()
	config.MismatchesOnly = true
	rg, err := NewReportGenerator(config)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rg.GenerateReport(sampleResult(t), &buf))
	out := buf.String()

	assert.Contains(t, out, "1002")
	// 1001 only appears through record listings, all of which filter it out
	lines := strings.Split(out, "\n")
	for _, line := range lines {
		if strings.HasPrefix(line, "1001") {
			t.Errorf("matched record should be filtered out, got line: %s", line)
		}
	}
}

func TestJSONReport(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatJSON
	rg, err := NewReportGenerator(config)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rg.GenerateReport(sampleResult(t), &buf))

	var decoded reconciler.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	require.NotNil(t, decoded.Results)
	assert.Len(t, decoded.Results.AllMatched, 2)
	assert.Len(t, decoded.Results.InPeriod, 1)
	assert.Len(t, decoded.VatSummary, 1)
	assert.Equal(t, models.DateColumnSettlement, decoded.DateColumn)
}

func TestJSONReportExcludesSections(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatJSON
	config.IncludeAllMatched = false
	config.IncludeVatSummary = false
	rg, err := NewReportGenerator(config)
	require.NoError(t, err)

	original := sampleResult(t)
	var buf bytes.Buffer
	require.NoError(t, rg.GenerateReport(original, &buf))

	var decoded reconciler.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Empty(t, decoded.Results.AllMatched)
	assert.Empty(t, decoded.VatSummary)

	// the caller's result must not be modified by filtering
	assert.Len(t, original.Results.AllMatched, 2)
	assert.Len(t, original.VatSummary, 1)
}

func TestCSVReport(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatCSV
	rg, err := NewReportGenerator(config)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rg.GenerateReport(sampleResult(t), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + in_period + ahead_of_period

	assert.Equal(t, "Bucket", records[0][0])
	assert.Equal(t, "in_period", records[1][0])
	assert.Equal(t, "1001", records[1][1])
	assert.Equal(t, "ahead_of_period", records[2][0])
	assert.Equal(t, "1002", records[2][1])
	assert.Equal(t, "true", records[2][5])
	assert.Equal(t, "10.00", records[2][4])
}

func TestCSVReportCustomDelimiter(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatCSV
	config.CSVDelimiter = ';'
	rg, err := NewReportGenerator(config)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rg.GenerateReport(sampleResult(t), &buf))

	reader := csv.NewReader(&buf)
	reader.Comma = ';'
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
}

func TestGenerateReportNilResult(t *testing.T) {
	rg, err := NewReportGenerator(nil)
	require.NoError(t, err)
	assert.Error(t, rg.GenerateReport(nil, &bytes.Buffer{}))
}
