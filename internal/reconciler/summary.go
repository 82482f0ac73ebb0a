package reconciler

import (
	"sort"

	"github.com/shopspring/decimal"

	"settlement-reconciliation-service/internal/models"
)

// VatSummaryRow aggregates the records sharing one VAT rate. Records whose
// rate could not be coerced form their own row with an invalid rate, so no
// order disappears from the summary.
type VatSummaryRow struct {
	VATRatePct          models.Money    `json:"vat_rate_pct"`
	TotalPaidSum        decimal.Decimal `json:"total_paid_sum"`
	SettledAmountSum    decimal.Decimal `json:"settled_amount_sum"`
	AmountDifferenceSum decimal.Decimal `json:"amount_difference_sum"`
	RecordCount         int             `json:"record_count"`
}

// VatSummary is the per-VAT-rate aggregate table, sorted by rate ascending
// with the unknown-rate row last.
type VatSummary []*VatSummaryRow

// Summarize groups reconciled records by VAT rate and sums the paid,
// settled, and difference amounts per group, each rounded to 2 decimal
// places. Invalid member amounts are skipped inside a sum but their records
// still count toward the group.
func Summarize(records []*models.ReconciledRecord) VatSummary {
	groups := make(map[string]*VatSummaryRow)

	for _, r := range records {
		key := rateKey(r.VATRatePct)
		row, ok := groups[key]
		if !ok {
			row = &VatSummaryRow{VATRatePct: r.VATRatePct.Round2()}
			groups[key] = row
		}

		row.RecordCount++
		if r.TotalPaid.Valid {
			row.TotalPaidSum = row.TotalPaidSum.Add(r.TotalPaid.Value)
		}
		if r.SettledAmount.Valid {
			row.SettledAmountSum = row.SettledAmountSum.Add(r.SettledAmount.Value)
		}
		if r.AmountDifference.Valid {
			row.AmountDifferenceSum = row.AmountDifferenceSum.Add(r.AmountDifference.Value)
		}
	}

	summary := make(VatSummary, 0, len(groups))
	for _, row := range groups {
		row.TotalPaidSum = row.TotalPaidSum.Round(2)
		row.SettledAmountSum = row.SettledAmountSum.Round(2)
		row.AmountDifferenceSum = row.AmountDifferenceSum.Round(2)
		summary = append(summary, row)
	}

	sort.Slice(summary, func(i, j int) bool {
		a, b := summary[i].VATRatePct, summary[j].VATRatePct
		if a.Valid != b.Valid {
			return a.Valid // unknown-rate row sorts last
		}
		if !a.Valid {
			return false
		}
		return a.Value.LessThan(b.Value)
	})

	return summary
}

func rateKey(rate models.Money) string {
	if !rate.Valid {
		return "unknown"
	}
	return rate.Value.Round(2).String()
}
