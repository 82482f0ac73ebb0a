// Package reconciler contains the amount-equality evaluation, the temporal
// classification of matched orders against a reporting period, and the VAT
// aggregation, composed into a single pipeline by Service.
package reconciler

import (
	"github.com/shopspring/decimal"

	"settlement-reconciliation-service/internal/models"
)

// amountTolerance is the fixed mismatch threshold in currency units. It is
// deliberately not configurable in this engine; whether it should become a
// caller setting is a product decision.
var amountTolerance = decimal.RequireFromString("0.01")

// ReconcileAmounts fills the amount difference and mismatch flag on each
// merged record. Both source amounts are rounded to 2 decimal places before
// the difference is computed and the difference is rounded again; rounding
// first keeps binary floating-point noise in the sources from producing
// false mismatches.
//
// A record whose total paid or settled amount is invalid gets an invalid
// difference and is always flagged as a mismatch.
func ReconcileAmounts(records []*models.ReconciledRecord) []*models.ReconciledRecord {
	for _, r := range records {
		r.TotalPaid = r.TotalPaid.Round2()
		r.SettledAmount = r.SettledAmount.Round2()
		r.AmountDifference = r.TotalPaid.Sub(r.SettledAmount).Round2()
		r.IsMismatch = isMismatch(r.AmountDifference)
	}

	return records
}

// isMismatch reports whether the difference exceeds the fixed tolerance.
// Invalid differences always classify as mismatching.
func isMismatch(difference models.Money) bool {
	if !difference.Valid {
		return true
	}
	return difference.Value.Abs().GreaterThan(amountTolerance)
}
