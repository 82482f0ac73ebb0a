// Package matcher performs the identity join between the two normalized
// ledgers. The join is a plain relational inner join on the canonical order
// id: only ids present on both sides survive, and duplicate ids on either
// side yield the full cross product of pairings. Unmatched rows are
// silently excluded, which is a documented limitation of this engine, not
// an error condition.
package matcher

import (
	"settlement-reconciliation-service/internal/models"
)

// Join inner-joins normalized order and settlement records on order id,
// producing reconciled-record shells carrying all source columns. The
// reconciliation fields are left unset for the reconciler to fill.
//
// Output pairing is stable: orders in input order, and within one order id
// the settlements in their input order. An empty intersection yields an
// empty slice, never an error.
func Join(orders []*models.OrderRecord, settlements []*models.SettlementRecord) []*models.ReconciledRecord {
	index := NewSettlementIndex(settlements)

	var merged []*models.ReconciledRecord
	for _, order := range orders {
		for _, settlement := range index.Get(order.OrderID) {
			merged = append(merged, newShell(order, settlement))
		}
	}

	return merged
}

// newShell merges one order row with one settlement row, dropping the
// duplicate join key
func newShell(order *models.OrderRecord, settlement *models.SettlementRecord) *models.ReconciledRecord {
	return &models.ReconciledRecord{
		OrderID: order.OrderID,

		AmountExclVAT:    order.AmountExclVAT,
		VATAmount:        order.VATAmount,
		UnitPriceExclVAT: order.UnitPriceExclVAT,
		VATRatePct:       order.VATRatePct,
		OrderTime:        order.OrderTime,
		TotalPaid:        order.TotalPaid,

		SettledAmount:         settlement.Amount,
		SettlementStatus:      settlement.SettlementStatus,
		SettlementDate:        settlement.SettlementDate,
		TransactionEndDate:    settlement.TransactionEndDate,
		PaymentTransactionRef: settlement.PaymentTransactionRef,
	}
}
