// Package normalizer projects the raw export rows into the canonical form
// the matcher joins on. It applies the checkout-provider filter on the
// order side, strips the warehouse-system prefix from settlement order ids,
// and derives each order's total paid amount.
//
// All functions are pure: inputs are copied, never mutated, so callers may
// reuse their slices and run normalizations concurrently.
package normalizer

import (
	"strings"

	"settlement-reconciliation-service/internal/models"
)

const (
	// CheckoutProviderMarker is the payment method value that selects the
	// order rows participating in reconciliation. Rows with any other
	// payment method are discarded before matching.
	CheckoutProviderMarker = "QLIROCHECKOUT"

	// SettlementOrderPrefix is the warehouse-system token the settlement
	// provider prepends to the external order number.
	SettlementOrderPrefix = "WGR"
)

// NormalizeOrders filters the warehouse export down to checkout-provider
// rows, canonicalizes the join key, and derives the total paid amount.
func NormalizeOrders(orders []*models.OrderRecord) []*models.OrderRecord {
	normalized := make([]*models.OrderRecord, 0, len(orders))

	for _, order := range orders {
		if strings.TrimSpace(order.PaymentMethod) != CheckoutProviderMarker {
			continue
		}

		o := order.Clone()
		o.OrderID = strings.TrimSpace(o.OrderID)
		o.TotalPaid = deriveTotalPaid(o)
		normalized = append(normalized, o)
	}

	return normalized
}

// NormalizeSettlements canonicalizes settlement order ids by stripping the
// fixed warehouse-system prefix so both sides join on the same key domain.
func NormalizeSettlements(settlements []*models.SettlementRecord) []*models.SettlementRecord {
	normalized := make([]*models.SettlementRecord, 0, len(settlements))

	for _, settlement := range settlements {
		s := settlement.Clone()
		s.OrderID = strings.TrimPrefix(strings.TrimSpace(s.OrderID), SettlementOrderPrefix)
		normalized = append(normalized, s)
	}

	return normalized
}

// deriveTotalPaid computes amount excl. VAT plus VAT. When the primary
// totals sum to exactly zero the amount is recomputed from the unit price
// and the VAT rate, covering rows whose totals were not populated upstream.
func deriveTotalPaid(o *models.OrderRecord) models.Money {
	total := o.AmountExclVAT.Add(o.VATAmount)
	if !total.IsZero() {
		return total
	}

	rate := o.VATRatePct.Mul(models.MoneyFromFloat(0.01))
	return o.UnitPriceExclVAT.Mul(models.MoneyFromFloat(1).Add(rate))
}
