package reconciler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settlement-reconciliation-service/internal/models"
	"settlement-reconciliation-service/pkg/errors"
)

func wgrRow(id string, exclVAT, vat float64, orderTime time.Time) *models.OrderRecord {
	return &models.OrderRecord{
		OrderID:       id,
		PaymentMethod: "QLIROCHECKOUT",
		AmountExclVAT: models.MoneyFromFloat(exclVAT),
		VATAmount:     models.MoneyFromFloat(vat),
		VATRatePct:    models.MoneyFromFloat(25),
		OrderTime:     orderTime,
	}
}

func qliroRow(id string, amount float64, settled time.Time) *models.SettlementRecord {
	return &models.SettlementRecord{
		OrderID:        id,
		Amount:         models.MoneyFromFloat(amount),
		SettlementDate: settled,
	}
}

func marchParams() Params {
	return Params{
		StartDate:  day(2024, 3, 1),
		EndDate:    day(2024, 3, 31),
		DateColumn: models.DateColumnSettlement,
	}
}

func TestServiceEndToEnd(t *testing.T) {
	service := NewService()

	orders := []*models.OrderRecord{
		wgrRow("1001", 80, 20, day(2024, 3, 5)),
		wgrRow("1002", 40, 10, day(2024, 3, 6)),
	}
	settlements := []*models.SettlementRecord{
		qliroRow("WGR1001", 100.00, day(2024, 3, 10)),
		qliroRow("WGR1002", 45.00, day(2024, 4, 2)),
	}

	result, err := service.Reconcile(orders, settlements, marchParams())
	require.NoError(t, err)

	require.Len(t, result.Results.AllMatched, 2)

	byID := map[string]*models.ReconciledRecord{}
	for _, r := range result.Results.AllMatched {
		byID[r.OrderID] = r
	}

	assert.False(t, byID["1001"].IsMismatch)
	assert.Equal(t, "0.00", byID["1001"].AmountDifference.String())

	assert.True(t, byID["1002"].IsMismatch)
	assert.Equal(t, "5.00", byID["1002"].AmountDifference.String())

	// 1001 settled in March, 1002 settled in April
	require.Len(t, result.Results.InPeriod, 1)
	assert.Equal(t, "1001", result.Results.InPeriod[0].OrderID)
	require.Len(t, result.Results.AheadOfPeriod, 1)
	assert.Equal(t, "1002", result.Results.AheadOfPeriod[0].OrderID)

	// Both orders share the 25% rate
	require.Len(t, result.VatSummary, 1)
	assert.Equal(t, "25.00", result.VatSummary[0].VATRatePct.String())
	assert.Equal(t, "150.00", result.VatSummary[0].TotalPaidSum.StringFixed(2))

	assert.Equal(t, day(2024, 3, 10), result.FirstMatched)
	assert.Equal(t, day(2024, 4, 2), result.LastMatched)
}

func TestServiceExcludesOtherPaymentMethods(t *testing.T) {
	service := NewService()

	invoice := wgrRow("1001", 80, 20, day(2024, 3, 5))
	invoice.PaymentMethod = "INVOICE"

	result, err := service.Reconcile(
		[]*models.OrderRecord{invoice},
		[]*models.SettlementRecord{qliroRow("WGR1001", 100, day(2024, 3, 10))},
		marchParams(),
	)
	require.NoError(t, err)

	assert.Empty(t, result.Results.AllMatched,
		"non-checkout rows must never appear in any bucket regardless of settlement contents")
	assert.Empty(t, result.Results.InPeriod)
	assert.Empty(t, result.Results.AheadOfPeriod)
}

func TestServiceZeroTotalFallback(t *testing.T) {
	service := NewService()

	o := wgrRow("1001", 0, 0, day(2024, 3, 5))
	o.UnitPriceExclVAT = models.MoneyFromFloat(80)

	result, err := service.Reconcile(
		[]*models.OrderRecord{o},
		[]*models.SettlementRecord{qliroRow("WGR1001", 100, day(2024, 3, 10))},
		marchParams(),
	)
	require.NoError(t, err)

	require.Len(t, result.Results.AllMatched, 1)
	r := result.Results.AllMatched[0]
	assert.Equal(t, "100.00", r.TotalPaid.String(), "fallback: 80 * (1 + 25/100)")
	assert.False(t, r.IsMismatch)
}

func TestServiceInvalidRange(t *testing.T) {
	service := NewService()

	params := marchParams()
	params.StartDate, params.EndDate = params.EndDate, params.StartDate

	_, err := service.Reconcile(nil, nil, params)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRangeError(err))
}

func TestServiceInvalidDateColumn(t *testing.T) {
	service := NewService()

	params := marchParams()
	params.DateColumn = "created-at"

	_, err := service.Reconcile(nil, nil, params)
	require.Error(t, err)

	re, ok := errors.AsReconcilerError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeInvalidConfig, re.Code)
}

func TestServiceEmptyIntersectionIsNotAnError(t *testing.T) {
	service := NewService()

	result, err := service.Reconcile(
		[]*models.OrderRecord{wgrRow("1001", 80, 20, day(2024, 3, 5))},
		[]*models.SettlementRecord{qliroRow("WGR9999", 100, day(2024, 3, 10))},
		marchParams(),
	)
	require.NoError(t, err)
	assert.Empty(t, result.Results.AllMatched)
	assert.Empty(t, result.VatSummary)
	assert.True(t, result.FirstMatched.IsZero())
}

func TestServiceDoesNotMutateInputs(t *testing.T) {
	service := NewService()

	orders := []*models.OrderRecord{wgrRow("1001", 80, 20, day(2024, 3, 5))}
	settlements := []*models.SettlementRecord{qliroRow("WGR1001", 100, day(2024, 3, 10))}

	_, err := service.Reconcile(orders, settlements, marchParams())
	require.NoError(t, err)

	assert.Equal(t, "WGR1001", settlements[0].OrderID, "caller's settlement id must keep its prefix")
	assert.False(t, orders[0].TotalPaid.Valid, "caller's order must not gain the derived total")
}

func TestServiceJoinCorrectnessProperty(t *testing.T) {
	service := NewService()

	orders := []*models.OrderRecord{
		wgrRow("1", 10, 2.5, day(2024, 3, 1)),
		wgrRow("2", 20, 5, day(2024, 3, 2)),
		wgrRow("3", 30, 7.5, day(2024, 3, 3)),
	}
	settlements := []*models.SettlementRecord{
		qliroRow("WGR2", 25, day(2024, 3, 5)),
		qliroRow("WGR3", 37.5, day(2024, 3, 6)),
		qliroRow("WGR4", 50, day(2024, 3, 7)),
	}

	result, err := service.Reconcile(orders, settlements, marchParams())
	require.NoError(t, err)

	orderIDs := map[string]bool{"1": true, "2": true, "3": true}
	settlementIDs := map[string]bool{"2": true, "3": true, "4": true}

	require.Len(t, result.Results.AllMatched, 2)
	for _, r := range result.Results.AllMatched {
		assert.True(t, orderIDs[r.OrderID] && settlementIDs[r.OrderID],
			"reconciled id %s must exist on both sides after normalization", r.OrderID)
	}
}

func TestParamsValidate(t *testing.T) {
	params := marchParams()
	assert.NoError(t, params.Validate())

	bad := marchParams()
	bad.DateColumn = "nope"
	assert.Error(t, bad.Validate())

	swapped := marchParams()
	swapped.StartDate, swapped.EndDate = swapped.EndDate, swapped.StartDate
	assert.Error(t, swapped.Validate())
}
