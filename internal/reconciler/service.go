package reconciler

import (
	"time"

	"settlement-reconciliation-service/internal/matcher"
	"settlement-reconciliation-service/internal/models"
	"settlement-reconciliation-service/internal/normalizer"
	"settlement-reconciliation-service/pkg/errors"
	"settlement-reconciliation-service/pkg/logger"
)

// Params are the caller-supplied control parameters for one reconciliation
// run. StartDate and EndDate are inclusive calendar dates; DateColumn picks
// which timestamp drives period classification.
type Params struct {
	StartDate  time.Time
	EndDate    time.Time
	DateColumn models.DateColumn
}

// Validate checks the parameters without running the pipeline
func (p *Params) Validate() error {
	if !p.DateColumn.IsValid() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "date_column", p.DateColumn.String(), nil)
	}
	_, err := NewPeriod(p.StartDate, p.EndDate)
	return err
}

// Result is the complete output of one reconciliation run
type Result struct {
	Results    *ResultSet `json:"results"`
	VatSummary VatSummary `json:"vat_summary"`

	// First and last matched timestamps for the selected date column,
	// zero when nothing matched
	FirstMatched time.Time `json:"first_matched,omitempty"`
	LastMatched  time.Time `json:"last_matched,omitempty"`

	DateColumn  models.DateColumn `json:"date_column"`
	Period      Period            `json:"period"`
	ProcessedAt time.Time         `json:"processed_at"`
}

// Service runs the reconciliation pipeline: normalize both ledgers, join
// them, evaluate amount equality, classify by period, and aggregate by VAT
// rate. Each invocation works on its own copies of the inputs and holds no
// state between runs, so concurrent calls are safe.
type Service struct {
	logger logger.Logger
}

// NewService creates a reconciliation service
func NewService() *Service {
	return &Service{
		logger: logger.GetGlobalLogger().WithComponent("reconciler"),
	}
}

// Reconcile processes one pair of parsed ledgers to completion. The input
// slices are never mutated. An empty match set is a valid result; the only
// failure modes are invalid parameters.
func (s *Service) Reconcile(
	orders []*models.OrderRecord,
	settlements []*models.SettlementRecord,
	params Params,
) (*Result, error) {

	if !params.DateColumn.IsValid() {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig, "date_column", params.DateColumn.String(), nil,
		).WithSuggestion("use settlement-date or order-time")
	}

	period, err := NewPeriod(params.StartDate, params.EndDate)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logger.Fields{
		"orders":      len(orders),
		"settlements": len(settlements),
		"date_column": params.DateColumn.String(),
		"start":       period.Start.Format("2006-01-02"),
		"end":         period.End.Format("2006-01-02"),
	}).Info("Starting reconciliation")

	normalizedOrders := normalizer.NormalizeOrders(orders)
	normalizedSettlements := normalizer.NormalizeSettlements(settlements)

	merged := matcher.Join(normalizedOrders, normalizedSettlements)
	merged = ReconcileAmounts(merged)

	resultSet := Classify(merged, params.DateColumn, period)
	summary := Summarize(resultSet.AllMatched)

	result := &Result{
		Results:     resultSet,
		VatSummary:  summary,
		DateColumn:  params.DateColumn,
		Period:      period,
		ProcessedAt: time.Now(),
	}
	result.FirstMatched, result.LastMatched = matchedBounds(resultSet.AllMatched, params.DateColumn)

	s.logger.WithFields(logger.Fields{
		"matched":    len(resultSet.AllMatched),
		"in_period":  len(resultSet.InPeriod),
		"ahead":      len(resultSet.AheadOfPeriod),
		"before":     len(resultSet.BeforePeriod),
		"mismatches": countMismatches(resultSet.AllMatched),
	}).Info("Reconciliation complete")

	return result, nil
}

// matchedBounds finds the earliest and latest timestamps of the selected
// date column across the matched records
func matchedBounds(records []*models.ReconciledRecord, column models.DateColumn) (time.Time, time.Time) {
	var first, last time.Time
	for _, r := range records {
		d := r.DateFor(column)
		if d.IsZero() {
			continue
		}
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if last.IsZero() || d.After(last) {
			last = d
		}
	}
	return first, last
}

func countMismatches(records []*models.ReconciledRecord) int {
	n := 0
	for _, r := range records {
		if r.IsMismatch {
			n++
		}
	}
	return n
}
