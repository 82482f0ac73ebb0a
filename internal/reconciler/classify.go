package reconciler

import (
	"time"

	"settlement-reconciliation-service/internal/models"
	"settlement-reconciliation-service/pkg/errors"
)

// Period is an inclusive reporting date range. Both bounds are calendar
// dates; construction normalizes them to 00:00:00.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod builds a period from inclusive start and end dates. A start
// after the end is a caller input error; the engine does not correct it.
func NewPeriod(start, end time.Time) (Period, error) {
	start = models.StartOfDay(start)
	end = models.StartOfDay(end)

	if start.After(end) {
		return Period{}, errors.InvalidRangeError(start, end)
	}

	return Period{Start: start, End: end}, nil
}

// ResultSet groups the reconciled records by their position relative to the
// reporting period. InPeriod, AheadOfPeriod, and BeforePeriod partition
// AllMatched; the three buckets are pairwise disjoint.
type ResultSet struct {
	AllMatched    []*models.ReconciledRecord `json:"all_matched"`
	InPeriod      []*models.ReconciledRecord `json:"in_period"`
	AheadOfPeriod []*models.ReconciledRecord `json:"ahead_of_period"`
	BeforePeriod  []*models.ReconciledRecord `json:"before_period"`
}

// Classify partitions reconciled records into period buckets using the
// caller-selected date column. Record timestamps are compared at calendar
// day precision, matching the precision of the period bounds: in-period is
// inclusive on both ends, ahead-of-period is strictly after the end with
// no upper bound.
func Classify(records []*models.ReconciledRecord, column models.DateColumn, period Period) *ResultSet {
	rs := &ResultSet{
		AllMatched:    records,
		InPeriod:      []*models.ReconciledRecord{},
		AheadOfPeriod: []*models.ReconciledRecord{},
		BeforePeriod:  []*models.ReconciledRecord{},
	}

	for _, r := range records {
		day := models.StartOfDay(r.DateFor(column))
		switch {
		case day.Before(period.Start):
			rs.BeforePeriod = append(rs.BeforePeriod, r)
		case !day.After(period.End):
			rs.InPeriod = append(rs.InPeriod, r)
		default:
			rs.AheadOfPeriod = append(rs.AheadOfPeriod, r)
		}
	}

	return rs
}
