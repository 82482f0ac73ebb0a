package matcher

import (
	"settlement-reconciliation-service/internal/models"
)

// SettlementIndex provides keyed lookup of settlement records by their
// canonical order id. Duplicate ids keep every record, in input order, so
// the join can produce the full cross product required by relational
// semantics.
type SettlementIndex struct {
	byOrderID map[string][]*models.SettlementRecord

	// AllSettlements holds all indexed settlement records
	AllSettlements []*models.SettlementRecord
}

// NewSettlementIndex creates an index from a slice of settlement records
func NewSettlementIndex(settlements []*models.SettlementRecord) *SettlementIndex {
	index := &SettlementIndex{
		byOrderID:      make(map[string][]*models.SettlementRecord, len(settlements)),
		AllSettlements: settlements,
	}

	for _, s := range settlements {
		index.byOrderID[s.OrderID] = append(index.byOrderID[s.OrderID], s)
	}

	return index
}

// Get returns every settlement record sharing the given order id, in the
// order they appeared in the input
func (si *SettlementIndex) Get(orderID string) []*models.SettlementRecord {
	return si.byOrderID[orderID]
}

// Len returns the number of distinct order ids in the index
func (si *SettlementIndex) Len() int {
	return len(si.byOrderID)
}
