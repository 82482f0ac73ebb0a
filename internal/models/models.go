// Package models defines the typed records the reconciliation pipeline
// operates on: warehouse order rows (WGR), payment settlement rows (QLIRO),
// and the merged records produced by joining the two ledgers.
//
// Amounts are carried as Money, a decimal-or-invalid union. A value that
// could not be coerced to a number stays in the pipeline as an invalid
// Money instead of aborting the batch; every comparison involving an
// invalid value classifies as a mismatch downstream.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Money is a currency amount that is either a valid decimal or an explicit
// "not a number" marker. Arithmetic on an invalid Money yields an invalid
// Money; the invalid state never silently becomes zero.
type Money struct {
	Value decimal.Decimal
	Valid bool
}

// MoneyFromDecimal creates a valid Money from a decimal value
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Value: d, Valid: true}
}

// MoneyFromFloat creates a valid Money from a float value
func MoneyFromFloat(f float64) Money {
	return Money{Value: decimal.NewFromFloat(f), Valid: true}
}

// InvalidMoney returns the invalid marker value
func InvalidMoney() Money {
	return Money{}
}

// CoerceMoney parses a decimal value from a raw export field. Values that
// cannot be parsed coerce to the invalid marker rather than returning an
// error, so one malformed row never aborts a batch.
func CoerceMoney(s string) Money {
	s = strings.TrimSpace(s)
	if s == "" {
		return InvalidMoney()
	}

	// Strip currency symbols and spaces used as thousand separators
	s = strings.ReplaceAll(s, "kr", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")

	// A single comma with no dot is a decimal comma, otherwise commas are
	// thousand separators
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return InvalidMoney()
	}

	return MoneyFromDecimal(d)
}

// Round2 rounds the amount to 2 decimal places, preserving invalidity
func (m Money) Round2() Money {
	if !m.Valid {
		return m
	}
	return MoneyFromDecimal(m.Value.Round(2))
}

// Add returns m + other, invalid if either operand is invalid
func (m Money) Add(other Money) Money {
	if !m.Valid || !other.Valid {
		return InvalidMoney()
	}
	return MoneyFromDecimal(m.Value.Add(other.Value))
}

// Sub returns m - other, invalid if either operand is invalid
func (m Money) Sub(other Money) Money {
	if !m.Valid || !other.Valid {
		return InvalidMoney()
	}
	return MoneyFromDecimal(m.Value.Sub(other.Value))
}

// Mul returns m * other, invalid if either operand is invalid
func (m Money) Mul(other Money) Money {
	if !m.Valid || !other.Valid {
		return InvalidMoney()
	}
	return MoneyFromDecimal(m.Value.Mul(other.Value))
}

// Abs returns the absolute value, invalid if m is invalid
func (m Money) Abs() Money {
	if !m.Valid {
		return m
	}
	return MoneyFromDecimal(m.Value.Abs())
}

// IsZero reports whether m is a valid zero amount
func (m Money) IsZero() bool {
	return m.Valid && m.Value.IsZero()
}

// Equal reports whether both values are valid and numerically equal, or
// both invalid
func (m Money) Equal(other Money) bool {
	if !m.Valid || !other.Valid {
		return m.Valid == other.Valid
	}
	return m.Value.Equal(other.Value)
}

// String returns the amount fixed to 2 decimal places, or "invalid"
func (m Money) String() string {
	if !m.Valid {
		return "invalid"
	}
	return m.Value.StringFixed(2)
}

// MarshalJSON renders a valid amount as its decimal string and the invalid
// marker as null
func (m Money) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value.StringFixed(2))
}

// UnmarshalJSON accepts a decimal string, a JSON number, or null
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*m = InvalidMoney()
		return nil
	}
	s = strings.Trim(s, `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount format '%s': %w", s, err)
	}
	*m = MoneyFromDecimal(d)
	return nil
}

// DateColumn selects which timestamp field drives period classification
type DateColumn string

const (
	// DateColumnSettlement classifies records by the QLIRO settlement date
	DateColumnSettlement DateColumn = "settlement-date"
	// DateColumnOrderTime classifies records by the WGR order placement time
	DateColumnOrderTime DateColumn = "order-time"
)

// String returns the string representation of DateColumn
func (c DateColumn) String() string {
	return string(c)
}

// IsValid checks if the date column selector is valid
func (c DateColumn) IsValid() bool {
	return c == DateColumnSettlement || c == DateColumnOrderTime
}

// ParseDateColumn parses and validates a date column selector from string
func ParseDateColumn(s string) (DateColumn, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "settlement-date", "settlement_date", "settlement":
		return DateColumnSettlement, nil
	case "order-time", "order_time", "order":
		return DateColumnOrderTime, nil
	default:
		return "", fmt.Errorf("invalid date column '%s': must be settlement-date or order-time", s)
	}
}

// OrderRecord represents one row of the warehouse order export (WGR side)
type OrderRecord struct {
	OrderID          string    `json:"order_id"`
	AmountExclVAT    Money     `json:"amount_excl_vat"`
	VATAmount        Money     `json:"vat_amount"`
	UnitPriceExclVAT Money     `json:"unit_price_excl_vat"`
	VATRatePct       Money     `json:"vat_rate_pct"`
	OrderTime        time.Time `json:"order_time"`
	PaymentMethod    string    `json:"payment_method"`

	// TotalPaid is derived by the normalizer; zero until normalization
	TotalPaid Money `json:"total_paid"`
}

// Clone returns a copy of the record so callers' inputs are never mutated
func (o *OrderRecord) Clone() *OrderRecord {
	c := *o
	return &c
}

// String returns a string representation of the OrderRecord
func (o *OrderRecord) String() string {
	return fmt.Sprintf("OrderRecord{ID: %s, TotalPaid: %s, Method: %s, Time: %s}",
		o.OrderID, o.TotalPaid, o.PaymentMethod, o.OrderTime.Format(time.RFC3339))
}

// SettlementRecord represents one row of the payment settlement export
// (QLIRO side)
type SettlementRecord struct {
	OrderID               string    `json:"order_id"`
	Amount                Money     `json:"amount"`
	SettlementStatus      string    `json:"settlement_status"`
	SettlementDate        time.Time `json:"settlement_date"`
	TransactionEndDate    time.Time `json:"transaction_end_date"`
	PaymentTransactionRef string    `json:"payment_transaction_ref"`
}

// Clone returns a copy of the record so callers' inputs are never mutated
func (s *SettlementRecord) Clone() *SettlementRecord {
	c := *s
	return &c
}

// String returns a string representation of the SettlementRecord
func (s *SettlementRecord) String() string {
	return fmt.Sprintf("SettlementRecord{ID: %s, Amount: %s, Status: %s, Date: %s}",
		s.OrderID, s.Amount, s.SettlementStatus, s.SettlementDate.Format("2006-01-02"))
}

// ReconciledRecord is the result of joining one OrderRecord to one
// SettlementRecord on the canonical order id. The matcher produces shells
// with both sides' fields; the reconciler fills AmountDifference and
// IsMismatch.
type ReconciledRecord struct {
	OrderID string `json:"order_id"`

	// WGR side
	AmountExclVAT    Money     `json:"amount_excl_vat"`
	VATAmount        Money     `json:"vat_amount"`
	UnitPriceExclVAT Money     `json:"unit_price_excl_vat"`
	VATRatePct       Money     `json:"vat_rate_pct"`
	OrderTime        time.Time `json:"order_time"`
	TotalPaid        Money     `json:"total_paid"`

	// QLIRO side
	SettledAmount         Money     `json:"settled_amount"`
	SettlementStatus      string    `json:"settlement_status"`
	SettlementDate        time.Time `json:"settlement_date"`
	TransactionEndDate    time.Time `json:"transaction_end_date"`
	PaymentTransactionRef string    `json:"payment_transaction_ref"`

	// Reconciliation outcome
	AmountDifference Money `json:"amount_difference"`
	IsMismatch       bool  `json:"is_mismatch"`
}

// DateFor returns the timestamp the given date column selects on this record
func (r *ReconciledRecord) DateFor(column DateColumn) time.Time {
	if column == DateColumnOrderTime {
		return r.OrderTime
	}
	return r.SettlementDate
}

// String returns a string representation of the ReconciledRecord
func (r *ReconciledRecord) String() string {
	return fmt.Sprintf("ReconciledRecord{ID: %s, TotalPaid: %s, Settled: %s, Diff: %s, Mismatch: %t}",
		r.OrderID, r.TotalPaid, r.SettledAmount, r.AmountDifference, r.IsMismatch)
}

// ParseTimeWithFormats attempts to parse a timestamp from an export field
// using the formats the two exports are known to produce
func ParseTimeWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("time string cannot be empty")
	}

	formats := []string{
		time.RFC3339,          // "2006-01-02T15:04:05Z07:00"
		"2006-01-02 15:04:05", // WGR order time
		"2006-01-02T15:04:05",
		"2006-01-02", // QLIRO settlement dates
		"2006/01/02",
		"02.01.2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time '%s': %w", s, lastErr)
}

// StartOfDay normalizes a timestamp to 00:00:00 on its calendar date.
// Period bounds and record timestamps are compared at this precision.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
