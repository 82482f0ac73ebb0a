package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCoerceMoney(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		valid    bool
	}{
		{"plain decimal", "100.50", "100.50", true},
		{"integer", "100", "100.00", true},
		{"negative", "-5.25", "-5.25", true},
		{"decimal comma", "100,50", "100.50", true},
		{"thousand separator", "1,234.56", "1234.56", true},
		{"currency suffix", "99.90 kr", "99.90", true},
		{"surrounding space", "  42.00  ", "42.00", true},
		{"empty", "", "", false},
		{"garbage", "N/A", "", false},
		{"letters", "abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := CoerceMoney(tt.input)
			if m.Valid != tt.valid {
				t.Fatalf("CoerceMoney(%q) valid = %t, want %t", tt.input, m.Valid, tt.valid)
			}
			if tt.valid && m.String() != tt.expected {
				t.Errorf("CoerceMoney(%q) = %s, want %s", tt.input, m.String(), tt.expected)
			}
		})
	}
}

func TestMoneyArithmeticPropagatesInvalid(t *testing.T) {
	valid := MoneyFromFloat(10)
	invalid := InvalidMoney()

	if valid.Add(invalid).Valid {
		t.Error("valid + invalid should be invalid")
	}
	if invalid.Sub(valid).Valid {
		t.Error("invalid - valid should be invalid")
	}
	if invalid.Mul(valid).Valid {
		t.Error("invalid * valid should be invalid")
	}
	if invalid.Abs().Valid {
		t.Error("abs(invalid) should be invalid")
	}
	if invalid.IsZero() {
		t.Error("invalid is not zero")
	}
}

func TestMoneyRound2(t *testing.T) {
	m := MoneyFromDecimal(decimal.RequireFromString("100.005"))
	if got := m.Round2().String(); got != "100.01" {
		t.Errorf("Round2 = %s, want 100.01", got)
	}

	// Rounding an already rounded value must not drift
	once := m.Round2()
	twice := once.Round2()
	if !once.Equal(twice) {
		t.Errorf("double rounding drifted: %s vs %s", once, twice)
	}
}

func TestMoneyJSON(t *testing.T) {
	valid := MoneyFromFloat(100.5)
	data, err := json.Marshal(valid)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"100.50"` {
		t.Errorf("marshal = %s, want \"100.50\"", data)
	}

	data, err = json.Marshal(InvalidMoney())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != "null" {
		t.Errorf("invalid money should marshal to null, got %s", data)
	}

	var back Money
	if err := json.Unmarshal([]byte("null"), &back); err != nil {
		t.Fatalf("unmarshal null failed: %v", err)
	}
	if back.Valid {
		t.Error("null should unmarshal to invalid money")
	}
	if err := json.Unmarshal([]byte(`"12.34"`), &back); err != nil {
		t.Fatalf("unmarshal string failed: %v", err)
	}
	if back.String() != "12.34" {
		t.Errorf("round trip = %s, want 12.34", back)
	}
}

func TestParseDateColumn(t *testing.T) {
	tests := []struct {
		input    string
		expected DateColumn
		wantErr  bool
	}{
		{"settlement-date", DateColumnSettlement, false},
		{"settlement_date", DateColumnSettlement, false},
		{"order-time", DateColumnOrderTime, false},
		{"Order_Time", DateColumnOrderTime, false},
		{"created-at", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDateColumn(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDateColumn(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDateColumn(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseDateColumn(%q) = %s, want %s", tt.input, got, tt.expected)
		}
	}
}

func TestDateFor(t *testing.T) {
	orderTime := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	settlementDate := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	r := &ReconciledRecord{OrderTime: orderTime, SettlementDate: settlementDate}

	if !r.DateFor(DateColumnOrderTime).Equal(orderTime) {
		t.Error("DateFor(order-time) should return the order time")
	}
	if !r.DateFor(DateColumnSettlement).Equal(settlementDate) {
		t.Error("DateFor(settlement-date) should return the settlement date")
	}
}

func TestParseTimeWithFormats(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"2024-03-05 14:30:00", false},
		{"2024-03-05", false},
		{"2024-03-05T14:30:00Z", false},
		{"05.03.2024", false},
		{"not a date", true},
		{"", true},
	}

	for _, tt := range tests {
		_, err := ParseTimeWithFormats(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTimeWithFormats(%q) error = %v, wantErr %t", tt.input, err, tt.wantErr)
		}
	}
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2024, 3, 5, 23, 59, 59, 999, time.UTC)
	got := StartOfDay(in)
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", got, want)
	}
}

func TestCloneDoesNotShare(t *testing.T) {
	o := &OrderRecord{OrderID: "1001", PaymentMethod: "QLIROCHECKOUT"}
	c := o.Clone()
	c.OrderID = "2002"
	if o.OrderID != "1001" {
		t.Error("mutating the clone must not touch the original")
	}

	s := &SettlementRecord{OrderID: "1001"}
	cs := s.Clone()
	cs.OrderID = "2002"
	if s.OrderID != "1001" {
		t.Error("mutating the clone must not touch the original")
	}
}
