package parsers

import (
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"settlement-reconciliation-service/internal/models"
	"settlement-reconciliation-service/pkg/errors"
	"settlement-reconciliation-service/pkg/logger"
)

// Column headers of the WGR warehouse export
const (
	WGRColumnOrderID       = "Order ID"
	WGRColumnAmountExclVAT = "Total amount excl. VAT"
	WGRColumnVATAmount     = "Total VAT"
	WGRColumnUnitPrice     = "Price excl. VAT"
	WGRColumnVATRate       = "Average VAT rate (%)"
	WGRColumnOrderTime     = "Order time"
	WGRColumnPaymentMethod = "Payment method"
)

// wgrRequiredColumns are the columns the pipeline needs; the export
// carries more, which are ignored
var wgrRequiredColumns = []string{
	WGRColumnOrderID,
	WGRColumnAmountExclVAT,
	WGRColumnVATAmount,
	WGRColumnUnitPrice,
	WGRColumnVATRate,
	WGRColumnOrderTime,
	WGRColumnPaymentMethod,
}

// WGRParserConfig holds configuration for the warehouse export parser
type WGRParserConfig struct {
	// Delimiter between fields, tab in the standard export
	Delimiter rune
	// UTF16 decodes the input from UTF-16 before parsing, which is how
	// the warehouse system writes the export
	UTF16 bool
}

// DefaultWGRParserConfig matches the export format the warehouse system
// produces
func DefaultWGRParserConfig() *WGRParserConfig {
	return &WGRParserConfig{
		Delimiter: '\t',
		UTF16:     true,
	}
}

// WGRParser reads the warehouse order export into OrderRecords
type WGRParser struct {
	config *WGRParserConfig
	logger logger.Logger
}

// NewWGRParser creates a parser for the warehouse export
func NewWGRParser(config *WGRParserConfig) *WGRParser {
	if config == nil {
		config = DefaultWGRParserConfig()
	}
	return &WGRParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("wgr_parser"),
	}
}

// ParseFile parses a warehouse export file
func (p *WGRParser) ParseFile(path string) ([]*models.OrderRecord, *ParseStats, error) {
	file, err := openExport(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	p.logger.WithField("file_path", path).Info("Parsing WGR export")
	return p.Parse(file)
}

// Parse parses a warehouse export from a reader
func (p *WGRParser) Parse(r io.Reader) ([]*models.OrderRecord, *ParseStats, error) {
	if p.config.UTF16 {
		// The export carries a BOM; default to little endian when absent
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		r = transform.NewReader(r, decoder)
	}

	reader := newCSVReader(r, p.config.Delimiter)

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, errors.ParseError(errors.CodeEncodingError, errors.SideWGR, 1, "", "", err)
	}

	index, err := buildHeaderIndex(headers, wgrRequiredColumns, errors.SideWGR)
	if err != nil {
		return nil, nil, err
	}

	var orders []*models.OrderRecord
	stats := &ParseStats{}

	err = readRows(reader, stats, p.logger, func(line int, record []string) error {
		order, err := p.parseRow(index, record)
		if err != nil {
			return err
		}
		orders = append(orders, order)
		return nil
	})
	if err != nil {
		return nil, stats, errors.ParseError(errors.CodeInvalidFormat, errors.SideWGR, stats.TotalRows+1, "", "", err)
	}

	p.logger.WithFields(logger.Fields{
		"total":   stats.TotalRows,
		"parsed":  stats.ParsedRows,
		"skipped": stats.SkippedRows,
	}).Info("WGR export parsed")

	return orders, stats, nil
}

func (p *WGRParser) parseRow(index headerIndex, record []string) (*models.OrderRecord, error) {
	order := &models.OrderRecord{
		OrderID:          strings.TrimSpace(index.field(record, WGRColumnOrderID)),
		AmountExclVAT:    models.CoerceMoney(index.field(record, WGRColumnAmountExclVAT)),
		VATAmount:        models.CoerceMoney(index.field(record, WGRColumnVATAmount)),
		UnitPriceExclVAT: models.CoerceMoney(index.field(record, WGRColumnUnitPrice)),
		VATRatePct:       models.CoerceMoney(index.field(record, WGRColumnVATRate)),
		PaymentMethod:    strings.TrimSpace(index.field(record, WGRColumnPaymentMethod)),
	}

	if raw := index.field(record, WGRColumnOrderTime); strings.TrimSpace(raw) != "" {
		t, err := models.ParseTimeWithFormats(raw)
		if err != nil {
			// Timestamps follow the coercion policy too: the row stays in
			// the batch with a zero time rather than aborting the parse
			p.logger.WithField("value", raw).Warn("Uncoercible order time")
		} else {
			order.OrderTime = t
		}
	}

	return order, nil
}
