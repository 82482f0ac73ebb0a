package parsers

import (
	"io"
	"strings"
	"time"

	"settlement-reconciliation-service/internal/models"
	"settlement-reconciliation-service/pkg/errors"
	"settlement-reconciliation-service/pkg/logger"
)

// Column headers of the QLIRO settlement export (Swedish)
const (
	QliroColumnOrderID          = "Butiksordernummer"
	QliroColumnAmount           = "Belopp"
	QliroColumnSettlementStatus = "Avräkningsstatus"
	QliroColumnSettlementDate   = "Avräkningsdatum"
	QliroColumnTransactionEnd   = "Transaktionsslutdatum"
	QliroColumnTransactionRef   = "Betalning transaktionsreferens"
)

var qliroRequiredColumns = []string{
	QliroColumnOrderID,
	QliroColumnAmount,
	QliroColumnSettlementStatus,
	QliroColumnSettlementDate,
	QliroColumnTransactionEnd,
	QliroColumnTransactionRef,
}

// QliroParserConfig holds configuration for the settlement export parser
type QliroParserConfig struct {
	// Delimiter between fields, semicolon in the standard export
	Delimiter rune
}

// DefaultQliroParserConfig matches the export format the settlement
// provider produces
func DefaultQliroParserConfig() *QliroParserConfig {
	return &QliroParserConfig{
		Delimiter: ';',
	}
}

// QliroParser reads the settlement export into SettlementRecords
type QliroParser struct {
	config *QliroParserConfig
	logger logger.Logger
}

// NewQliroParser creates a parser for the settlement export
func NewQliroParser(config *QliroParserConfig) *QliroParser {
	if config == nil {
		config = DefaultQliroParserConfig()
	}
	return &QliroParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("qliro_parser"),
	}
}

// ParseFile parses a settlement export file
func (p *QliroParser) ParseFile(path string) ([]*models.SettlementRecord, *ParseStats, error) {
	file, err := openExport(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	p.logger.WithField("file_path", path).Info("Parsing QLIRO export")
	return p.Parse(file)
}

// Parse parses a settlement export from a reader
func (p *QliroParser) Parse(r io.Reader) ([]*models.SettlementRecord, *ParseStats, error) {
	reader := newCSVReader(r, p.config.Delimiter)

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, errors.ParseError(errors.CodeEncodingError, errors.SideQliro, 1, "", "", err)
	}

	index, err := buildHeaderIndex(headers, qliroRequiredColumns, errors.SideQliro)
	if err != nil {
		return nil, nil, err
	}

	var settlements []*models.SettlementRecord
	stats := &ParseStats{}

	err = readRows(reader, stats, p.logger, func(line int, record []string) error {
		settlements = append(settlements, p.parseRow(record, index))
		return nil
	})
	if err != nil {
		return nil, stats, errors.ParseError(errors.CodeInvalidFormat, errors.SideQliro, stats.TotalRows+1, "", "", err)
	}

	p.logger.WithFields(logger.Fields{
		"total":   stats.TotalRows,
		"parsed":  stats.ParsedRows,
		"skipped": stats.SkippedRows,
	}).Info("QLIRO export parsed")

	return settlements, stats, nil
}

func (p *QliroParser) parseRow(record []string, index headerIndex) *models.SettlementRecord {
	s := &models.SettlementRecord{
		OrderID:               strings.TrimSpace(index.field(record, QliroColumnOrderID)),
		Amount:                models.CoerceMoney(index.field(record, QliroColumnAmount)),
		SettlementStatus:      strings.TrimSpace(index.field(record, QliroColumnSettlementStatus)),
		PaymentTransactionRef: strings.TrimSpace(index.field(record, QliroColumnTransactionRef)),
	}

	s.SettlementDate = p.coerceTime(index.field(record, QliroColumnSettlementDate))
	s.TransactionEndDate = p.coerceTime(index.field(record, QliroColumnTransactionEnd))

	return s
}

func (p *QliroParser) coerceTime(raw string) time.Time {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}
	}
	parsed, err := models.ParseTimeWithFormats(raw)
	if err != nil {
		p.logger.WithField("value", raw).Warn("Uncoercible settlement date")
		return time.Time{}
	}
	return parsed
}
