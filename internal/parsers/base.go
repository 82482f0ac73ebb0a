// Package parsers reads the two ledger exports into typed records.
//
// The WGR warehouse export is tab-separated UTF-16 text; the QLIRO
// settlement export is semicolon-separated UTF-8. Column presence is
// validated against the required headers up front, so a missing column
// fails the invocation with a schema error naming the side and column
// instead of surfacing later as a bad join. Amount fields follow the
// coerce-don't-crash policy: unparseable values become the invalid money
// marker and flow through the pipeline as guaranteed mismatches.
package parsers

import (
	"encoding/csv"
	"io"
	"os"

	"settlement-reconciliation-service/pkg/errors"
	"settlement-reconciliation-service/pkg/logger"
)

// ParseStats tracks row counts for one export
type ParseStats struct {
	TotalRows   int `json:"total_rows"`
	ParsedRows  int `json:"parsed_rows"`
	SkippedRows int `json:"skipped_rows"`
}

// headerIndex maps column names to their positions in the export
type headerIndex map[string]int

// buildHeaderIndex validates that every required column is present and maps
// column names to field positions. The first missing column aborts with a
// schema error for the given side.
func buildHeaderIndex(headers []string, required []string, side errors.LedgerSide) (headerIndex, error) {
	index := make(headerIndex, len(headers))
	for i, h := range headers {
		index[h] = i
	}

	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, errors.SchemaError(side, col)
		}
	}

	return index, nil
}

// field extracts the named column from a record, empty when the row is
// shorter than the header
func (hi headerIndex) field(record []string, column string) string {
	i, ok := hi[column]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

// openExport opens an export file, mapping OS errors into the file error
// taxonomy
func openExport(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError("", path, err)
	}
	return file, nil
}

// newCSVReader builds a csv.Reader tolerant of the quirks both exports
// show in practice
func newCSVReader(r io.Reader, delimiter rune) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

// readRows drains the reader, handing each data row to parse. Empty rows
// are skipped; a row that parse rejects is counted and logged but does not
// abort the batch.
func readRows(reader *csv.Reader, stats *ParseStats, log logger.Logger, parse func(line int, record []string) error) error {
	line := 1 // header already consumed
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line++

		if isEmptyRow(record) {
			continue
		}

		stats.TotalRows++
		if err := parse(line, record); err != nil {
			stats.SkippedRows++
			log.WithError(err).WithField("line", line).Warn("Skipping unparseable row")
			continue
		}
		stats.ParsedRows++
	}
}

func isEmptyRow(record []string) bool {
	for _, f := range record {
		if f != "" {
			return false
		}
	}
	return true
}
