package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrNoHeader = errors.New("no header row")
	ErrNoSheets = errors.New("workbook has no sheets")
)

// ReadCSV decodes a CSV document whose first record is the header
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("unable to read csv, %w", err)
	}
	return tableFromRecords(records)
}

// ReadXLSX decodes the named sheet of an Excel workbook, or the first sheet when sheet is
// empty. Cells are read with their display formatting so dates arrive as text.
func ReadXLSX(r io.Reader, sheet string) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("unable to open workbook, %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return Table{}, ErrNoSheets
		}
		sheet = sheets[0]
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, fmt.Errorf("unable to read sheet %q, %w", sheet, err)
	}
	return tableFromRecords(records)
}

func tableFromRecords(records [][]string) (Table, error) {
	if len(records) == 0 {
		return Table{}, ErrNoHeader
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		row := make(Row, len(header))
		for i, field := range header {
			if field == "" || i >= len(rec) {
				continue
			}
			row[field] = rec[i]
		}
		rows = append(rows, row)
	}
	return Table{Fields: header, Rows: rows}, nil
}

func isBlank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
