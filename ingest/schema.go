// Package ingest turns raw tabular rows into a validated, chronologically ordered series
package ingest

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

const (
	DefaultTimeField  = "Date"
	DefaultValueField = "Sales"
)

var ErrSchema = errors.New("schema error")

// Row is a single raw record keyed by field name. Values are whatever the upstream decoder
// produced, typically strings from CSV or numbers from JSON.
type Row map[string]any

// Table is a set of raw rows along with the field names the upstream source declared
type Table struct {
	Fields []string `json:"fields"`
	Rows   []Row    `json:"rows"`
}

// NewTable builds a table from rows, deriving the field list from the union of row keys
func NewTable(rows []Row) Table {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}
	fields := make([]string, 0, len(seen))
	for k := range seen {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return Table{Fields: fields, Rows: rows}
}

// SchemaError lists the required fields absent from a table
type SchemaError struct {
	Missing []string
	Fields  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required fields %q in %q, %s", e.Missing, e.Fields, ErrSchema)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// ValidateSchema confirms the time and value fields named by opt are declared by the table.
// Field names are case-sensitive. Row contents are not inspected.
func ValidateSchema(tbl Table, opt *Options) error {
	if opt == nil {
		opt = NewDefaultOptions()
	}

	var missing []string
	for _, field := range []string{opt.TimeField, opt.ValueField} {
		if !slices.Contains(tbl.Fields, field) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing, Fields: slices.Clone(tbl.Fields)}
	}
	return nil
}
