package ingest

import (
	"errors"
	"time"
)

// DefaultMinObservations is the fewest cleaned observations a seasonal fit is attempted with
const DefaultMinObservations = 12

var (
	ErrEmptyFieldName     = errors.New("time and value field names must be set")
	ErrSameFieldName      = errors.New("time and value fields must differ")
	ErrInvalidMinimum     = errors.New("minimum observations must be at least 1")
	ErrNoTimestampLayouts = errors.New("no timestamp layouts configured")
	ErrNilLocation        = errors.New("timestamp location must be set")
)

// DefaultLayouts are tried in order when parsing timestamp strings. Slash and dash
// separated day/month dates are read month first.
var DefaultLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
	"2006/01/02",
	"2006-01",
	"2006/01",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01-02-06",
	"1/2/06",
	"Jan 2006",
	"January 2006",
	"Jan-2006",
	"Jan-06",
	"2 Jan 2006",
	"02-Jan-2006",
}

// Options configures schema validation and normalization
type Options struct {
	TimeField       string
	ValueField      string
	MinObservations int
	Layouts         []string

	// Location is used for timestamps that carry no zone
	Location *time.Location
}

// NewDefaultOptions returns the "Date"/"Sales" schema with a 12 observation minimum
func NewDefaultOptions() *Options {
	return &Options{
		TimeField:       DefaultTimeField,
		ValueField:      DefaultValueField,
		MinObservations: DefaultMinObservations,
		Layouts:         DefaultLayouts,
		Location:        time.UTC,
	}
}

// Validate returns the options to use, substituting defaults for nil options
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	if o.TimeField == "" || o.ValueField == "" {
		return nil, ErrEmptyFieldName
	}
	if o.TimeField == o.ValueField {
		return nil, ErrSameFieldName
	}
	if o.MinObservations < 1 {
		return nil, ErrInvalidMinimum
	}
	if len(o.Layouts) == 0 {
		return nil, ErrNoTimestampLayouts
	}
	if o.Location == nil {
		return nil, ErrNilLocation
	}
	return o, nil
}
