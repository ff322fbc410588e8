package ingest

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aouyang1/go-salesforecaster/timedataset"
)

var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError reports how many usable observations remained after cleaning
type InsufficientDataError struct {
	Observed int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("observed %d valid observations but at least %d are required, %s",
		e.Observed, e.Required, ErrInsufficientData)
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}

// Report accounts for every input row either kept or dropped during normalization
type Report struct {
	Rows         int `json:"rows"`
	Kept         int `json:"kept"`
	Missing      int `json:"missing"`
	InvalidTime  int `json:"invalid_time"`
	InvalidValue int `json:"invalid_value"`
	Duplicates   int `json:"duplicates"`
}

// Dropped returns the number of rows that did not make it into the series
func (r Report) Dropped() int {
	return r.Missing + r.InvalidTime + r.InvalidValue + r.Duplicates
}

type observation struct {
	t   time.Time
	y   float64
	pos int
}

// Normalize parses and coerces every row, drops the ones that fail, orders the remainder
// chronologically and keeps the first occurrence, in input order, of any repeated timestamp.
// The schema is expected to have been checked with ValidateSchema.
func Normalize(tbl Table, opt *Options) (*timedataset.TimeDataset, Report, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, Report{}, err
	}

	report := Report{Rows: len(tbl.Rows)}
	obs := make([]observation, 0, len(tbl.Rows))
	for i, row := range tbl.Rows {
		ts, err := ParseTimestamp(row[opt.TimeField], opt.Layouts, opt.Location)
		if err != nil {
			if errors.Is(err, ErrMissingField) {
				report.Missing += 1
			} else {
				report.InvalidTime += 1
			}
			continue
		}

		val, err := CoerceValue(row[opt.ValueField])
		if err != nil {
			if errors.Is(err, ErrMissingField) {
				report.Missing += 1
			} else {
				report.InvalidValue += 1
			}
			continue
		}
		obs = append(obs, observation{t: ts, y: val, pos: i})
	}

	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].t.Before(obs[j].t)
	})

	t := make([]time.Time, 0, len(obs))
	y := make([]float64, 0, len(obs))
	for i, o := range obs {
		// stable sort leaves equal timestamps in input order so the first seen is kept
		if i > 0 && o.t.Equal(obs[i-1].t) {
			report.Duplicates += 1
			continue
		}
		t = append(t, o.t)
		y = append(y, o.y)
	}
	report.Kept = len(y)

	if len(y) < opt.MinObservations {
		return nil, report, &InsufficientDataError{Observed: len(y), Required: opt.MinObservations}
	}

	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return nil, report, fmt.Errorf("unable to build normalized series, %w", err)
	}
	return td, report, nil
}
