package ingest

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthlyRows(n int) []Row {
	rows := make([]Row, 0, n)
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		rows = append(rows, Row{
			"Date":  start.AddDate(0, i, 0).Format(time.DateOnly),
			"Sales": fmt.Sprintf("%d", 100+i),
		})
	}
	return rows
}

func TestNormalize(t *testing.T) {
	testData := map[string]struct {
		rows     []Row
		expected Report
		err      error
	}{
		"exact minimum": {
			rows:     monthlyRows(12),
			expected: Report{Rows: 12, Kept: 12},
		},
		"one short of minimum": {
			rows:     monthlyRows(11),
			expected: Report{Rows: 11, Kept: 11},
			err:      ErrInsufficientData,
		},
		"unparseable timestamps dropped": {
			rows: func() []Row {
				rows := monthlyRows(20)
				rows[2]["Date"] = "not-a-date"
				rows[9]["Date"] = "2020-13-45"
				rows[15]["Date"] = "yesterday"
				return rows
			}(),
			expected: Report{Rows: 20, Kept: 17, InvalidTime: 3},
		},
		"uncoercible and missing values dropped": {
			rows: func() []Row {
				rows := monthlyRows(15)
				rows[0]["Sales"] = "n/a"
				delete(rows[1], "Sales")
				rows[2]["Date"] = ""
				return rows
			}(),
			expected: Report{Rows: 15, Kept: 12, Missing: 2, InvalidValue: 1},
		},
		"cleaning drops below minimum": {
			rows: func() []Row {
				rows := monthlyRows(12)
				rows[5]["Sales"] = "oops"
				return rows
			}(),
			expected: Report{Rows: 12, Kept: 11, InvalidValue: 1},
			err:      ErrInsufficientData,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			ds, report, err := Normalize(Table{Fields: []string{"Date", "Sales"}, Rows: td.rows}, nil)
			assert.Equal(t, td.expected, report)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				assert.Nil(t, ds)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected.Kept, ds.Len())
			assert.Equal(t, td.expected.Dropped(), td.expected.Rows-td.expected.Kept)
		})
	}
}

func TestNormalizeInsufficientDataContext(t *testing.T) {
	_, _, err := Normalize(Table{Fields: []string{"Date", "Sales"}, Rows: monthlyRows(11)}, nil)

	var insufficient *InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 11, insufficient.Observed)
	assert.Equal(t, DefaultMinObservations, insufficient.Required)
}

func TestNormalizeOrdersAndDeduplicates(t *testing.T) {
	rows := monthlyRows(14)

	// shuffle deterministically and append duplicates of existing timestamps
	shuffled := make([]Row, 0, len(rows)+2)
	for i := len(rows) - 1; i >= 0; i-- {
		shuffled = append(shuffled, rows[i])
	}
	shuffled = append(shuffled,
		Row{"Date": rows[3]["Date"], "Sales": "-1"},
		Row{"Date": rows[3]["Date"], "Sales": "-2"},
	)
	// the first occurrence in input order for rows[0]'s timestamp is now this one
	shuffled = append([]Row{{"Date": rows[0]["Date"], "Sales": "555"}}, shuffled...)

	ds, report, err := Normalize(Table{Fields: []string{"Date", "Sales"}, Rows: shuffled}, nil)
	require.Nil(t, err)
	assert.Equal(t, 3, report.Duplicates)
	require.Equal(t, 14, ds.Len())

	for i := 1; i < ds.Len(); i++ {
		assert.True(t, ds.T[i].After(ds.T[i-1]), "timestamps must be strictly increasing at %d", i)
	}
	assert.Equal(t, 555.0, ds.Y[0])
	assert.Equal(t, 103.0, ds.Y[3])
}

func TestNormalizeInvalidOptions(t *testing.T) {
	_, _, err := Normalize(Table{}, &Options{})
	assert.ErrorIs(t, err, ErrEmptyFieldName)
}
