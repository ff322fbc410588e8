package forecaster

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aouyang1/go-salesforecaster/forecast"
	"github.com/aouyang1/go-salesforecaster/ingest"
	"github.com/aouyang1/go-salesforecaster/models"
	"github.com/aouyang1/go-salesforecaster/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

func salesTable(y []float64) ingest.Table {
	rows := make([]ingest.Row, 0, len(y))
	for i, v := range y {
		rows = append(rows, ingest.Row{
			"Date":  start.AddDate(0, i, 0).Format(time.DateOnly),
			"Sales": v,
		})
	}
	return ingest.NewTable(rows)
}

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt      *Options
		err      error
		expected *Options
	}{
		"nil": {
			expected: NewDefaultOptions(),
		},
		"unset sub options": {
			opt: &Options{Horizon: 3},
			expected: &Options{
				Horizon:            3,
				IngestOptions:      ingest.NewDefaultOptions(),
				HoltWintersOptions: models.NewDefaultHoltWintersOptions(),
			},
		},
		"period override": {
			opt: &Options{Horizon: 6, SeasonalPeriod: 4},
			expected: &Options{
				Horizon:            6,
				SeasonalPeriod:     4,
				IngestOptions:      ingest.NewDefaultOptions(),
				HoltWintersOptions: models.NewDefaultHoltWintersOptions(),
			},
		},
		"zero horizon": {
			opt: &Options{},
			err: forecast.ErrInvalidHorizon,
		},
		"negative horizon": {
			opt: &Options{Horizon: -1},
			err: forecast.ErrInvalidHorizon,
		},
		"period too small": {
			opt: &Options{Horizon: 6, SeasonalPeriod: 1},
			err: ErrInvalidOptions,
		},
		"invalid ingest options": {
			opt: &Options{Horizon: 6, IngestOptions: &ingest.Options{}},
			err: ingest.ErrEmptyFieldName,
		},
		"invalid holt-winters options": {
			opt: &Options{Horizon: 6, HoltWintersOptions: &models.HoltWintersOptions{}},
			err: models.ErrInvalidGridSteps,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt, err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, opt)
		})
	}
}

func TestNewInvalidHorizon(t *testing.T) {
	_, err := New(&Options{Horizon: 0})
	var horizonErr *forecast.InvalidHorizonError
	require.ErrorAs(t, err, &horizonErr)
	assert.Equal(t, 0, horizonErr.Horizon)
}

func TestRunConstantSeries(t *testing.T) {
	f, err := New(nil)
	require.Nil(t, err)

	res, err := f.Run(salesTable(timedataset.GenerateConstY(24, 100)))
	require.Nil(t, err)

	require.Len(t, res.Points, DefaultHorizon)
	for i, p := range res.Points {
		expectedT := time.Date(2024, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
		assert.True(t, expectedT.Equal(p.T), "expected %s, got %s", expectedT, p.T)
		assert.InDelta(t, 100.0, p.Forecast, 1e-9)
		assert.InDelta(t, 90.0, p.Lower, 1e-9)
		assert.InDelta(t, 110.0, p.Upper, 1e-9)
	}
	assert.InDelta(t, 600.0, res.Total, 1e-9)

	require.NotNil(t, res.Model.Smoothing)
	assert.True(t, res.Model.Smoothing.Fallback)
	assert.Equal(t, models.NaiveFallback, res.Model.Smoothing.Params)
	assert.Equal(t, 12, res.Model.Smoothing.Period)
	assert.Equal(t, timedataset.Cadence{Months: 1}, res.Model.Cadence)
	assert.Equal(t, ingest.Report{Rows: 24, Kept: 24}, res.Report)
	assert.Equal(t, 24, res.History.Len())
	assert.Len(t, res.Fitted, 24)
}

func TestRunSeasonalPeriodSelection(t *testing.T) {
	testData := map[string]struct {
		n        int
		override int
		expected int
	}{
		"minimum length":   {12, 0, 6},
		"short":            {17, 0, 8},
		"two full cycles":  {24, 0, 12},
		"long":             {60, 0, 12},
		"override":         {24, 4, 4},
		"override at edge": {12, 12, 12},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			y := timedataset.GenerateTrendY(td.n, 100, 2).
				Add(timedataset.GenerateSeasonalY(td.n, 10, 6, 0))

			opt := NewDefaultOptions()
			opt.SeasonalPeriod = td.override
			f, err := New(opt)
			require.Nil(t, err)

			res, err := f.Run(salesTable(y))
			require.Nil(t, err)
			assert.Equal(t, td.expected, res.Model.Smoothing.Period)
			assert.Len(t, res.Model.Smoothing.Seasonal, td.expected)
		})
	}
}

func TestRunErrors(t *testing.T) {
	f, err := New(nil)
	require.Nil(t, err)

	t.Run("insufficient data", func(t *testing.T) {
		_, err := f.Run(salesTable(timedataset.GenerateConstY(11, 100)))
		assert.ErrorIs(t, err, ingest.ErrInsufficientData)

		var insErr *ingest.InsufficientDataError
		require.ErrorAs(t, err, &insErr)
		assert.Equal(t, 11, insErr.Observed)
		assert.Equal(t, 12, insErr.Required)
	})

	t.Run("missing sales field", func(t *testing.T) {
		rows := make([]ingest.Row, 0, 24)
		for i := 0; i < 24; i++ {
			rows = append(rows, ingest.Row{"Date": start.AddDate(0, i, 0).Format(time.DateOnly), "Revenue": 100.0})
		}
		_, err := f.Run(ingest.NewTable(rows))
		assert.ErrorIs(t, err, ingest.ErrSchema)

		var schemaErr *ingest.SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, []string{"Sales"}, schemaErr.Missing)
	})

	t.Run("lowercase fields", func(t *testing.T) {
		rows := []ingest.Row{{"date": "2022-01-01", "sales": 1.0}}
		_, err := f.Run(ingest.NewTable(rows))
		var schemaErr *ingest.SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.ElementsMatch(t, []string{"Date", "Sales"}, schemaErr.Missing)
	})

	t.Run("empty table", func(t *testing.T) {
		_, err := f.Run(ingest.Table{})
		assert.ErrorIs(t, err, ingest.ErrSchema)
	})
}

func TestRunDropsUnparseableTimestamps(t *testing.T) {
	y := timedataset.GenerateTrendY(20, 100, 5)
	tbl := salesTable(y)
	for _, i := range []int{2, 9, 15} {
		tbl.Rows[i]["Date"] = "not a date"
	}

	f, err := New(nil)
	require.Nil(t, err)
	res, err := f.Run(tbl)
	require.Nil(t, err)

	assert.Equal(t, 3, res.Report.InvalidTime)
	assert.Equal(t, 17, res.Report.Kept)
	assert.Equal(t, 17, res.History.Len())
	assert.Equal(t, 8, res.Model.Smoothing.Period)
	assert.Len(t, res.Points, DefaultHorizon)
	assert.Equal(t, timedataset.Cadence{Months: 1}, res.Model.Cadence)
}

func TestRunMonthlyWithOffDayTimestamp(t *testing.T) {
	tbl := salesTable(timedataset.GenerateTrendY(24, 100, 5))
	tbl.Rows[7]["Date"] = start.AddDate(0, 7, 1).Format(time.DateOnly)
	tbl.Rows[23]["Date"] = start.AddDate(0, 23, 1).Format(time.DateOnly)

	f, err := New(nil)
	require.Nil(t, err)
	res, err := f.Run(tbl)
	require.Nil(t, err)

	assert.Equal(t, timedataset.Cadence{Months: 1, Day: 1}, res.Model.Cadence)
	for i, p := range res.Points {
		assert.True(t, start.AddDate(0, 24+i, 0).Equal(p.T), p.T)
	}
}

func TestRunDeterministic(t *testing.T) {
	y := timedataset.GenerateTrendY(36, 1000, 12).
		Add(timedataset.GenerateSeasonalY(36, 150, 12, 0)).
		Add(timedataset.GenerateNoise(36, 20, 11))
	tbl := salesTable(y)

	f, err := New(nil)
	require.Nil(t, err)

	first, err := f.Run(tbl)
	require.Nil(t, err)
	second, err := f.Run(tbl)
	require.Nil(t, err)
	assert.Equal(t, first, second)

	assert.False(t, first.Model.Smoothing.Fallback)
	for _, p := range first.Points {
		assert.LessOrEqual(t, p.Lower, p.Forecast)
		assert.LessOrEqual(t, p.Forecast, p.Upper)
	}
	assert.InDeltaSlice(t, first.Forecast(), second.Forecast(), 0)

	var total float64
	for _, v := range first.Forecast() {
		total += v
	}
	assert.InDelta(t, total, first.Total, 1e-9)
}

func TestRunSeries(t *testing.T) {
	ts := timedataset.GenerateMonthlyT(24, start)
	td, err := timedataset.NewUnivariateDataset(ts, timedataset.GenerateConstY(24, 250))
	require.Nil(t, err)

	f, err := New(&Options{Horizon: 3})
	require.Nil(t, err)

	res, err := f.RunSeries(td)
	require.Nil(t, err)
	assert.Len(t, res.Points, 3)
	assert.InDelta(t, 750.0, res.Total, 1e-9)

	short, err := timedataset.NewUnivariateDataset(ts[:5], timedataset.GenerateConstY(5, 250))
	require.Nil(t, err)
	_, err = f.RunSeries(short)
	assert.ErrorIs(t, err, ingest.ErrInsufficientData)

	_, err = f.RunSeries(nil)
	assert.ErrorIs(t, err, timedataset.ErrNoTrainingData)
}

func TestResultsTablePrint(t *testing.T) {
	f, err := New(nil)
	require.Nil(t, err)
	res, err := f.Run(salesTable(timedataset.GenerateConstY(24, 100)))
	require.Nil(t, err)

	var buf bytes.Buffer
	require.NoError(t, res.TablePrint(&buf, "", "  "))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "Model:\n"))
	assert.Contains(t, out, "Cadence: monthly\n")
	assert.Contains(t, out, "Fallback: true")
	assert.Contains(t, out, "  Rows: 24    Kept: 24    Dropped: 0\n")
	assert.True(t, strings.HasSuffix(out, "Total: 600.00\n"))
}
