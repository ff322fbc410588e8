// Package forecaster projects a time-stamped sales series a few steps into the future. A run
// validates and cleans the raw rows, fits an additive Holt-Winters model and returns point
// forecasts with a fixed relative band and their total.
package forecaster

import (
	"fmt"
	"log/slog"

	"github.com/aouyang1/go-salesforecaster/forecast"
	"github.com/aouyang1/go-salesforecaster/ingest"
	"github.com/aouyang1/go-salesforecaster/models"
	"github.com/aouyang1/go-salesforecaster/timedataset"
)

// Forecaster runs the sales forecasting pipeline. It holds no state between runs so a single
// instance may be shared across goroutines.
type Forecaster struct {
	opt *Options
}

// New creates a new instance of a Forecaster using the provided options. If no options are provided
// a default is used.
func New(opt *Options) (*Forecaster, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &Forecaster{opt: opt}, nil
}

// Options returns the validated options used by the forecaster
func (f *Forecaster) Options() Options {
	return *f.opt
}

// Run validates the table schema, normalizes the rows into a series, fits the smoothing model
// and forecasts Horizon steps past the last observation. Schema, insufficient data and horizon
// errors are returned as is so callers can match them with errors.Is and errors.As.
func (f *Forecaster) Run(tbl ingest.Table) (*Results, error) {
	if err := ingest.ValidateSchema(tbl, f.opt.IngestOptions); err != nil {
		return nil, err
	}

	td, report, err := ingest.Normalize(tbl, f.opt.IngestOptions)
	if report.Dropped() > 0 {
		slog.Warn("dropped rows during normalization",
			"rows", report.Rows,
			"kept", report.Kept,
			"missing", report.Missing,
			"invalid_time", report.InvalidTime,
			"invalid_value", report.InvalidValue,
			"duplicates", report.Duplicates,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to normalize sales series, %w", err)
	}

	return f.forecast(td, report)
}

// RunSeries forecasts an already normalized series
func (f *Forecaster) RunSeries(td *timedataset.TimeDataset) (*Results, error) {
	if td == nil || td.Len() == 0 {
		return nil, timedataset.ErrNoTrainingData
	}
	if td.Len() < f.opt.IngestOptions.MinObservations {
		return nil, &ingest.InsufficientDataError{Observed: td.Len(), Required: f.opt.IngestOptions.MinObservations}
	}
	return f.forecast(td.Copy(), ingest.Report{Rows: td.Len(), Kept: td.Len()})
}

func (f *Forecaster) forecast(td *timedataset.TimeDataset, report ingest.Report) (*Results, error) {
	period := f.opt.SeasonalPeriod
	if period == 0 {
		period = forecast.SeasonalPeriod(td.Len())
	}

	hw, err := models.FitHoltWinters(td.Y, period, f.opt.HoltWintersOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to fit holt-winters model, %w", err)
	}

	cadence, err := timedataset.TimeSlice(td.T).EstimateCadence()
	if err != nil {
		return nil, fmt.Errorf("unable to infer observation cadence, %w", err)
	}

	last := timedataset.TimeSlice(td.T).EndTime()
	points, err := forecast.Predict(*hw, last, cadence, f.opt.Horizon)
	if err != nil {
		return nil, fmt.Errorf("unable to predict forecast points, %w", err)
	}

	scores, err := forecast.NewScores(hw.Fitted, td.Y)
	if err != nil {
		return nil, fmt.Errorf("unable to score fitted values, %w", err)
	}

	res := &Results{
		Points:  points,
		Total:   forecast.Aggregate(points),
		History: td,
		Fitted:  hw.Fitted,
		Model: forecast.Model{
			TrainEndTime: last,
			Cadence:      cadence,
			Smoothing:    hw,
			Scores:       scores,
		},
		Report: report,
	}
	slog.Info("forecast complete",
		"observations", td.Len(),
		"period", period,
		"cadence", cadence.String(),
		"horizon", f.opt.Horizon,
		"total", res.Total,
		"fallback", hw.Fallback,
	)
	return res, nil
}
