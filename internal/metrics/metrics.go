package metrics

import (
	"errors"
	"time"

	forecaster "github.com/aouyang1/go-salesforecaster"
	"github.com/aouyang1/go-salesforecaster/forecast"
	"github.com/aouyang1/go-salesforecaster/ingest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes used as the outcome label
const (
	OutcomeOK               = "ok"
	OutcomeSchema           = "schema_error"
	OutcomeInsufficientData = "insufficient_data"
	OutcomeInvalidHorizon   = "invalid_horizon"
	OutcomeBadInput         = "bad_input"
	OutcomeError            = "error"
)

// Metrics holds the Prometheus collectors for forecasting runs
type Metrics struct {
	Runs        *prometheus.CounterVec
	RowsDropped *prometheus.CounterVec
	Fallbacks   prometheus.Counter
	Duration    prometheus.Histogram
	Total       prometheus.Gauge
}

// New creates and registers all metrics with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salesfc_runs_total",
				Help: "Number of forecasting runs by outcome",
			},
			[]string{"outcome"},
		),
		RowsDropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salesfc_rows_dropped_total",
				Help: "Number of input rows dropped during normalization by reason",
			},
			[]string{"reason"},
		),
		Fallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "salesfc_fallback_models_total",
			Help: "Number of runs that used the naive fallback coefficients",
		}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "salesfc_run_duration_seconds",
			Help:    "Time spent in a forecasting run",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		Total: f.NewGauge(prometheus.GaugeOpts{
			Name: "salesfc_last_forecast_total",
			Help: "Aggregate of the most recent successful forecast",
		}),
	}
}

// Outcome classifies a run error into one of the outcome labels
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ingest.ErrSchema):
		return OutcomeSchema
	case errors.Is(err, ingest.ErrInsufficientData):
		return OutcomeInsufficientData
	case errors.Is(err, forecast.ErrInvalidHorizon):
		return OutcomeInvalidHorizon
	case errors.Is(err, ingest.ErrNoHeader), errors.Is(err, ingest.ErrNoSheets):
		return OutcomeBadInput
	default:
		return OutcomeError
	}
}

// ObserveRun records a run that took d and produced res or err
func (m *Metrics) ObserveRun(res *forecaster.Results, err error, d time.Duration) {
	m.Runs.WithLabelValues(Outcome(err)).Inc()
	m.Duration.Observe(d.Seconds())
	if err != nil || res == nil {
		return
	}

	m.RowsDropped.WithLabelValues("missing").Add(float64(res.Report.Missing))
	m.RowsDropped.WithLabelValues("invalid_time").Add(float64(res.Report.InvalidTime))
	m.RowsDropped.WithLabelValues("invalid_value").Add(float64(res.Report.InvalidValue))
	m.RowsDropped.WithLabelValues("duplicate").Add(float64(res.Report.Duplicates))
	if res.Model.Smoothing != nil && res.Model.Smoothing.Fallback {
		m.Fallbacks.Inc()
	}
	m.Total.Set(res.Total)
}
