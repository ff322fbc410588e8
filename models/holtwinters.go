package models

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

const MinSeasonalPeriod = 2

var (
	ErrConvergence        = errors.New("unable to fit smoothing coefficients")
	ErrPeriodTooSmall     = errors.New("seasonal period must be at least 2")
	ErrTooFewObservations = errors.New("need at least one full seasonal period of observations")
)

// ConvergenceError is returned by EstimateParams when no set of coefficients yields a
// usable finite loss.
type ConvergenceError struct {
	Reason string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s, %s", e.Reason, ErrConvergence)
}

func (e *ConvergenceError) Unwrap() error {
	return ErrConvergence
}

// Params are the level, trend and seasonal smoothing coefficients, each in [0, 1]
type Params struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// NaiveFallback is used when the coefficients cannot be estimated. The level jumps to each
// new observation while the trend and seasonal offsets keep their initial values, giving a
// last value plus seasonal offset forecast.
var NaiveFallback = Params{Alpha: 1, Beta: 0, Gamma: 0}

// HoltWinters is a fitted additive trend, additive seasonality exponential smoothing model.
// Seasonal holds the last Period seasonal offsets rotated so Seasonal[0] applies to the first
// step after the training series.
type HoltWinters struct {
	Params

	Level    float64   `json:"level"`
	Trend    float64   `json:"trend"`
	Seasonal []float64 `json:"seasonal"`
	Period   int       `json:"period"`

	SSE      float64   `json:"sse"`
	Fitted   []float64 `json:"-"`
	Fallback bool      `json:"fallback"`
}

// MarshalJSON encodes the model with a null sse when the in-sample error overflowed, which
// happens for fallback models over series whose squared errors exceed the float range
func (hw HoltWinters) MarshalJSON() ([]byte, error) {
	type Alias HoltWinters
	return json.Marshal(struct {
		Alias
		SSE *float64 `json:"sse"`
	}{
		Alias: Alias(hw),
		SSE:   finite(hw.SSE),
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// state is the level, trend and per phase seasonal offsets before an observation. season[j]
// holds the offset for observations whose zero based index is j modulo the period.
type state struct {
	level  float64
	trend  float64
	season []float64
}

// initialState fits a line over the first two seasonal cycles, or the whole series when it is
// shorter, and averages the detrended values per phase. The seasonal offsets are centered so
// they sum to zero.
func initialState(y []float64, period int) state {
	m := min(2*period, len(y))

	x := make([]float64, m)
	for i := range x {
		x[i] = float64(i + 1)
	}
	intercept, slope := stat.LinearRegression(x, y[:m], nil, false)

	season := make([]float64, period)
	counts := make([]float64, period)
	for i := 0; i < m; i++ {
		season[i%period] += y[i] - (intercept + slope*x[i])
		counts[i%period] += 1
	}
	floats.Div(season, counts)
	floats.AddConst(-floats.Sum(season)/float64(period), season)

	return state{level: intercept, trend: slope, season: season}
}

// run applies the smoothing recurrences over y and returns the sum of squared one step ahead
// errors with the state after the last observation. fitted is populated when non-nil.
func (s state) run(y []float64, p Params, fitted []float64) (float64, state) {
	level, trend := s.level, s.trend
	season := slices.Clone(s.season)
	period := len(season)

	var sse float64
	for i, obs := range y {
		j := i % period
		yhat := level + trend + season[j]
		if fitted != nil {
			fitted[i] = yhat
		}
		e := obs - yhat
		sse += e * e

		prevLevel := level
		level = p.Alpha*(obs-season[j]) + (1-p.Alpha)*(level+trend)
		trend = p.Beta*(level-prevLevel) + (1-p.Beta)*trend
		season[j] = p.Gamma*(obs-level) + (1-p.Gamma)*season[j]
	}
	return sse, state{level: level, trend: trend, season: season}
}

func (s state) loss(y []float64, p Params) float64 {
	sse, _ := s.run(y, p, nil)
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return math.Inf(1)
	}
	return sse
}

func clampParams(x []float64) Params {
	c := func(v float64) float64 {
		if math.IsNaN(v) {
			return 0
		}
		return math.Min(1, math.Max(0, v))
	}
	return Params{Alpha: c(x[0]), Beta: c(x[1]), Gamma: c(x[2])}
}

// EstimateParams finds the smoothing coefficients in [0, 1] minimizing the in-sample sum of
// squared one step ahead errors. A grid over the unit cube seeds a Nelder-Mead search whose
// points are projected back onto the cube. Both stages are deterministic, so identical inputs
// give identical coefficients regardless of parallelization.
func EstimateParams(y []float64, period int, opt *HoltWintersOptions) (Params, float64, error) {
	opt, err := opt.Validate()
	if err != nil {
		return Params{}, 0, err
	}
	if err := validateSeries(y, period); err != nil {
		return Params{}, 0, err
	}
	return estimate(y, initialState(y, period), opt)
}

func estimate(y []float64, init state, opt *HoltWintersOptions) (Params, float64, error) {
	if floats.Max(y) == floats.Min(y) {
		return Params{}, 0, &ConvergenceError{Reason: "series has zero variance"}
	}

	grid := make([]float64, opt.GridSteps)
	for i := range grid {
		grid[i] = float64(i) / float64(opt.GridSteps-1)
	}
	gridParams := func(idx int) Params {
		n := len(grid)
		return Params{Alpha: grid[idx/(n*n)], Beta: grid[(idx/n)%n], Gamma: grid[idx%n]}
	}

	// each candidate writes its own slot so the reduction below is order independent
	losses := make([]float64, len(grid)*len(grid)*len(grid))
	var g errgroup.Group
	g.SetLimit(opt.workers())
	for idx := range losses {
		g.Go(func() error {
			losses[idx] = init.loss(y, gridParams(idx))
			return nil
		})
	}
	_ = g.Wait()

	best := -1
	for idx, l := range losses {
		if math.IsInf(l, 1) {
			continue
		}
		if best < 0 || l < losses[best] {
			best = idx
		}
	}
	if best < 0 {
		return Params{}, 0, &ConvergenceError{Reason: "no coefficients produce a finite loss"}
	}
	bestParams, bestLoss := gridParams(best), losses[best]

	if opt.Iterations == 0 {
		return bestParams, bestLoss, nil
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return init.loss(y, clampParams(x))
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: opt.Iterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   opt.Tolerance,
			Relative:   opt.Tolerance,
			Iterations: 100,
		},
	}
	x0 := []float64{bestParams.Alpha, bestParams.Beta, bestParams.Gamma}
	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil {
		slog.Debug("simplex refinement stopped early", "error", err.Error())
	}
	if res == nil {
		return bestParams, bestLoss, nil
	}

	refined := clampParams(res.X)
	if refinedLoss := init.loss(y, refined); refinedLoss < bestLoss {
		return refined, refinedLoss, nil
	}
	return bestParams, bestLoss, nil
}

func validateSeries(y []float64, period int) error {
	if period < MinSeasonalPeriod {
		return fmt.Errorf("got period %d, %w", period, ErrPeriodTooSmall)
	}
	if len(y) < period {
		return fmt.Errorf("got %d observations for period %d, %w", len(y), period, ErrTooFewObservations)
	}
	return nil
}

// FitHoltWinters estimates the smoothing coefficients for y with the given seasonal period and
// returns the fitted model. When the coefficients cannot be estimated the NaiveFallback
// coefficients are used and the model is flagged as a fallback instead of failing.
func FitHoltWinters(y []float64, period int, opt *HoltWintersOptions) (*HoltWinters, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	if err := validateSeries(y, period); err != nil {
		return nil, err
	}

	init := initialState(y, period)

	var fallback bool
	params, _, err := estimate(y, init, opt)
	if err != nil {
		var convErr *ConvergenceError
		if !errors.As(err, &convErr) {
			return nil, err
		}
		slog.Warn("using naive fallback model", "reason", convErr.Reason, "observations", len(y), "period", period)
		params = NaiveFallback
		fallback = true
	}

	fitted := make([]float64, len(y))
	sse, final := init.run(y, params, fitted)

	seasonal := make([]float64, period)
	for k := range seasonal {
		seasonal[k] = final.season[(len(y)+k)%period]
	}

	hw := &HoltWinters{
		Params:   params,
		Level:    final.level,
		Trend:    final.trend,
		Seasonal: seasonal,
		Period:   period,
		SSE:      sse,
		Fitted:   fitted,
		Fallback: fallback,
	}
	slog.Debug("fit holt-winters",
		"alpha", params.Alpha, "beta", params.Beta, "gamma", params.Gamma,
		"period", period, "sse", sse, "fallback", fallback,
	)
	return hw, nil
}
