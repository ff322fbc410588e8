package forecaster

import (
	"errors"
	"io"
	"math"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var ErrNoResults = errors.New("no forecast results to plot")

func lineValue(v float64) opts.LineData {
	if math.IsNaN(v) {
		return opts.LineData{Value: nil}
	}
	return opts.LineData{Value: v}
}

func axisLabels(t []time.Time) []string {
	labels := make([]string, 0, len(t))
	for _, ts := range t {
		labels = append(labels, ts.Format(time.DateOnly))
	}
	return labels
}

// LineTSeries generates an echart multi-line chart for some arbitrary time/value combination. Each
// series in y must have the same length as t. NaN values are left as gaps.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	line = line.SetXAxis(axisLabels(t))
	for i, series := range seriesName {
		lineData := make([]opts.LineData, 0, len(y[i]))
		for _, v := range y[i] {
			lineData = append(lineData, lineValue(v))
		}
		line = line.AddSeries(series, lineData)
	}
	return line
}

// LineForecaster generates an echart line chart of the history, the one step ahead fit and the
// forecast with its lower and upper band
func LineForecaster(res *Results) *charts.Line {
	n := res.History.Len()
	h := len(res.Points)

	t := make([]time.Time, 0, n+h)
	t = append(t, res.History.T...)

	actual := make([]float64, 0, n+h)
	actual = append(actual, res.History.Y...)
	fitted := make([]float64, 0, n+h)
	fitted = append(fitted, res.Fitted...)

	forecastY := make([]float64, 0, n+h)
	upper := make([]float64, 0, n+h)
	lower := make([]float64, 0, n+h)
	for i := 0; i < n; i++ {
		forecastY = append(forecastY, math.NaN())
		upper = append(upper, math.NaN())
		lower = append(lower, math.NaN())
	}

	for _, p := range res.Points {
		t = append(t, p.T)
		actual = append(actual, math.NaN())
		fitted = append(fitted, math.NaN())
		forecastY = append(forecastY, p.Forecast)
		upper = append(upper, p.Upper)
		lower = append(lower, p.Lower)
	}

	return LineTSeries(
		"Sales Forecast",
		[]string{"Actual", "Fitted", "Forecast", "Upper", "Lower"},
		t,
		[][]float64{actual, fitted, forecastY, upper, lower},
	)
}

// PlotForecast uses the Apache Echarts library to render an html page with the forecast chart and
// the in-sample residual of the fit
func PlotForecast(w io.Writer, res *Results) error {
	if res == nil || res.History == nil || res.History.Len() == 0 {
		return ErrNoResults
	}

	residual := make([]float64, res.History.Len())
	for i, y := range res.History.Y {
		residual[i] = y - res.Fitted[i]
	}

	page := components.NewPage()
	page.AddCharts(
		LineForecaster(res),
		LineTSeries(
			"Fit Residual",
			[]string{"Residual"},
			res.History.T,
			[][]float64{residual},
		),
	)
	return page.Render(w)
}
