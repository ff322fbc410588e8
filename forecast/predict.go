package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/go-salesforecaster/models"
	"github.com/aouyang1/go-salesforecaster/timedataset"
)

// BandFraction is the relative half width of the uncertainty band around each point forecast
const BandFraction = 0.10

var (
	ErrInvalidHorizon = errors.New("forecast horizon must be positive")
	ErrInvalidCadence = errors.New("cadence does not move time forward")
	ErrEmptySeasonal  = errors.New("model has no seasonal offsets")
)

// InvalidHorizonError is returned when a non-positive number of steps is requested
type InvalidHorizonError struct {
	Horizon int
}

func (e *InvalidHorizonError) Error() string {
	return fmt.Sprintf("got horizon %d, %s", e.Horizon, ErrInvalidHorizon)
}

func (e *InvalidHorizonError) Unwrap() error {
	return ErrInvalidHorizon
}

// Point is a single future step with its point estimate and band
type Point struct {
	T        time.Time `json:"time"`
	Forecast float64   `json:"forecast"`
	Lower    float64   `json:"lower"`
	Upper    float64   `json:"upper"`
}

// Band returns the interval BandFraction either side of p. The bounds are ordered so a negative
// forecast still has lower <= p <= upper.
func Band(p float64) (float64, float64) {
	a, b := (1-BandFraction)*p, (1+BandFraction)*p
	return math.Min(a, b), math.Max(a, b)
}

// Predict extends the fitted model horizon steps past last, spacing the timestamps by cadence
func Predict(m models.HoltWinters, last time.Time, cadence timedataset.Cadence, horizon int) ([]Point, error) {
	if horizon <= 0 {
		return nil, &InvalidHorizonError{Horizon: horizon}
	}
	if len(m.Seasonal) == 0 {
		return nil, ErrEmptySeasonal
	}
	if !cadence.Valid() {
		return nil, fmt.Errorf("got cadence %s, %w", cadence, ErrInvalidCadence)
	}

	period := len(m.Seasonal)
	points := make([]Point, 0, horizon)
	for h := 1; h <= horizon; h++ {
		yhat := m.Level + float64(h)*m.Trend + m.Seasonal[(h-1)%period]
		lower, upper := Band(yhat)
		points = append(points, Point{
			T:        cadence.Step(last, h),
			Forecast: yhat,
			Lower:    lower,
			Upper:    upper,
		})
	}
	return points, nil
}

// Aggregate sums the point estimates in order
func Aggregate(points []Point) float64 {
	var total float64
	for _, p := range points {
		total += p.Forecast
	}
	return total
}
