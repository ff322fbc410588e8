package forecast

import (
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrResLenMismatch = errors.New("predicted and actual have different lengths")
	ErrNoScoredValues = errors.New("no values to score")
)

// Scores tracks the in-sample one step ahead fit scores
type Scores struct {
	MSE  float64 `json:"mean_squared_error"`
	MAPE float64 `json:"mean_average_percent_error"`
	R2   float64 `json:"r_squared"`
}

// MarshalJSON writes non-finite scores as null
func (s Scores) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MSE  *float64 `json:"mean_squared_error"`
		MAPE *float64 `json:"mean_average_percent_error"`
		R2   *float64 `json:"r_squared"`
	}{
		MSE:  finite(s.MSE),
		MAPE: finite(s.MAPE),
		R2:   finite(s.R2),
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NewScores calculates the fit scores given the predicted and actual input slice values
func NewScores(predicted, actual []float64) (*Scores, error) {
	mse, err := MSE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared error, %w", err)
	}
	mape, err := MAPE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean average percent error, %w", err)
	}
	rs, err := RSquared(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute r-squared, %w", err)
	}

	return &Scores{
		MSE:  mse,
		MAPE: mape,
		R2:   rs,
	}, nil
}

func checkLen(predicted, actual []float64) error {
	if len(predicted) != len(actual) {
		return fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}
	if len(actual) == 0 {
		return ErrNoScoredValues
	}
	return nil
}

// MSE computes the mean squared error, mean((y-yhat)^2). A score of 0 means a perfect match.
func MSE(predicted, actual []float64) (float64, error) {
	if err := checkLen(predicted, actual); err != nil {
		return 0, err
	}

	var sum float64
	for i := range actual {
		e := actual[i] - predicted[i]
		sum += e * e
	}
	return sum / float64(len(actual)), nil
}

// MAPE calculates the mean absolute percent error, mean(abs((y-yhat)/y)), over the actual values
// that are non-zero. Sales periods with zero revenue carry no percent error.
func MAPE(predicted, actual []float64) (float64, error) {
	if err := checkLen(predicted, actual); err != nil {
		return 0, err
	}

	var (
		sum float64
		cnt int
	)
	for i := range actual {
		if actual[i] == 0 {
			continue
		}
		sum += math.Abs((actual[i] - predicted[i]) / actual[i])
		cnt += 1
	}
	if cnt == 0 {
		return 0, nil
	}
	return sum / float64(cnt), nil
}

// RSquared computes the coefficient of determination where 1.0 means a perfect fit. A constant
// series scores 1 when matched exactly and 0 otherwise.
func RSquared(predicted, actual []float64) (float64, error) {
	if err := checkLen(predicted, actual); err != nil {
		return 0, err
	}

	r2 := stat.RSquaredFrom(predicted, actual, nil)
	switch {
	case math.IsNaN(r2):
		return 1.0, nil
	case math.IsInf(r2, 0):
		return 0, nil
	}
	return r2, nil
}
