package forecast

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScores(t *testing.T) {
	testData := map[string]struct {
		predicted []float64
		actual    []float64
		expected  *Scores
		err       error
	}{
		"exact": {
			predicted: []float64{1, 2, 3, 4},
			actual:    []float64{1, 2, 3, 4},
			expected:  &Scores{MSE: 0, MAPE: 0, R2: 1},
		},
		"offset": {
			predicted: []float64{2, 3, 4, 5},
			actual:    []float64{1, 2, 4, 5},
			expected:  &Scores{MSE: 0.5, MAPE: 0.375, R2: 0.8},
		},
		"zero actual skipped for percent error": {
			predicted: []float64{1, 2},
			actual:    []float64{0, 4},
			expected:  &Scores{MSE: 2.5, MAPE: 0.5, R2: 0.375},
		},
		"constant matched": {
			predicted: []float64{100, 100, 100},
			actual:    []float64{100, 100, 100},
			expected:  &Scores{MSE: 0, MAPE: 0, R2: 1},
		},
		"constant missed": {
			predicted: []float64{90, 100, 110},
			actual:    []float64{100, 100, 100},
			expected:  &Scores{MSE: 200.0 / 3.0, MAPE: 0.2 / 3.0, R2: 0},
		},
		"length mismatch": {
			predicted: []float64{1},
			actual:    []float64{1, 2},
			err:       ErrResLenMismatch,
		},
		"empty": {
			err: ErrNoScoredValues,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			scores, err := NewScores(td.predicted, td.actual)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.InDelta(t, td.expected.MSE, scores.MSE, 1e-9)
			assert.InDelta(t, td.expected.MAPE, scores.MAPE, 1e-9)
			assert.InDelta(t, td.expected.R2, scores.R2, 1e-9)
		})
	}
}

func TestScoresJSON(t *testing.T) {
	testData := map[string]struct {
		scores   Scores
		expected string
	}{
		"finite": {
			scores:   Scores{MSE: 0.5, MAPE: 0.25, R2: 0.8},
			expected: `{"mean_squared_error":0.5,"mean_average_percent_error":0.25,"r_squared":0.8}`,
		},
		"overflowed error": {
			scores:   Scores{MSE: math.Inf(1), MAPE: 0.25, R2: math.NaN()},
			expected: `{"mean_squared_error":null,"mean_average_percent_error":0.25,"r_squared":null}`,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			out, err := json.Marshal(td.scores)
			require.Nil(t, err)
			assert.JSONEq(t, td.expected, string(out))
		})
	}
}
