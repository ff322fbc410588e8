package models

import (
	"errors"
	"runtime"
)

const (
	DefaultGridSteps  = 11
	DefaultIterations = 2000
	DefaultTolerance  = 1e-10
)

var (
	ErrInvalidGridSteps        = errors.New("grid steps must be at least 2")
	ErrNegativeIterations      = errors.New("negative iterations")
	ErrNegativeTolerance       = errors.New("negative tolerance")
	ErrNegativeParallelization = errors.New("negative parallelization")
)

// HoltWintersOptions controls the smoothing coefficient search
type HoltWintersOptions struct {
	// GridSteps is the number of evenly spaced values per coefficient, endpoints included, used
	// to seed the simplex search. 11 evaluates 0.0, 0.1, ... 1.0.
	GridSteps int

	// Iterations is the maximum number of loss evaluations the simplex refinement may spend.
	Iterations int

	// Tolerance is the absolute and relative loss improvement below which the refinement stops.
	Tolerance float64

	// Parallelization is the number of goroutines evaluating grid candidates. 0 uses GOMAXPROCS.
	// The fit is identical for any value.
	Parallelization int
}

// NewDefaultHoltWintersOptions returns a default set of coefficient search options
func NewDefaultHoltWintersOptions() *HoltWintersOptions {
	return &HoltWintersOptions{
		GridSteps:  DefaultGridSteps,
		Iterations: DefaultIterations,
		Tolerance:  DefaultTolerance,
	}
}

// Validate runs basic validation on Holt-Winters options
func (o *HoltWintersOptions) Validate() (*HoltWintersOptions, error) {
	if o == nil {
		o = NewDefaultHoltWintersOptions()
	}

	if o.GridSteps < 2 {
		return nil, ErrInvalidGridSteps
	}
	if o.Iterations < 0 {
		return nil, ErrNegativeIterations
	}
	if o.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	if o.Parallelization < 0 {
		return nil, ErrNegativeParallelization
	}
	return o, nil
}

func (o *HoltWintersOptions) workers() int {
	if o.Parallelization == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Parallelization
}
