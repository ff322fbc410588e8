package forecaster

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-salesforecaster/forecast"
	"github.com/aouyang1/go-salesforecaster/ingest"
	"github.com/aouyang1/go-salesforecaster/models"
	"github.com/go-playground/validator/v10"
)

// DefaultHorizon is the number of future steps forecasted, half a year of monthly sales
const DefaultHorizon = 6

var ErrInvalidOptions = errors.New("invalid forecaster options")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Options configures a forecasting run
type Options struct {
	// Horizon is the number of steps to forecast past the last observation
	Horizon int `json:"horizon" yaml:"horizon" validate:"gte=1"`

	// SeasonalPeriod overrides the automatic period selection when non-zero
	SeasonalPeriod int `json:"seasonal_period,omitempty" yaml:"seasonal_period" validate:"omitempty,gte=2"`

	IngestOptions      *ingest.Options            `json:"-" yaml:"-" validate:"-"`
	HoltWintersOptions *models.HoltWintersOptions `json:"-" yaml:"-" validate:"-"`
}

// NewDefaultOptions returns the default six step forecast with automatic period selection
func NewDefaultOptions() *Options {
	return &Options{
		Horizon:            DefaultHorizon,
		IngestOptions:      ingest.NewDefaultOptions(),
		HoltWintersOptions: models.NewDefaultHoltWintersOptions(),
	}
}

// Validate checks the options and returns a copy with any unset sub options defaulted. A nil
// receiver returns the defaults.
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}

	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.StructField() == "Horizon" {
					return nil, &forecast.InvalidHorizonError{Horizon: o.Horizon}
				}
			}
		}
		return nil, fmt.Errorf("%w, %w", ErrInvalidOptions, err)
	}

	ingestOpt, err := o.IngestOptions.Validate()
	if err != nil {
		return nil, fmt.Errorf("unable to validate ingest options, %w", err)
	}
	hwOpt, err := o.HoltWintersOptions.Validate()
	if err != nil {
		return nil, fmt.Errorf("unable to validate holt-winters options, %w", err)
	}

	return &Options{
		Horizon:            o.Horizon,
		SeasonalPeriod:     o.SeasonalPeriod,
		IngestOptions:      ingestOpt,
		HoltWintersOptions: hwOpt,
	}, nil
}
