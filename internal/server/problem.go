package server

import (
	"errors"
	"net/http"

	"github.com/aouyang1/go-salesforecaster/forecast"
	"github.com/aouyang1/go-salesforecaster/ingest"
	"github.com/go-chi/render"
)

// Problem types following RFC 7807
const (
	TypeSchema           = "/errors/schema"
	TypeInsufficientData = "/errors/insufficient-data"
	TypeInvalidHorizon   = "/errors/invalid-horizon"
	TypeBadRequest       = "/errors/bad-request"
	TypePayloadTooLarge  = "/errors/payload-too-large"
	TypeUnsupportedMedia = "/errors/unsupported-media-type"
	TypeRateLimit        = "/errors/rate-limit"
	TypeInternal         = "/errors/internal"
)

var (
	ErrBadRequest       = errors.New("bad request")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrRateLimited      = errors.New("rate limit exceeded")
)

// Problem is an RFC 7807 problem details body extended with the pipeline error context
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
	RunID    string `json:"run_id,omitempty"`

	Missing  []string `json:"missing,omitempty"`
	Observed *int     `json:"observed,omitempty"`
	Required *int     `json:"required,omitempty"`
	Horizon  *int     `json:"horizon,omitempty"`
}

func (p *Problem) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, p.Status)
	return nil
}

// NewProblem maps err onto its status code and problem type
func NewProblem(err error, r *http.Request) *Problem {
	p := &Problem{
		Detail:   err.Error(),
		Instance: r.URL.Path,
		RunID:    RunID(r.Context()),
	}

	var (
		schemaErr  *ingest.SchemaError
		insErr     *ingest.InsufficientDataError
		horizonErr *forecast.InvalidHorizonError
		maxErr     *http.MaxBytesError
	)
	switch {
	case errors.As(err, &schemaErr):
		p.Status, p.Type, p.Title = http.StatusUnprocessableEntity, TypeSchema, "Missing Required Fields"
		p.Missing = schemaErr.Missing
	case errors.As(err, &insErr):
		p.Status, p.Type, p.Title = http.StatusUnprocessableEntity, TypeInsufficientData, "Insufficient Data"
		p.Observed, p.Required = &insErr.Observed, &insErr.Required
	case errors.As(err, &horizonErr):
		p.Status, p.Type, p.Title = http.StatusBadRequest, TypeInvalidHorizon, "Invalid Horizon"
		p.Horizon = &horizonErr.Horizon
	case errors.As(err, &maxErr):
		p.Status, p.Type, p.Title = http.StatusRequestEntityTooLarge, TypePayloadTooLarge, "Payload Too Large"
	case errors.Is(err, ErrUnsupportedMedia):
		p.Status, p.Type, p.Title = http.StatusUnsupportedMediaType, TypeUnsupportedMedia, "Unsupported Media Type"
	case errors.Is(err, ErrRateLimited):
		p.Status, p.Type, p.Title = http.StatusTooManyRequests, TypeRateLimit, "Too Many Requests"
	case errors.Is(err, ErrBadRequest):
		p.Status, p.Type, p.Title = http.StatusBadRequest, TypeBadRequest, "Bad Request"
	default:
		p.Status, p.Type, p.Title = http.StatusInternalServerError, TypeInternal, "Internal Server Error"
		p.Detail = "an unexpected error occurred"
	}
	return p
}
