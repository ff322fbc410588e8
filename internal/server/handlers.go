package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	forecaster "github.com/aouyang1/go-salesforecaster"
	"github.com/aouyang1/go-salesforecaster/ingest"
	"github.com/aouyang1/go-salesforecaster/internal/metrics"
	"github.com/go-chi/render"
)

const (
	mediaCSV       = "text/csv"
	mediaXLSX      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mediaJSON      = "application/json"
	mediaMultipart = "multipart/form-data"
)

// ForecastRequest is the JSON request body
type ForecastRequest struct {
	Horizon *int         `json:"horizon,omitempty"`
	Rows    []ingest.Row `json:"rows"`
}

// ForecastResponse is the JSON response body
type ForecastResponse struct {
	RunID string `json:"run_id"`
	*forecaster.Results
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	tbl, horizon, err := s.decodeRequest(r)
	if err != nil {
		s.metrics.Runs.WithLabelValues(metrics.OutcomeBadInput).Inc()
		s.renderError(w, r, err)
		return
	}

	opt := *s.opt
	if horizon != nil {
		opt.Horizon = *horizon
	}
	f, err := forecaster.New(&opt)
	if err != nil {
		s.metrics.ObserveRun(nil, err, 0)
		s.renderError(w, r, err)
		return
	}

	start := time.Now()
	res, err := f.Run(tbl)
	s.metrics.ObserveRun(res, err, time.Since(start))
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, ForecastResponse{RunID: RunID(r.Context()), Results: res})
}

// decodeRequest reads the sales table and an optional horizon override from a multipart upload,
// a raw CSV or XLSX body, or JSON rows
func (s *Server) decodeRequest(r *http.Request) (ingest.Table, *int, error) {
	mediaType := mediaJSON
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return ingest.Table{}, nil, fmt.Errorf("%w, %w", ErrBadRequest, err)
		}
		mediaType = mt
	}

	horizon, err := parseHorizon(r.URL.Query().Get("horizon"))
	if err != nil {
		return ingest.Table{}, nil, err
	}

	var tbl ingest.Table
	switch mediaType {
	case mediaMultipart:
		if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
			return ingest.Table{}, nil, fmt.Errorf("%w, unable to parse upload, %w", ErrBadRequest, err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return ingest.Table{}, nil, fmt.Errorf("%w, missing file field, %w", ErrBadRequest, err)
		}
		defer file.Close()

		if strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
			tbl, err = ingest.ReadXLSX(file, r.FormValue("sheet"))
		} else {
			tbl, err = ingest.ReadCSV(file)
		}
		if err != nil {
			return ingest.Table{}, nil, fmt.Errorf("%w, %w", ErrBadRequest, err)
		}
		if h := r.FormValue("horizon"); h != "" && horizon == nil {
			if horizon, err = parseHorizon(h); err != nil {
				return ingest.Table{}, nil, err
			}
		}
	case mediaCSV:
		if tbl, err = ingest.ReadCSV(r.Body); err != nil {
			return ingest.Table{}, nil, fmt.Errorf("%w, %w", ErrBadRequest, err)
		}
	case mediaXLSX:
		if tbl, err = ingest.ReadXLSX(r.Body, r.URL.Query().Get("sheet")); err != nil {
			return ingest.Table{}, nil, fmt.Errorf("%w, %w", ErrBadRequest, err)
		}
	case mediaJSON:
		var req ForecastRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			return ingest.Table{}, nil, fmt.Errorf("%w, unable to decode rows, %w", ErrBadRequest, err)
		}
		tbl = ingest.NewTable(req.Rows)
		if horizon == nil {
			horizon = req.Horizon
		}
	default:
		return ingest.Table{}, nil, fmt.Errorf("got %q, %w", mediaType, ErrUnsupportedMedia)
	}
	return tbl, horizon, nil
}

func parseHorizon(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	h, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w, horizon %q is not an integer", ErrBadRequest, raw)
	}
	return &h, nil
}
