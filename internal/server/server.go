// Package server exposes the forecasting pipeline over HTTP. Sales data is posted as CSV, XLSX or
// JSON rows and the forecast is returned as JSON.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	forecaster "github.com/aouyang1/go-salesforecaster"
	"github.com/aouyang1/go-salesforecaster/internal/config"
	"github.com/aouyang1/go-salesforecaster/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Server serves forecast requests. Every request builds its own pipeline run so nothing is shared
// between requests besides the validated options and the metrics.
type Server struct {
	cfg     config.ServerConfig
	opt     *forecaster.Options
	logger  *slog.Logger
	metrics *metrics.Metrics
	router  chi.Router
}

// New validates the forecast options in cfg and builds the router
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	opt, err := cfg.ForecasterOptions().Validate()
	if err != nil {
		return nil, fmt.Errorf("unable to validate forecast options, %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		cfg:     cfg.Server,
		opt:     opt,
		logger:  logger.With("component", "server"),
		metrics: metrics.New(reg),
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(structuredLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Group(func(r chi.Router) {
		if cfg.Server.RateLimit.Enabled {
			r.Use(rateLimit(rate.NewLimiter(rate.Limit(cfg.Server.RateLimit.RPS), cfg.Server.RateLimit.Burst)))
		}
		r.Post("/v1/forecast", s.handleForecast)
	})
	s.router = r
	return s, nil
}

// Handler returns the root http handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured address until ctx is cancelled, then drains in flight
// requests for up to the shutdown timeout
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("unable to serve, %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	p := NewProblem(err, r)
	if p.Status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "forecast failed", "run_id", p.RunID, "error", err.Error())
	} else {
		s.logger.WarnContext(r.Context(), "forecast rejected", "run_id", p.RunID, "status", p.Status, "error", err.Error())
	}
	render.Render(w, r, p)
}
