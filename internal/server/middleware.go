package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// RunIDHeader carries the run id on every response
const RunIDHeader = "X-Request-ID"

type runIDKey struct{}

// RunID returns the run id assigned by the request id middleware
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// requestID accepts a caller supplied id or generates a new one
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RunIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RunIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), runIDKey{}, id)))
	})
}

func structuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.InfoContext(r.Context(), "request completed",
				"run_id", RunID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
			)
		})
	}
}

func rateLimit(limiter *rate.Limiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				render.Render(w, r, NewProblem(ErrRateLimited, r))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
