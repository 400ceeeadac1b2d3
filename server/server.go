// Package server exposes the HTTP observability surface: health,
// status, and metrics. It injects correlation IDs into request
// contexts for consistent logging.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/chatfilter/pipeline"
	"github.com/onnwee/chatfilter/telemetry"
)

// NewMux returns the HTTP handler with all routes.
func NewMux(pipe *pipeline.Pipeline) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", handleHealthz)
	mux.HandleFunc("/status", handleStatus(pipe))

	return withCorrelation(mux)
}

// Start runs the HTTP server until the context is canceled.
func Start(ctx context.Context, pipe *pipeline.Pipeline, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMux(pipe),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown failed", slog.Any("err", err))
		}
	}()
	slog.Info("http server listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// statusPayload reports registry and cache sizes plus the redirect
// setting.
type statusPayload struct {
	Patterns struct {
		Ignored     int `json:"ignored"`
		Catchers    int `json:"catchers"`
		Filters     int `json:"filters"`
		NickFilters int `json:"nick_filters"`
		Customs     int `json:"customs"`
	} `json:"patterns"`
	Caches struct {
		Ignored int `json:"ignored"`
		Caught  int `json:"caught"`
	} `json:"caches"`
	Redirect bool `json:"redirect"`
}

func handleStatus(pipe *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p statusPayload
		p.Patterns.Ignored = pipe.Ignored.Len()
		p.Patterns.Catchers = pipe.Catchers.Len()
		p.Patterns.Filters = pipe.Filters.Len()
		p.Patterns.NickFilters = pipe.NickFilters.Len()
		p.Patterns.Customs = pipe.Customs.Len()
		p.Caches.Ignored = pipe.IgnoredMsgs.Len()
		p.Caches.Caught = pipe.CaughtMsgs.Len()
		p.Redirect = pipe.Redirect()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(p); err != nil {
			telemetry.LoggerWithCorr(r.Context()).Error("status encode failed", slog.Any("err", err))
		}
	}
}

// withCorrelation reuses an incoming correlation header or generates
// one, echoes it back, and wraps the request in a tracing span.
func withCorrelation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.New().String()
		}
		ctx := telemetry.WithCorrelation(r.Context(), corr)
		w.Header().Set("X-Correlation-ID", corr)

		ctx, span := telemetry.StartSpan(ctx, "http-server", r.Method+" "+r.URL.Path,
			telemetry.HTTPMethodAttr(r.Method),
			telemetry.HTTPRouteAttr(r.URL.Path),
		)
		defer span.End()

		telemetry.LoggerWithCorr(ctx).Debug("request start",
			slog.String("method", r.Method), slog.String("path", r.URL.Path),
			slog.String("component", "http"))

		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))
		telemetry.SetSpanHTTPStatus(span, rec.statusCode)
	})
}

// statusRecorder wraps ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
