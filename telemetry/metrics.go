// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	EventsTotal       prometheus.Counter
	EventsIgnored     prometheus.Counter
	EventsCaught      prometheus.Counter
	EventsHighlighted prometheus.Counter
	DedupHits         prometheus.Counter
	RenderErrors      prometheus.Counter
	ReemittedTotal    prometheus.Counter

	// Gauges
	IgnoredCacheSize   prometheus.Gauge
	CaughtCacheSize    prometheus.Gauge
	RegisteredPatterns *prometheus.GaugeVec
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		EventsTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "chatfilter_events_total", Help: "Number of chat events delivered to the pipeline"})
		EventsIgnored = promauto.NewCounter(prometheus.CounterOpts{Name: "chatfilter_events_ignored_total", Help: "Number of events suppressed by the ignore list"})
		EventsCaught = promauto.NewCounter(prometheus.CounterOpts{Name: "chatfilter_events_caught_total", Help: "Number of events retained by a catcher"})
		EventsHighlighted = promauto.NewCounter(prometheus.CounterOpts{Name: "chatfilter_events_highlighted_total", Help: "Number of events re-emitted with at least one styled token"})
		DedupHits = promauto.NewCounter(prometheus.CounterOpts{Name: "chatfilter_dedup_hits_total", Help: "Number of duplicate caught messages collapsed by the dedup id"})
		RenderErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "chatfilter_render_errors_total", Help: "Number of per-message render failures passed through unmodified"})
		ReemittedTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "chatfilter_reemitted_total", Help: "Number of modified messages re-emitted through the recursion guard"})
		IgnoredCacheSize = promauto.NewGauge(prometheus.GaugeOpts{Name: "chatfilter_ignored_cache_size", Help: "Current number of records in the ignored-message ring"})
		CaughtCacheSize = promauto.NewGauge(prometheus.GaugeOpts{Name: "chatfilter_caught_cache_size", Help: "Current number of records in the caught-message store"})
		RegisteredPatterns = promauto.NewGaugeVec(prometheus.GaugeOpts{Name: "chatfilter_registered_patterns", Help: "Registered pattern count per registry"}, []string{"registry"})
	})
}

// SetCacheSizes records current cache occupancy.
func SetCacheSizes(ignored, caught int) {
	if IgnoredCacheSize != nil {
		IgnoredCacheSize.Set(float64(ignored))
	}
	if CaughtCacheSize != nil {
		CaughtCacheSize.Set(float64(caught))
	}
}

// SetPatternCount records the size of one registry.
func SetPatternCount(registry string, n int) {
	if RegisteredPatterns != nil {
		RegisteredPatterns.WithLabelValues(registry).Set(float64(n))
	}
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if corr := GetCorrelation(ctx); corr != "" {
		return slog.Default().With(slog.String("corr", corr))
	}
	return slog.Default()
}
