package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tripsync/tripsync/internal/models"
)

const namespace = "tripsync"

// Collector exposes Prometheus metrics for inbound HTTP requests, match runs,
// provider fetches and caches on a private registry.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	matchRuns        *prometheus.CounterVec
	matchOccurrences *prometheus.CounterVec
	matchFallbacks   prometheus.Counter
	matchDuration    *prometheus.HistogramVec

	providerFetches *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
}

// NewCollector constructs a collector with default histograms/counters.
func NewCollector() (*Collector, error) {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution for inbound HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests.",
		}, []string{"method", "path", "status"}),
		matchRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "runs_total",
			Help:      "Total number of match runs by mode.",
		}, []string{"mode"}),
		matchOccurrences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "occurrences_total",
			Help:      "Total number of occurrences emitted by mode.",
		}, []string{"mode"}),
		matchFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "fallbacks_total",
			Help:      "Total number of overlap runs that returned a fallback.",
		}),
		matchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "duration_seconds",
			Help:      "Engine run latency by mode.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"mode"}),
		providerFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "fetch_total",
			Help:      "Provider fetches by outcome.",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by cache and result.",
		}, []string{"cache", "result"}),
	}

	collectors := []prometheus.Collector{
		c.requestDuration,
		c.requestTotal,
		c.matchRuns,
		c.matchOccurrences,
		c.matchFallbacks,
		c.matchDuration,
		c.providerFetches,
		c.cacheLookups,
	}
	for _, col := range collectors {
		if err := c.registry.Register(col); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// ObserveMatch records one engine run.
func (c *Collector) ObserveMatch(mode models.Mode, occurrences int, fallback bool, elapsed time.Duration) {
	label := string(mode)
	c.matchRuns.WithLabelValues(label).Inc()
	c.matchOccurrences.WithLabelValues(label).Add(float64(occurrences))
	c.matchDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	if fallback {
		c.matchFallbacks.Inc()
	}
}

// ObserveFetch records one provider fetch outcome.
func (c *Collector) ObserveFetch(outcome string) {
	c.providerFetches.WithLabelValues(outcome).Inc()
}

// ObserveCache records a cache lookup.
func (c *Collector) ObserveCache(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(cache, result).Inc()
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
