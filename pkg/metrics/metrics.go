package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	refreshRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mfrank",
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Total number of refresh runs by trigger and outcome.",
		},
		[]string{"trigger", "outcome"},
	)

	refreshDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mfrank",
			Subsystem: "refresh",
			Name:      "run_duration_seconds",
			Help:      "Duration of refresh runs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17m
		},
		[]string{"trigger"},
	)

	refreshInstruments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mfrank",
			Subsystem: "refresh",
			Name:      "instruments_total",
			Help:      "Instruments processed by refresh runs, by outcome.",
		},
		[]string{"outcome"},
	)

	upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mfrank",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Requests made to upstream data sources.",
		},
		[]string{"host", "status"},
	)

	upstreamRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mfrank",
			Subsystem: "upstream",
			Name:      "retries_total",
			Help:      "Retried upstream requests.",
		},
		[]string{"host"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mfrank",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	Registry.MustRegister(
		refreshRuns,
		refreshDuration,
		refreshInstruments,
		upstreamRequests,
		upstreamRetries,
		httpRequests,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveRefreshRun records a completed refresh run.
func ObserveRefreshRun(trigger, outcome string, d time.Duration) {
	refreshRuns.WithLabelValues(trigger, outcome).Inc()
	refreshDuration.WithLabelValues(trigger).Observe(d.Seconds())
}

// IncInstrument records one instrument outcome ("ok" or a failure stage).
func IncInstrument(outcome string) {
	refreshInstruments.WithLabelValues(outcome).Inc()
}

// ObserveUpstream records one upstream response (or "error" when no response arrived).
func ObserveUpstream(host string, statusCode int) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	upstreamRequests.WithLabelValues(host, status).Inc()
}

// IncUpstreamRetry records a retried upstream request.
func IncUpstreamRetry(host string) {
	upstreamRetries.WithLabelValues(host).Inc()
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		httpRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
