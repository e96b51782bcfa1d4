package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tgwallet"

// Metrics holds the application's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec

	cacheLookups       *prometheus.CounterVec
	cacheInvalidations *prometheus.CounterVec
	sessions           prometheus.Gauge

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a Metrics with its own registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		upstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Requests issued to the wallet backend.",
			},
			[]string{"method", "endpoint", "outcome"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "request_duration_seconds",
				Help:      "Duration of requests to the wallet backend.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"method", "endpoint"},
		),

		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "query_cache",
				Name:      "lookups_total",
				Help:      "Query cache lookups by result (hit, stale, miss, joined, disabled).",
			},
			[]string{"operation", "result"},
		),
		cacheInvalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "query_cache",
				Name:      "invalidations_total",
				Help:      "Query cache entries invalidated.",
			},
			[]string{"operation"},
		),
		sessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "web",
				Name:      "sessions",
				Help:      "Live sessions holding a query cache.",
			},
		),

		httpInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "inflight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"method", "path"},
		),
	}

	m.Registry.MustRegister(
		m.upstreamRequests,
		m.upstreamDuration,
		m.cacheLookups,
		m.cacheInvalidations,
		m.sessions,
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler returns an HTTP handler exposing the registered metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveUpstream records one backend request
func (m *Metrics) ObserveUpstream(method, path, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	endpoint := EndpointLabel(path)
	m.upstreamRequests.WithLabelValues(method, endpoint, outcome).Inc()
	m.upstreamDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

// CacheLookup records a query cache lookup result
func (m *Metrics) CacheLookup(operation, result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(operation, result).Inc()
}

// CacheInvalidation records an invalidated entry
func (m *Metrics) CacheInvalidation(operation string) {
	if m == nil {
		return
	}
	m.cacheInvalidations.WithLabelValues(operation).Inc()
}

// SetSessions reports the number of live sessions
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

// Middleware records HTTP metrics for each request
func (m *Metrics) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			m.httpInFlight.Inc()
			defer m.httpInFlight.Dec()

			wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			path := EndpointLabel(r.URL.Path)
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					path = tpl
				}
			}

			m.httpRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
			m.httpDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

var numericSegment = regexp.MustCompile(`^[0-9][0-9-]*$`)

// EndpointLabel strips query strings and replaces numeric path segments
// with ":id" to keep label cardinality bounded.
func EndpointLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(path, "/")
	for i, s := range segments {
		switch {
		case numericSegment.MatchString(s):
			segments[i] = ":id"
		case i > 0 && segments[i-1] == "user" && s != "":
			// user/<id_or_username>
			segments[i] = ":key"
		}
	}
	return strings.Join(segments, "/")
}
