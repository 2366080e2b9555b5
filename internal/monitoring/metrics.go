package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/rfp-scorer/internal/model"
)

const defaultNamespace = "rfp_scorer"

// MetricsOption applies a configuration option to Metrics.
type MetricsOption func(*Metrics)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) MetricsOption {
	return func(m *Metrics) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the subsystem for all metrics.
func WithSubsystem(subsystem string) MetricsOption {
	return func(m *Metrics) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithHistogramBuckets sets custom buckets for the duration histograms.
func WithHistogramBuckets(buckets []float64) MetricsOption {
	return func(m *Metrics) {
		if len(buckets) > 0 {
			m.durationBuckets = buckets
		}
	}
}

// WithRegistry registers the collectors on reg instead of a private registry.
// The registry must also be a Gatherer for Handler to serve it.
func WithRegistry(reg *prometheus.Registry) MetricsOption {
	return func(m *Metrics) {
		if reg != nil {
			m.registry = reg
		}
	}
}

// Metrics owns the Prometheus collectors for scoring and the HTTP surface.
type Metrics struct {
	namespace       string
	subsystem       string
	durationBuckets []float64
	registry        *prometheus.Registry

	recordsScored       *prometheus.CounterVec
	recordsDisqualified prometheus.Counter
	relevanceScore      prometheus.Histogram
	batchDuration       prometheus.Histogram
	batchSize           prometheus.Histogram

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	profileReloads *prometheus.CounterVec
	profileInfo    *prometheus.GaugeVec
}

// NewMetrics creates and registers all collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	m := &Metrics{
		namespace:       defaultNamespace,
		durationBuckets: prometheus.DefBuckets,
		registry:        prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Metrics) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.recordsScored = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_scored_total",
		Help:      "Total number of records scored, by win probability state",
	}, []string{"win_probability"})

	m.recordsDisqualified = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_disqualified_total",
		Help:      "Total number of records rejected by the qualification filter",
	})

	m.relevanceScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "relevance_score",
		Help:      "Distribution of composite relevance scores for qualified records",
		Buckets:   prometheus.LinearBuckets(10, 10, 10),
	})

	m.batchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_duration_seconds",
		Help:      "Wall time spent scoring one batch of records",
		Buckets:   m.durationBuckets,
	})

	m.batchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_size_records",
		Help:      "Number of records per scored batch",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   m.durationBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.profileReloads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profile_reloads_total",
		Help:      "Profile reload attempts, by result",
	}, []string{"result"})

	m.profileInfo = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profile_info",
		Help:      "Set to 1 for the profile version currently in use",
	}, []string{"version"})
}

// ObserveResult records one scoring outcome.
func (m *Metrics) ObserveResult(r *model.ScoringResult) {
	m.recordsScored.WithLabelValues(string(r.WinState)).Inc()
	if !r.Qualified {
		m.recordsDisqualified.Inc()
		return
	}
	m.relevanceScore.Observe(r.RelevanceScore)
}

// ObserveBatch records the results of one batch and how long it took.
func (m *Metrics) ObserveBatch(results []model.ScoringResult, elapsed time.Duration) {
	for i := range results {
		m.ObserveResult(&results[i])
	}
	m.batchSize.Observe(float64(len(results)))
	m.batchDuration.Observe(elapsed.Seconds())
}

// ObserveHTTP records a completed HTTP request.
func (m *Metrics) ObserveHTTP(endpoint, method string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(endpoint, method, code).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, code).Observe(elapsed.Seconds())
}

// ProfileLoaded marks version as the active profile and counts a successful
// reload when reload is true.
func (m *Metrics) ProfileLoaded(version string, reload bool) {
	m.profileInfo.Reset()
	m.profileInfo.WithLabelValues(version).Set(1)
	if reload {
		m.profileReloads.WithLabelValues("success").Inc()
	}
}

// ProfileReloadFailed counts a rejected profile reload.
func (m *Metrics) ProfileReloadFailed() {
	m.profileReloads.WithLabelValues("failure").Inc()
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
