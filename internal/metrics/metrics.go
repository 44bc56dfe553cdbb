// Package metrics provides Prometheus metrics for the HTTP surface and the
// generation pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spigell/interview-coach/internal/interview"
)

const (
	defaultNamespace = "interview_coach"

	outcomeSuccess = "success"
)

// Generation latency includes the overload retries, so the buckets reach past 6s.
var defaultBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 7.5, 10, 20, 30}

// Manager owns the registry and every collector of the service.
type Manager struct {
	namespace string
	buckets   []float64
	runtime   bool
	registry  *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	generations        *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
}

var _ interview.Recorder = (*Manager)(nil)

// NewManager creates a Manager with its collectors registered.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: defaultNamespace,
		buckets:   defaultBuckets,
		runtime:   true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	if m.runtime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   m.buckets,
	}, []string{"endpoint", "method"})

	m.generations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "generation",
		Name:      "runs_total",
		Help:      "Total number of generation pipeline runs by operation and outcome",
	}, []string{"operation", "outcome"})

	m.generationDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "generation",
		Name:      "duration_seconds",
		Help:      "Generation pipeline latency in seconds, retries included",
		Buckets:   m.buckets,
	}, []string{"operation"})
}

// Registry returns the registry holding the collectors.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest counts one request and observes its latency.
func (m *Manager) RecordHTTPRequest(endpoint, method string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method).Observe(d.Seconds())
}

// ObserveGeneration implements interview.Recorder.
func (m *Manager) ObserveGeneration(operation string, kind interview.FailureKind, d time.Duration) {
	outcome := outcomeSuccess
	if kind != interview.KindNone {
		outcome = string(kind)
	}

	m.generations.WithLabelValues(operation, outcome).Inc()
	m.generationDuration.WithLabelValues(operation).Observe(d.Seconds())
}
