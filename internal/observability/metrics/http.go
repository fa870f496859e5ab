package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OrchestratorMetrics owns a private registry so tests can build isolated
// instances without collisions.
type OrchestratorMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	turnsTotal             *prometheus.CounterVec
	turnDuration           *prometheus.HistogramVec
	fallbackTotal          *prometheus.CounterVec
	classificationDuration *prometheus.HistogramVec
	classificationFailures *prometheus.CounterVec
	rateLimitDeniedTotal   *prometheus.CounterVec
}

func NewOrchestratorMetrics(namespace, service string) *OrchestratorMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	turnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "turns_total",
			Help:      "Total chat turns by dispatched agent and outcome.",
		},
		[]string{"service", "agent_type", "status"},
	)
	turnDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "turn_duration_seconds",
			Help:      "End-to-end chat turn duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "agent_type"},
	)
	fallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fallback",
			Name:      "responses_total",
			Help:      "Total fallback-chain responses by provider tier.",
		},
		[]string{"service", "provider", "level"},
	)
	classificationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "classification_duration_seconds",
			Help:      "Intent classification duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"service"},
	)
	classificationFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "classification_failures_total",
			Help:      "Total classification failures recovered by the default route.",
		},
		[]string{"service"},
	)
	rateLimitDeniedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "denied_total",
			Help:      "Total requests denied by admission control.",
		},
		[]string{"service", "gate"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		turnsTotal,
		turnDuration,
		fallbackTotal,
		classificationDuration,
		classificationFailures,
		rateLimitDeniedTotal,
	)

	return &OrchestratorMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		turnsTotal:             turnsTotal,
		turnDuration:           turnDuration,
		fallbackTotal:          fallbackTotal,
		classificationDuration: classificationDuration,
		classificationFailures: classificationFailures,
		rateLimitDeniedTotal:   rateLimitDeniedTotal,
	}
}

func (m *OrchestratorMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *OrchestratorMetrics) ObserveTurn(service, agentType, status string, duration time.Duration) {
	m.turnsTotal.WithLabelValues(service, agentType, status).Inc()
	m.turnDuration.WithLabelValues(service, agentType).Observe(duration.Seconds())
}

func (m *OrchestratorMetrics) ObserveFallback(service, provider string, level int) {
	m.fallbackTotal.WithLabelValues(service, provider, strconv.Itoa(level)).Inc()
}

func (m *OrchestratorMetrics) ObserveClassification(service string, duration time.Duration, failed bool) {
	m.classificationDuration.WithLabelValues(service).Observe(duration.Seconds())
	if failed {
		m.classificationFailures.WithLabelValues(service).Inc()
	}
}

func (m *OrchestratorMetrics) ObserveRateLimitDenied(service, gate string) {
	m.rateLimitDeniedTotal.WithLabelValues(service, gate).Inc()
}

// Middleware instruments the HTTP server with request metrics.
func (m *OrchestratorMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		recorder := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(service, r.Method, r.URL.Path, strconv.Itoa(recorder.statusCode)).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type metricsRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *metricsRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *metricsRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *metricsRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
