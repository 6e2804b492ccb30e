// Package metrics provides Prometheus metrics for the yoga scoring service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Scoring
	submissions         *prometheus.CounterVec
	submissionDuplicate prometheus.Counter
	validationFailures  *prometheus.CounterVec
	leaderboardBuilds   prometheus.Counter
	leaderboardLatency  prometheus.Histogram

	// Results pipeline
	resultsRebuilds      prometheus.Counter
	resultsRebuildErrors prometheus.Counter
	queueSize            prometheus.Gauge
	queueCapacity        prometheus.Gauge
	queueDropped         prometheus.Counter
	workerCount          prometheus.Gauge
	workerLatency        prometheus.Histogram

	// Catalogue
	entities *prometheus.GaugeVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "yogascore",
		subsystem:        "scoring",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.submissions = auto.NewCounterVec(m.counterOpts("submissions_total", "Judge score submissions accepted, by judge role"), []string{"role"})
	m.submissionDuplicate = auto.NewCounter(m.counterOpts("submissions_duplicate_total", "Retried submissions ignored by the idempotency ledger"))
	m.validationFailures = auto.NewCounterVec(m.counterOpts("validation_failures_total", "Score inputs rejected as malformed or out of range"), []string{"operation"})
	m.leaderboardBuilds = auto.NewCounter(m.counterOpts("leaderboard_builds_total", "Leaderboards computed"))
	m.leaderboardLatency = auto.NewHistogram(m.histogramOpts("leaderboard_build_latency_milliseconds", "Time to load and rank one event leaderboard"))

	m.resultsRebuilds = auto.NewCounter(m.counterOpts("results_rebuilds_total", "Event result snapshots rebuilt by workers"))
	m.resultsRebuildErrors = auto.NewCounter(m.counterOpts("results_rebuild_errors_total", "Result snapshot rebuilds that failed"))
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Pending result rebuild jobs"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Capacity of the rebuild job queue"))
	m.queueDropped = auto.NewCounter(m.counterOpts("queue_dropped_total", "Rebuild jobs dropped because the queue was full or closed"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Running result rebuild workers"))
	m.workerLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds", "Time to process one rebuild job"))

	m.entities = auto.NewGaugeVec(m.gaugeOpts("entities", "Catalogue size by kind (events, athletes, judges)"), []string{"kind"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "HTTP errors by endpoint"), []string{"endpoint", "method", "error_type"})
	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Errors by component"), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordSubmission counts an accepted submission for role "D" or "T".
func (m *Manager) RecordSubmission(role string) error {
	if role != "D" && role != "T" {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	m.submissions.WithLabelValues(role).Inc()
	return nil
}

// RecordSubmission counts an accepted submission on the global manager.
func RecordSubmission(role string) error { return globalManager.RecordSubmission(role) }

// RecordSubmissionDuplicate counts a submission ignored as a retry.
func RecordSubmissionDuplicate() { globalManager.submissionDuplicate.Inc() }

// RecordValidationFailure counts rejected input for an operation.
func RecordValidationFailure(operation string) {
	globalManager.validationFailures.WithLabelValues(operation).Inc()
}

// RecordLeaderboardBuild records one leaderboard computation.
func RecordLeaderboardBuild(latencyMs float64) {
	globalManager.leaderboardBuilds.Inc()
	globalManager.leaderboardLatency.Observe(latencyMs)
}

// RecordResultsRebuild counts a rebuilt result snapshot.
func RecordResultsRebuild() { globalManager.resultsRebuilds.Inc() }

// RecordResultsRebuildError counts a failed snapshot rebuild.
func RecordResultsRebuildError() { globalManager.resultsRebuildErrors.Inc() }

// UpdateQueueSize sets the pending job gauge.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueDropped counts a job that could not be enqueued.
func RecordQueueDropped() { globalManager.queueDropped.Inc() }

// UpdateWorkerCount sets the running worker gauge.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency observes one job's processing time.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// UpdateEntityCount sets the catalogue gauge for kind.
func UpdateEntityCount(kind string, count int) {
	globalManager.entities.WithLabelValues(kind).Set(float64(count))
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint counts an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent counts an internal error.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
