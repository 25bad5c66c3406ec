// Package metrics provides Prometheus metrics for the clipscore service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every clipscore metric.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	scoreBuckets     []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Scoring
	documentsScored    *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	duplicates         prometheus.Counter
	scoringLatency     prometheus.Histogram
	overallScore       prometheus.Histogram
	missingOptional    prometheus.Histogram

	// Ranking store and archive
	leaderboardSize    prometheus.Gauge
	storeUpdates       prometheus.Counter
	storeUpdateLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram
	archiveWrites      *prometheus.CounterVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Workers
	workerCount             prometheus.Gauge
	workerActive            prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps Go runtime collectors out of /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates and registers a metrics set.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "clipscore",
		subsystem:        "engine",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		scoreBuckets:     prometheus.LinearBuckets(10, 10, 9),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.documentsScored = m.counterVec("documents_scored_total",
		"Documents scored, by completeness", "incomplete")
	m.validationFailures = m.counterVec("validation_failures_total",
		"Documents rejected before scoring, by kind", "kind")
	m.duplicates = m.counter("duplicates_total",
		"Submissions dropped because the same content was already accepted")
	m.scoringLatency = m.histogram("scoring_latency_ms",
		"Time spent validating and scoring one document in milliseconds", m.histogramBuckets)
	m.overallScore = m.histogram("overall_score",
		"Distribution of overall scores", m.scoreBuckets)
	m.missingOptional = m.histogram("missing_optional_fields",
		"Number of optional fields missing per scored document", prometheus.LinearBuckets(0, 1, 8))

	m.leaderboardSize = m.gauge("leaderboard_size", "Videos in the ranking store")
	m.storeUpdates = m.counter("store_updates_total", "Ranking store writes")
	m.storeUpdateLatency = m.histogram("store_update_latency_ms",
		"Ranking store write latency in milliseconds", m.histogramBuckets)
	m.storeQueryLatency = m.histogram("store_query_latency_ms",
		"Ranking store read latency in milliseconds", m.histogramBuckets)
	m.archiveWrites = m.counterVec("archive_writes_total",
		"Score archive writes, by outcome", "outcome")

	m.queueSize = m.gauge("queue_size", "Jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Queue capacity")
	m.queueUtilization = m.gauge("queue_utilization", "Queue size divided by capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Jobs dequeued")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total",
		"Rejected enqueues, by reason", "reason")

	m.workerCount = m.gauge("worker_count", "Configured scoring workers")
	m.workerActive = m.gauge("worker_active", "Workers currently scoring a job")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_ms",
		"Time a worker spends on one job in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counterVec("worker_errors_total",
		"Jobs that failed inside a worker, by kind", "kind")

	m.httpRequests = m.counterVec("http_requests_total",
		"HTTP requests by endpoint, method and status", "endpoint", "method", "status")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "http_request_duration_seconds",
		Help: "HTTP request latency", ConstLabels: m.constLabels, Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "method", "status"})

	m.errorsByComponent = m.counterVec("errors_total",
		"Errors by component and type", "component", "type")
}

// Scoring

// RecordDocumentScored records one successful scoring call.
func RecordDocumentScored(latencyMs, overall float64, missing int, incomplete bool) {
	globalManager.documentsScored.WithLabelValues(strconv.FormatBool(incomplete)).Inc()
	globalManager.scoringLatency.Observe(latencyMs)
	globalManager.overallScore.Observe(overall)
	globalManager.missingOptional.Observe(float64(missing))
}

// RecordValidationFailure counts a rejected document.
func RecordValidationFailure(kind string) {
	globalManager.validationFailures.WithLabelValues(kind).Inc()
}

// RecordDuplicate counts a deduplicated submission.
func RecordDuplicate() {
	globalManager.duplicates.Inc()
}

// Store

// UpdateLeaderboardSize sets the number of ranked videos.
func UpdateLeaderboardSize(n int) {
	globalManager.leaderboardSize.Set(float64(n))
}

// RecordStoreUpdate records one ranking store write.
func RecordStoreUpdate(latencyMs float64) {
	globalManager.storeUpdates.Inc()
	globalManager.storeUpdateLatency.Observe(latencyMs)
}

// RecordStoreQuery records one ranking store read.
func RecordStoreQuery(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// RecordArchiveWrite counts an archive write.
func RecordArchiveWrite(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	globalManager.archiveWrites.WithLabelValues(outcome).Inc()
}

// Queue

// UpdateQueueSize sets the queue length gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization gauge.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue counts an accepted job.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a consumed job.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// Workers

// UpdateWorkerCount sets the configured worker gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerActive moves the active worker gauge by delta.
func AddWorkerActive(delta int) {
	globalManager.workerActive.Add(float64(delta))
}

// RecordWorkerProcessingLatency observes the time spent on one job.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a job that failed in a worker.
func RecordWorkerError(kind string) {
	globalManager.workerErrors.WithLabelValues(kind).Inc()
}

// HTTP

// RecordHTTPRequest counts one request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes request latency in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// RecordErrorByComponent counts an error raised by a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the registry served on /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
