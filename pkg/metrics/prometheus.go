// Package metrics provides Prometheus metrics for the examboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the examboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Run lifecycle
	runsSubmitted prometheus.Counter
	runsCompleted *prometheus.CounterVec

	// Pipeline
	spreadsheetsDecoded   prometheus.Counter
	decodeFailures        prometheus.Counter
	spreadsheetWarnings   prometheus.Counter
	recordsNormalized     prometheus.Counter
	duplicatesRemoved     *prometheus.CounterVec
	qualifiedStudents     prometheus.Gauge
	pipelineStageDuration *prometheus.HistogramVec

	// Queue and workers
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueRejected *prometheus.CounterVec
	workerCount   prometheus.Gauge
	storedRuns    prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// Process
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPauseTime    prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "examboard",
		subsystem:        "pipeline",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
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

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.runsSubmitted = m.counter("runs_submitted_total", "Total number of ranking runs submitted")
	m.runsCompleted = m.counterVec("runs_completed_total", "Total number of ranking runs finished, by final status", "status")

	m.spreadsheetsDecoded = m.counter("spreadsheets_decoded_total", "Total number of exam spreadsheets decoded")
	m.decodeFailures = m.counter("spreadsheet_decode_failures_total", "Total number of spreadsheets that could not be decoded")
	m.spreadsheetWarnings = m.counter("spreadsheet_warnings_total", "Total number of spreadsheets with missing required columns")
	m.recordsNormalized = m.counter("records_normalized_total", "Total number of submission records produced by normalization")
	m.duplicatesRemoved = m.counterVec("duplicates_removed_total", "Duplicate submissions removed, by dedup stage", "stage")
	m.qualifiedStudents = m.gauge("qualified_students", "Number of students on the most recent leaderboard")
	m.pipelineStageDuration = m.histogramVec("stage_duration_milliseconds", "Pipeline stage duration in milliseconds", "stage")

	m.queueSize = m.gauge("queue_size", "Current number of queued runs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued runs")
	m.queueRejected = m.counterVec("queue_rejected_total", "Runs rejected by the queue, by reason", "reason")
	m.workerCount = m.gauge("worker_count", "Number of run workers")
	m.storedRuns = m.gauge("stored_runs", "Number of runs held in memory")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total", "HTTP error responses by endpoint, type and severity", "endpoint", "method", "error_type", "severity")

	m.memoryUsage = m.gauge("system_memory_bytes", "Heap bytes currently allocated")
	m.goroutineCount = m.gauge("system_goroutines", "Number of running goroutines")
	m.gcPauseTime = m.gauge("system_gc_pause_milliseconds", "Average GC pause time in milliseconds")
}

// RecordRunSubmitted increments the submitted runs counter.
func RecordRunSubmitted() {
	globalManager.runsSubmitted.Inc()
}

// RecordRunCompleted counts a finished run with its final status.
func RecordRunCompleted(status string) {
	globalManager.runsCompleted.WithLabelValues(status).Inc()
}

// RecordSpreadsheetDecoded counts a successfully decoded spreadsheet.
func RecordSpreadsheetDecoded() {
	globalManager.spreadsheetsDecoded.Inc()
}

// RecordDecodeFailure counts a spreadsheet that could not be decoded.
func RecordDecodeFailure() {
	globalManager.decodeFailures.Inc()
}

// RecordSpreadsheetWarning counts a spreadsheet missing a required column.
func RecordSpreadsheetWarning() {
	globalManager.spreadsheetWarnings.Inc()
}

// RecordRecordsNormalized adds n normalized submission records.
func RecordRecordsNormalized(n int) {
	globalManager.recordsNormalized.Add(float64(n))
}

// RecordDuplicatesRemoved adds n removed duplicates for the given stage.
func RecordDuplicatesRemoved(stage string, n int) {
	globalManager.duplicatesRemoved.WithLabelValues(stage).Add(float64(n))
}

// UpdateQualifiedStudents sets the size of the latest leaderboard.
func UpdateQualifiedStudents(n int) {
	globalManager.qualifiedStudents.Set(float64(n))
}

// RecordStageDuration records how long a pipeline stage took.
func RecordStageDuration(stage string, durationMs float64) {
	globalManager.pipelineStageDuration.WithLabelValues(stage).Observe(durationMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected counts a run the queue refused.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateStoredRuns sets the number of runs held by the store.
func UpdateStoredRuns(count int) {
	globalManager.storedRuns.Set(float64(count))
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError counts an error response.
func RecordHTTPError(endpoint, method, errorType, severity string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType, severity).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.memoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.goroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime sets the average GC pause.
func RecordSystemGCPauseTime(ms float64) {
	globalManager.gcPauseTime.Set(ms)
}

// GetRegistry returns the custom registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
