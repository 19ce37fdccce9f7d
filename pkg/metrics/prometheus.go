// Package metrics provides Prometheus metrics for the WPR progress service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Analysis metrics
	analysesTotal          prometheus.Counter
	analysisLatency        prometheus.Histogram
	progressScore          prometheus.Histogram
	dimensionScore         *prometheus.HistogramVec
	bottlenecks            *prometheus.CounterVec
	unreachableProjections prometheus.Counter
	profilesTotal          prometheus.Gauge

	// Ingestion metrics
	measurementsIngested  prometheus.Counter
	measurementsDuplicate prometheus.Counter
	measurementsRejected  *prometheus.CounterVec

	// Queue metrics
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueued          prometheus.Counter
	queueDequeued          prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Repository metrics
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemory     prometheus.Gauge
	systemGoroutines prometheus.Gauge
	systemGCPause    prometheus.Histogram
}

// scoreBuckets cover the [0,1] progress scale.
var scoreBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0} //nolint:gochecknoglobals // bucket layout

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "wpr",
		subsystem:        "progress",
		histogramBuckets: prometheus.DefBuckets,
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

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.analysesTotal = m.counter("analyses_total", "Total number of profile analyses")
	m.analysisLatency = m.histogram("analysis_latency_milliseconds", "Analysis pipeline latency in milliseconds", m.histogramBuckets)
	m.progressScore = m.histogram("overall_progress_score", "Distribution of overall progress scores", scoreBuckets)
	m.dimensionScore = m.histogramVec("dimension_score", "Distribution of dimension scores", scoreBuckets, "dimension")
	m.bottlenecks = m.counterVec("bottlenecks_total", "Detected bottlenecks by dimension and severity", "dimension", "severity")
	m.unreachableProjections = m.counter("unreachable_projections_total", "Projections without a reachable target date")
	m.profilesTotal = m.gauge("profiles_total", "Number of tracked athlete profiles")

	m.measurementsIngested = m.counter("measurements_ingested_total", "Measurements applied to a profile")
	m.measurementsDuplicate = m.counter("measurements_duplicate_total", "Duplicate measurements acknowledged without effect")
	m.measurementsRejected = m.counterVec("measurements_rejected_total", "Measurements rejected by reason", "reason")

	m.queueSize = m.gauge("queue_size", "Current number of queued measurements")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Measurements enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Measurements dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Enqueue attempts rejected by backpressure")
	m.queueProcessingLatency = m.histogram("queue_wait_milliseconds", "Time measurements spend in the queue", m.histogramBuckets)

	m.workerCount = m.gauge("worker_count", "Configured worker count")
	m.workerActiveCount = m.gauge("worker_active_count", "Workers currently processing a measurement")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Worker processing latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Measurements that failed processing")

	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds", "Profile store update latency in milliseconds", m.histogramBuckets)
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds", "Profile store query latency in milliseconds", m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		m.histogramBuckets, "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemory = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutines = m.gauge("system_goroutines", "Number of live goroutines")
	m.systemGCPause = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds", m.histogramBuckets)
}

// Analysis metrics.

// RecordAnalysis records one completed analysis.
func RecordAnalysis(latencyMs, overall float64) {
	globalManager.analysesTotal.Inc()
	globalManager.analysisLatency.Observe(latencyMs)
	globalManager.progressScore.Observe(overall)
}

// RecordDimensionScore records one dimension score.
func RecordDimensionScore(dimension string, score float64) {
	globalManager.dimensionScore.WithLabelValues(dimension).Observe(score)
}

// RecordBottleneck counts a detected bottleneck.
func RecordBottleneck(dimension, severity string) {
	globalManager.bottlenecks.WithLabelValues(dimension, severity).Inc()
}

// RecordUnreachableProjection counts a projection without a target date.
func RecordUnreachableProjection() {
	globalManager.unreachableProjections.Inc()
}

// UpdateProfilesTotal sets the number of tracked profiles.
func UpdateProfilesTotal(count int) {
	globalManager.profilesTotal.Set(float64(count))
}

// Ingestion metrics.

// RecordMeasurementIngested counts an applied measurement.
func RecordMeasurementIngested() {
	globalManager.measurementsIngested.Inc()
}

// RecordMeasurementDuplicate counts an acknowledged duplicate.
func RecordMeasurementDuplicate() {
	globalManager.measurementsDuplicate.Inc()
}

// RecordMeasurementRejected counts a rejected measurement.
func RecordMeasurementRejected(reason string) {
	globalManager.measurementsRejected.WithLabelValues(reason).Inc()
}

// Queue metrics.

// UpdateQueueSize sets the queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the backpressure counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records the time a measurement waited in the queue.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker metrics.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Repository metrics.

// RecordRepositoryUpdateLatency records store update latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records store query latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemory.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutines.Set(float64(count))
}

// RecordSystemGCPauseTime observes an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPause.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
