// Package metrics provides Prometheus metrics for the site forms service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the forms service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Intake
	submissionsCreated    *prometheus.CounterVec
	subscriptionsCreated  *prometheus.CounterVec
	subscriptionsExisting prometheus.Counter
	validationFailures    *prometheus.CounterVec

	// Storage
	storageErrors  *prometheus.CounterVec
	storageLatency *prometheus.HistogramVec

	// Spreadsheet delivery
	sheetDeliveries      *prometheus.CounterVec
	sheetDeliveryLatency prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount       prometheus.Gauge
	workerActiveCount prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// DefaultMillisecondBuckets spans 1ms to about 8s for the *_milliseconds histograms.
var DefaultMillisecondBuckets = prometheus.ExponentialBuckets(1, 2, 14) //nolint:gochecknoglobals // shared default

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "siteforms",
		subsystem:        "intake",
		histogramBuckets: DefaultMillisecondBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.submissionsCreated = auto.NewCounterVec(
		m.counterOpts("submissions_created_total", "Submissions persisted, by kind and backend"),
		[]string{"kind", "backend"},
	)
	m.subscriptionsCreated = auto.NewCounterVec(
		m.counterOpts("subscriptions_created_total", "Newsletter subscriptions persisted, by backend"),
		[]string{"backend"},
	)
	m.subscriptionsExisting = auto.NewCounter(
		m.counterOpts("subscriptions_existing_total", "Subscribe requests answered as already subscribed"),
	)
	m.validationFailures = auto.NewCounterVec(
		m.counterOpts("validation_failures_total", "Requests rejected for missing required fields"),
		[]string{"endpoint"},
	)

	m.storageErrors = auto.NewCounterVec(
		m.counterOpts("storage_errors_total", "Storage operations that failed, by backend and operation"),
		[]string{"backend", "op"},
	)
	m.storageLatency = auto.NewHistogramVec(
		m.histogramOpts("storage_latency_milliseconds", "Storage operation latency in milliseconds"),
		[]string{"backend", "op"},
	)

	m.sheetDeliveries = auto.NewCounterVec(
		m.counterOpts("sheet_deliveries_total", "Spreadsheet webhook posts, by outcome"),
		[]string{"outcome"},
	)
	m.sheetDeliveryLatency = auto.NewHistogram(
		m.histogramOpts("sheet_delivery_latency_milliseconds", "Spreadsheet webhook round trip in milliseconds"),
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Rows waiting for asynchronous delivery"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum number of rows the delivery queue holds"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Rows enqueued for delivery"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Rows taken off the delivery queue"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Rows rejected by a full or closed queue"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured delivery workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Delivery workers currently posting a row"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds"),
	)
}

// RecordSubmissionCreated counts a persisted submission.
func RecordSubmissionCreated(kind, backend string) {
	globalManager.submissionsCreated.WithLabelValues(kind, backend).Inc()
}

// RecordSubscriptionCreated counts a persisted subscription.
func RecordSubscriptionCreated(backend string) {
	globalManager.subscriptionsCreated.WithLabelValues(backend).Inc()
}

// RecordSubscriptionExisting counts a subscribe request for a known email.
func RecordSubscriptionExisting() {
	globalManager.subscriptionsExisting.Inc()
}

// RecordValidationFailure counts a 400 on the given endpoint.
func RecordValidationFailure(endpoint string) {
	globalManager.validationFailures.WithLabelValues(endpoint).Inc()
}

// RecordStorageError counts a failed storage call.
func RecordStorageError(backend, op string) {
	globalManager.storageErrors.WithLabelValues(backend, op).Inc()
}

// RecordStorageLatency records storage call latency in milliseconds.
func RecordStorageLatency(backend, op string, latencyMs float64) {
	globalManager.storageLatency.WithLabelValues(backend, op).Observe(latencyMs)
}

// RecordSheetDelivery counts a webhook post; outcome is "sent" or "failed".
func RecordSheetDelivery(outcome string) {
	globalManager.sheetDeliveries.WithLabelValues(outcome).Inc()
}

// RecordSheetDeliveryLatency records the webhook round trip in milliseconds.
func RecordSheetDeliveryLatency(latencyMs float64) {
	globalManager.sheetDeliveryLatency.Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of workers mid-delivery.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
