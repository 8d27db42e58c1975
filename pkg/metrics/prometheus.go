// Package metrics provides Prometheus metrics for the handball test recorder.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultHit   = "hit"
	ResultMiss  = "miss"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Catalog metrics
	filesCreated prometheus.Counter
	filesSaved   prometheus.Counter
	filesDeleted prometheus.Counter
	fileLoads    *prometheus.CounterVec
	catalogSize  prometheus.Gauge

	// Editing metrics
	fieldUpdates *prometheus.CounterVec
	updateErrors *prometheus.CounterVec

	// Spreadsheet metrics
	spreadsheetOps      *prometheus.CounterVec
	spreadsheetDuration *prometheus.HistogramVec

	// Auto-save metrics
	autosaveScheduled prometheus.Counter
	autosaveCoalesced prometheus.Counter
	autosaveFlushed   prometheus.Counter
	autosaveErrors    prometheus.Counter
	autosavePending   prometheus.Gauge

	// Key/value backend metrics
	kvOpDuration *prometheus.HistogramVec
	kvOpErrors   *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "handball",
		subsystem:        "recorder",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.filesCreated = auto.NewCounter(m.counterOpts("files_created_total", "Total number of files created"))
	m.filesSaved = auto.NewCounter(m.counterOpts("files_saved_total", "Total number of file payload writes"))
	m.filesDeleted = auto.NewCounter(m.counterOpts("files_deleted_total", "Total number of files deleted"))
	m.fileLoads = auto.NewCounterVec(m.counterOpts("file_loads_total", "File loads by result (hit or miss)"),
		[]string{"result"})
	m.catalogSize = auto.NewGauge(m.gaugeOpts("catalog_files", "Number of files in the catalog at last listing"))

	m.fieldUpdates = auto.NewCounterVec(m.counterOpts("field_updates_total", "Player field updates by field"),
		[]string{"field"})
	m.updateErrors = auto.NewCounterVec(m.counterOpts("field_update_errors_total", "Rejected player field updates by field"),
		[]string{"field"})

	m.spreadsheetOps = auto.NewCounterVec(m.counterOpts("spreadsheet_operations_total", "Spreadsheet reads and writes by result"),
		[]string{"op", "result"})
	m.spreadsheetDuration = auto.NewHistogramVec(m.histogramOpts("spreadsheet_duration_milliseconds", "Spreadsheet read and write duration in milliseconds"),
		[]string{"op"})

	m.autosaveScheduled = auto.NewCounter(m.counterOpts("autosave_scheduled_total", "Total number of scheduled auto-saves"))
	m.autosaveCoalesced = auto.NewCounter(m.counterOpts("autosave_coalesced_total", "Scheduled auto-saves replaced by a newer snapshot"))
	m.autosaveFlushed = auto.NewCounter(m.counterOpts("autosave_flushed_total", "Auto-saves written to the store"))
	m.autosaveErrors = auto.NewCounter(m.counterOpts("autosave_errors_total", "Auto-saves that failed to write"))
	m.autosavePending = auto.NewGauge(m.gaugeOpts("autosave_pending", "Files with an unwritten snapshot"))

	m.kvOpDuration = auto.NewHistogramVec(m.histogramOpts("kv_operation_duration_milliseconds", "Key/value backend operation latency in milliseconds"),
		[]string{"backend", "op"})
	m.kvOpErrors = auto.NewCounterVec(m.counterOpts("kv_operation_errors_total", "Key/value backend operation errors"),
		[]string{"backend", "op"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewGauge(m.gaugeOpts("system_gc_pause_milliseconds", "Average GC pause in milliseconds"))
}

// RecordFileCreated increments the files created counter.
func RecordFileCreated() {
	if globalManager.enabled {
		globalManager.filesCreated.Inc()
	}
}

// RecordFileSaved increments the file save counter.
func RecordFileSaved() {
	if globalManager.enabled {
		globalManager.filesSaved.Inc()
	}
}

// RecordFileDeleted increments the files deleted counter.
func RecordFileDeleted() {
	if globalManager.enabled {
		globalManager.filesDeleted.Inc()
	}
}

// RecordFileLoad counts a load with ResultHit or ResultMiss.
func RecordFileLoad(result string) {
	if globalManager.enabled {
		globalManager.fileLoads.WithLabelValues(result).Inc()
	}
}

// UpdateCatalogSize sets the catalog size gauge.
func UpdateCatalogSize(count int) {
	if globalManager.enabled {
		globalManager.catalogSize.Set(float64(count))
	}
}

// RecordFieldUpdate counts an applied player field update.
func RecordFieldUpdate(field string) {
	if globalManager.enabled {
		globalManager.fieldUpdates.WithLabelValues(field).Inc()
	}
}

// RecordFieldUpdateError counts a rejected player field update.
func RecordFieldUpdateError(field string) {
	if globalManager.enabled {
		globalManager.updateErrors.WithLabelValues(field).Inc()
	}
}

// RecordSpreadsheetOp records a spreadsheet read or write with its outcome.
func RecordSpreadsheetOp(op, result string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.spreadsheetOps.WithLabelValues(op, result).Inc()
	globalManager.spreadsheetDuration.WithLabelValues(op).Observe(durationMs)
}

// RecordAutosaveScheduled increments the scheduled auto-save counter.
func RecordAutosaveScheduled() {
	if globalManager.enabled {
		globalManager.autosaveScheduled.Inc()
	}
}

// RecordAutosaveCoalesced increments the coalesced auto-save counter.
func RecordAutosaveCoalesced() {
	if globalManager.enabled {
		globalManager.autosaveCoalesced.Inc()
	}
}

// RecordAutosaveFlushed increments the written auto-save counter.
func RecordAutosaveFlushed() {
	if globalManager.enabled {
		globalManager.autosaveFlushed.Inc()
	}
}

// RecordAutosaveError increments the failed auto-save counter.
func RecordAutosaveError() {
	if globalManager.enabled {
		globalManager.autosaveErrors.Inc()
	}
}

// UpdateAutosavePending sets the number of unwritten snapshots.
func UpdateAutosavePending(count int) {
	if globalManager.enabled {
		globalManager.autosavePending.Set(float64(count))
	}
}

// RecordKVOperation records the latency of a backend operation and counts it
// as an error when failed is set.
func RecordKVOperation(backend, op string, latencyMs float64, failed bool) {
	if !globalManager.enabled {
		return
	}
	globalManager.kvOpDuration.WithLabelValues(backend, op).Observe(latencyMs)
	if failed {
		globalManager.kvOpErrors.WithLabelValues(backend, op).Inc()
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// UpdateSystemMemoryUsage sets the allocated heap gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// UpdateSystemGCPauseTime sets the average GC pause gauge.
func UpdateSystemGCPauseTime(ms float64) {
	if globalManager.enabled {
		globalManager.systemGCPauseTime.Set(ms)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
