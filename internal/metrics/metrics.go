package metrics

import (
	"sync"
	"time"
)

// MetricsCollector provides a centralized way to collect and retrieve metrics
type MetricsCollector struct {
	mutex               sync.RWMutex
	counters            map[string]int64
	gauges              map[string]float64
	requestLatencies    map[string][]time.Duration
	requestCounts       map[string]int64
	operationCounts     map[string]int64
	operationLatencies  map[string][]time.Duration
	messageBusCounts    map[string]int64
	messageBusLatencies map[string][]time.Duration
	databaseQueryCounts map[string]int64
	databaseLatencies   map[string][]time.Duration
	errorCounts         map[string]int64
	startTime           time.Time
	maxHistogramSamples int
}

// Counter metrics
const (
	CounterHTTPRequests        = "http_requests_total"
	CounterHTTPRequestsSuccess = "http_requests_success_total"
	CounterHTTPRequestsError   = "http_requests_error_total"
	CounterVehiclesCreated     = "vehicles_created_total"
	CounterVehiclesDeleted     = "vehicles_deleted_total"
	CounterDocumentsUploaded   = "documents_uploaded_total"
	CounterAlertsCreated       = "alerts_created_total"
	CounterAlertSyncs          = "alert_syncs_total"
	CounterAuditEntries        = "audit_entries_total"
	CounterAuditWriteFailures  = "audit_write_failures_total"
	CounterMessagesSent        = "messages_sent_total"
	CounterMessagesError       = "messages_error_total"
	CounterDBQueriesTotal      = "db_queries_total"
	CounterDBQueriesError      = "db_queries_error_total"
	CounterErrorsTotal         = "errors_total"
)

// Gauge metrics
const (
	GaugeFleetVehicles    = "fleet_vehicles"
	GaugeUnreadAlerts     = "unread_alerts"
	GaugeOverdueDocuments = "overdue_documents"
	GaugeSystemMemory     = "system_memory_bytes"
)

// Operation types for operation metrics
const (
	OperationTypeVehicleCreate  = "vehicle_create"
	OperationTypeVehicleUpdate  = "vehicle_update"
	OperationTypeVehicleDelete  = "vehicle_delete"
	OperationTypeDocumentUpload = "document_upload"
	OperationTypeAlertSync      = "alert_sync"
	OperationTypeSummary        = "summary"
	OperationTypeFailed         = "failed"
)

// Database query types
const (
	DBQueryTypeSelect = "select"
	DBQueryTypeInsert = "insert"
	DBQueryTypeUpdate = "update"
	DBQueryTypeDelete = "delete"
)

// Message bus operations
const (
	MessageBusOperationSend = "send"
)

// Error types
const (
	ErrorTypeHTTP       = "http"
	ErrorTypeValidation = "validation"
	ErrorTypeDatabase   = "database"
	ErrorTypeMessageBus = "message_bus"
	ErrorTypeAudit      = "audit"
	ErrorTypeInternal   = "internal"
)

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:            make(map[string]int64),
		gauges:              make(map[string]float64),
		requestLatencies:    make(map[string][]time.Duration),
		requestCounts:       make(map[string]int64),
		operationCounts:     make(map[string]int64),
		operationLatencies:  make(map[string][]time.Duration),
		messageBusCounts:    make(map[string]int64),
		messageBusLatencies: make(map[string][]time.Duration),
		databaseQueryCounts: make(map[string]int64),
		databaseLatencies:   make(map[string][]time.Duration),
		errorCounts:         make(map[string]int64),
		startTime:           time.Now(),
		maxHistogramSamples: 1000,
	}
}

// IncrementCounter increments a counter by the given value
func (m *MetricsCollector) IncrementCounter(name string, value int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.counters[name] += value
}

// SetGauge sets a gauge to the given value
func (m *MetricsCollector) SetGauge(name string, value float64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.gauges[name] = value
}

// appendSample appends to a bounded latency sample window
func appendSample(samples []time.Duration, value time.Duration, max int) []time.Duration {
	if samples == nil {
		samples = make([]time.Duration, 0, max)
	}
	if len(samples) >= max {
		samples = samples[1:]
	}
	return append(samples, value)
}

// RecordHTTPRequest records metrics for an HTTP request
func (m *MetricsCollector) RecordHTTPRequest(path string, statusCode int, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.counters[CounterHTTPRequests]++
	m.requestCounts[path]++
	m.requestLatencies[path] = appendSample(m.requestLatencies[path], latency, m.maxHistogramSamples)

	if statusCode >= 200 && statusCode < 400 {
		m.counters[CounterHTTPRequestsSuccess]++
	} else {
		m.counters[CounterHTTPRequestsError]++
		m.errorCounts[ErrorTypeHTTP]++
	}
}

// RecordOperation records metrics for a domain operation
func (m *MetricsCollector) RecordOperation(operationType string, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.operationCounts[operationType]++

	switch operationType {
	case OperationTypeVehicleCreate:
		m.counters[CounterVehiclesCreated]++
	case OperationTypeVehicleDelete:
		m.counters[CounterVehiclesDeleted]++
	case OperationTypeDocumentUpload:
		m.counters[CounterDocumentsUploaded]++
	case OperationTypeAlertSync:
		m.counters[CounterAlertSyncs]++
	case OperationTypeFailed:
		m.errorCounts[ErrorTypeInternal]++
	}

	m.operationLatencies[operationType] = appendSample(m.operationLatencies[operationType], latency, m.maxHistogramSamples)
}

// RecordMessageBusOperation records metrics for a message bus operation
func (m *MetricsCollector) RecordMessageBusOperation(operation string, success bool, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.messageBusCounts[operation]++
	if operation == MessageBusOperationSend {
		m.counters[CounterMessagesSent]++
	}

	if !success {
		m.counters[CounterMessagesError]++
		m.errorCounts[ErrorTypeMessageBus]++
	}

	m.messageBusLatencies[operation] = appendSample(m.messageBusLatencies[operation], latency, m.maxHistogramSamples)
}

// RecordDatabaseQuery records metrics for a database query
func (m *MetricsCollector) RecordDatabaseQuery(queryType string, success bool, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.databaseQueryCounts[queryType]++
	m.counters[CounterDBQueriesTotal]++

	if !success {
		m.counters[CounterDBQueriesError]++
		m.errorCounts[ErrorTypeDatabase]++
	}

	m.databaseLatencies[queryType] = appendSample(m.databaseLatencies[queryType], latency, m.maxHistogramSamples)
}

// RecordError records an error of the given type
func (m *MetricsCollector) RecordError(errorType string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.errorCounts[errorType]++
	m.counters[CounterErrorsTotal]++
	if errorType == ErrorTypeAudit {
		m.counters[CounterAuditWriteFailures]++
	}
}

// RecordAlertsCreated increments the created-alert counter
func (m *MetricsCollector) RecordAlertsCreated(count int) {
	m.IncrementCounter(CounterAlertsCreated, int64(count))
}

// RecordAuditEntry increments the audit entry counter
func (m *MetricsCollector) RecordAuditEntry() {
	m.IncrementCounter(CounterAuditEntries, 1)
}

// SetFleetVehicles sets the fleet size gauge
func (m *MetricsCollector) SetFleetVehicles(count int) {
	m.SetGauge(GaugeFleetVehicles, float64(count))
}

// SetUnreadAlerts sets the unread alerts gauge
func (m *MetricsCollector) SetUnreadAlerts(count int) {
	m.SetGauge(GaugeUnreadAlerts, float64(count))
}

// SetOverdueDocuments sets the overdue documents gauge
func (m *MetricsCollector) SetOverdueDocuments(count int) {
	m.SetGauge(GaugeOverdueDocuments, float64(count))
}

// averageLatencies calculates per-key average latency in milliseconds
func averageLatencies(samples map[string][]time.Duration) map[string]float64 {
	averages := make(map[string]float64)
	for key, latencies := range samples {
		if len(latencies) == 0 {
			continue
		}
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		averages[key] = float64(sum.Milliseconds()) / float64(len(latencies))
	}
	return averages
}

// GetMetrics returns all collected metrics in a structured format
func (m *MetricsCollector) GetMetrics() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	uptime := time.Since(m.startTime)

	return map[string]interface{}{
		"uptime_seconds":           uptime.Seconds(),
		"counters":                 m.counters,
		"gauges":                   m.gauges,
		"request_counts":           m.requestCounts,
		"request_latencies_ms":     averageLatencies(m.requestLatencies),
		"operation_counts":         m.operationCounts,
		"operation_latencies_ms":   averageLatencies(m.operationLatencies),
		"message_bus_counts":       m.messageBusCounts,
		"message_bus_latencies_ms": averageLatencies(m.messageBusLatencies),
		"database_query_counts":    m.databaseQueryCounts,
		"database_latencies_ms":    averageLatencies(m.databaseLatencies),
		"error_counts":             m.errorCounts,
	}
}

// GetHealthStatus returns a simple health status based on metrics
func (m *MetricsCollector) GetHealthStatus() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	healthy := true

	errorRate := 0.0
	totalRequests := m.counters[CounterHTTPRequests]
	if totalRequests > 0 {
		errorRate = float64(m.counters[CounterHTTPRequestsError]) / float64(totalRequests)
	}

	// 5% error rate is considered unhealthy
	const errorRateThreshold = 0.05

	if errorRate > errorRateThreshold {
		healthy = false
	}

	uptime := time.Since(m.startTime)

	return map[string]interface{}{
		"status": map[string]interface{}{
			"healthy":        healthy,
			"uptime_seconds": uptime.Seconds(),
		},
		"metrics": map[string]interface{}{
			"total_requests":       totalRequests,
			"error_rate":           errorRate,
			"alert_syncs":          m.counters[CounterAlertSyncs],
			"alerts_created":       m.counters[CounterAlertsCreated],
			"audit_write_failures": m.counters[CounterAuditWriteFailures],
			"messages_error":       m.counters[CounterMessagesError],
		},
	}
}

// Global metrics collector instance
var globalCollector *MetricsCollector
var once sync.Once

// GetMetricsCollector returns the global metrics collector instance
func GetMetricsCollector() *MetricsCollector {
	once.Do(func() {
		globalCollector = NewMetricsCollector()
	})
	return globalCollector
}
