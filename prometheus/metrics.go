package prometheus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthErrorsCounter   *prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Measurement metrics
	MeasurementOperationsCounter *prometheus.CounterVec
	PayloadFormatCounter         *prometheus.CounterVec
	TruncatedItemsCounter        prometheus.Counter

	initOnce sync.Once
)

// InitMetrics registers the service metrics with the default registry.
// Recording before InitMetrics is a no-op.
func InitMetrics(prefix string) {
	initOnce.Do(func() {
		HttpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		)

		HttpRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		)

		AuthAttemptsCounter = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_auth_attempts_total",
				Help: "Total number of authentication attempts",
			},
		)

		AuthErrorsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_auth_errors_total",
				Help: "Total number of authentication errors by reason",
			},
			[]string{"reason"},
		)

		DbOperationDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_db_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation_type"},
		)

		MeasurementOperationsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_measurement_operations_total",
				Help: "Total number of measurement operations",
			},
			[]string{"operation"},
		)

		PayloadFormatCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_payload_format_total",
				Help: "Line item payloads encoded or decoded, by layout",
			},
			[]string{"direction", "format"},
		)

		TruncatedItemsCounter = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_payload_truncated_items_total",
				Help: "Line items dropped because the payload column was full",
			},
		)
	})
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordHTTPRequest records one served request
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if HttpRequestsTotal == nil {
		return
	}
	HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordAuthAttempt increments the authentication attempt counter
func RecordAuthAttempt() {
	if AuthAttemptsCounter == nil {
		return
	}
	AuthAttemptsCounter.Inc()
}

// RecordAuthError increments the authentication error counter
func RecordAuthError(reason string) {
	if AuthErrorsCounter == nil {
		return
	}
	AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// RecordMeasurementOperation increments the counter for measurement operations
func RecordMeasurementOperation(operation string) {
	if MeasurementOperationsCounter == nil {
		return
	}
	MeasurementOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordPayloadFormat counts a payload encode or decode by layout
func RecordPayloadFormat(direction, format string) {
	if PayloadFormatCounter == nil {
		return
	}
	PayloadFormatCounter.WithLabelValues(direction, format).Inc()
}

// RecordTruncatedItems adds n dropped line items
func RecordTruncatedItems(n int) {
	if TruncatedItemsCounter == nil || n <= 0 {
		return
	}
	TruncatedItemsCounter.Add(float64(n))
}
