package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordersAreSafeBeforeInit(t *testing.T) {
	if HttpRequestsTotal != nil {
		t.Skip("metrics already initialized in this process")
	}
	assert.NotPanics(t, func() {
		RecordHTTPRequest("GET", "/health", "200", time.Millisecond)
		RecordAuthAttempt()
		RecordAuthError("missing_token")
		RecordMeasurementOperation("create")
		RecordPayloadFormat("encode", "structured")
		RecordTruncatedItems(2)
		TrackDBOperation("query")(time.Now())
	})
}

func TestInitMetricsAndRecord(t *testing.T) {
	InitMetrics("measurement_test")
	InitMetrics("ignored_second_prefix")

	RecordMeasurementOperation("complete")
	RecordMeasurementOperation("complete")
	assert.Equal(t, 2.0, testutil.ToFloat64(MeasurementOperationsCounter.WithLabelValues("complete")))

	RecordTruncatedItems(3)
	RecordTruncatedItems(0)
	assert.Equal(t, 3.0, testutil.ToFloat64(TruncatedItemsCounter))

	RecordPayloadFormat("decode", "compact")
	assert.Equal(t, 1.0, testutil.ToFloat64(PayloadFormatCounter.WithLabelValues("decode", "compact")))

	RecordHTTPRequest("GET", "/api/measurements", "200", 10*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/api/measurements", "200")))
}
