package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupTestMetrics creates a Metrics instance backed by a ManualReader for testing.
func setupTestMetrics(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := mp.Meter(meterName)

	cacheLookupsTotal, err := meter.Int64Counter("quay_tags_cache_lookups_total")
	require.NoError(t, err)

	upstreamFetchDuration, err := meter.Float64Histogram("quay_tags_upstream_fetch_duration_seconds")
	require.NoError(t, err)

	upstreamFetchTotal, err := meter.Int64Counter("quay_tags_upstream_fetch_total")
	require.NoError(t, err)

	upstreamFetchBytesTotal, err := meter.Int64Counter("quay_tags_upstream_fetch_bytes_total")
	require.NoError(t, err)

	globalMetrics = &Metrics{
		cacheLookupsTotal:       cacheLookupsTotal,
		upstreamFetchDuration:   upstreamFetchDuration,
		upstreamFetchTotal:      upstreamFetchTotal,
		upstreamFetchBytesTotal: upstreamFetchBytesTotal,
		meterProvider:           mp,
	}

	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
		globalMetrics = nil
	})

	return reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

// findCounter finds a counter metric by name and returns its data points.
func findCounter(rm metricdata.ResourceMetrics, name string) []metricdata.DataPoint[int64] {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
					return sum.DataPoints
				}
			}
		}
	}
	return nil
}

// findHistogram finds a histogram metric by name and returns its data points.
func findHistogram(rm metricdata.ResourceMetrics, name string) []metricdata.HistogramDataPoint[float64] {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				if hist, ok := m.Data.(metricdata.Histogram[float64]); ok {
					return hist.DataPoints
				}
			}
		}
	}
	return nil
}

// hasAttr checks if a data point's attribute set contains the given key-value pair.
func hasAttr(attrs attribute.Set, key, value string) bool {
	v, ok := attrs.Value(attribute.Key(key))
	return ok && v.AsString() == value
}

func TestRecordCacheLookup(t *testing.T) {
	reader := setupTestMetrics(t)

	RecordCacheLookup(context.Background(), "hit")
	RecordCacheLookup(context.Background(), "hit")
	RecordCacheLookup(context.Background(), "miss")

	rm := collectMetrics(t, reader)

	dps := findCounter(rm, "quay_tags_cache_lookups_total")
	require.Len(t, dps, 2)

	for _, dp := range dps {
		if hasAttr(dp.Attributes, "result", "hit") {
			require.EqualValues(t, 2, dp.Value)
		} else {
			require.True(t, hasAttr(dp.Attributes, "result", "miss"))
			require.EqualValues(t, 1, dp.Value)
		}
	}
}

func TestRecordCacheLookupUninitialized(t *testing.T) {
	// Must be a no-op, not a panic, when metrics were never initialised.
	RecordCacheLookup(context.Background(), "hit")
}

func TestRecordUpstreamFetch(t *testing.T) {
	reader := setupTestMetrics(t)

	RecordUpstreamFetch(context.Background(), "quay.io", 120*time.Millisecond, 2048, "success")

	rm := collectMetrics(t, reader)

	dps := findCounter(rm, "quay_tags_upstream_fetch_total")
	require.Len(t, dps, 1)
	require.EqualValues(t, 1, dps[0].Value)
	require.True(t, hasAttr(dps[0].Attributes, "registry", "quay.io"))
	require.True(t, hasAttr(dps[0].Attributes, "outcome", "success"))

	bytesDps := findCounter(rm, "quay_tags_upstream_fetch_bytes_total")
	require.Len(t, bytesDps, 1)
	require.EqualValues(t, 2048, bytesDps[0].Value)

	histDps := findHistogram(rm, "quay_tags_upstream_fetch_duration_seconds")
	require.Len(t, histDps, 1)
	require.Equal(t, uint64(1), histDps[0].Count)
}

func TestStatusClass(t *testing.T) {
	require.Equal(t, "2xx", StatusClass(200))
	require.Equal(t, "3xx", StatusClass(302))
	require.Equal(t, "4xx", StatusClass(429))
	require.Equal(t, "5xx", StatusClass(503))
	require.Equal(t, "unknown", StatusClass(99))
}

func TestPrometheusHandlerUninitialized(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	PrometheusHandler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
