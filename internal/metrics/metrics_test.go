package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCacheMetrics(t *testing.T) {
	// Metrics are package-level variables; these only verify the helpers don't panic
	t.Run("RecordCall", func(t *testing.T) {
		RecordCall("CACHE", "single")
	})

	t.Run("RecordResolution", func(t *testing.T) {
		RecordResolution("directive")
	})

	t.Run("RecordCacheError", func(t *testing.T) {
		RecordCacheError("l1", "encode")
	})

	t.Run("UpdateL1CacheCapacity", func(t *testing.T) {
		UpdateL1CacheCapacity(1000000)
	})

	t.Run("UpdateCacheKeys", func(t *testing.T) {
		UpdateCacheKeys("l1", 1000)
	})

	t.Run("TimeCacheOperation", func(t *testing.T) {
		timer := TimeCacheOperation("get", "l1")
		timer()
	})

	t.Run("SetCircuitBreakerState", func(t *testing.T) {
		SetCircuitBreakerState("network", 2)
	})
}

func TestRecordCacheHit_SplitsByFreshness(t *testing.T) {
	freshBefore := testutil.ToFloat64(CacheHits.WithLabelValues("fresh"))
	staleBefore := testutil.ToFloat64(CacheHits.WithLabelValues("stale"))

	RecordCacheHit(true)
	RecordCacheHit(false)
	RecordCacheHit(false)

	assert.Equal(t, freshBefore+1, testutil.ToFloat64(CacheHits.WithLabelValues("fresh")))
	assert.Equal(t, staleBefore+2, testutil.ToFloat64(CacheHits.WithLabelValues("stale")))
}

func TestRecordEmission_Counts(t *testing.T) {
	before := testutil.ToFloat64(CacheEmissions.WithLabelValues("FRESH", "response"))

	RecordEmission("FRESH", "response")

	assert.Equal(t, before+1, testutil.ToFloat64(CacheEmissions.WithLabelValues("FRESH", "response")))
}

func TestMetadataCounters(t *testing.T) {
	published := testutil.ToFloat64(MetadataPublished)
	dropped := testutil.ToFloat64(MetadataDropped)

	RecordMetadataPublished()
	RecordMetadataDropped()

	assert.Equal(t, published+1, testutil.ToFloat64(MetadataPublished))
	assert.Equal(t, dropped+1, testutil.ToFloat64(MetadataDropped))
}
