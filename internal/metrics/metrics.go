package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Calls and instruction resolution
	CacheCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_calls_total",
			Help: "Total number of intercepted calls",
		},
		[]string{"operation", "mode"},
	)

	InstructionResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_instruction_resolutions_total",
			Help: "Instruction resolutions by source",
		},
		[]string{"source"}, // directive, header, default, none, conflict
	)

	// Pipeline emissions
	CacheEmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_emissions_total",
			Help: "Emissions leaving the response pipeline",
		},
		[]string{"status", "outcome"}, // outcome: response, error, empty_completion
	)

	FilteredEmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_filtered_emissions_total",
			Help: "Upstream emissions rejected by the freshness/finality filter",
		},
		[]string{"status"},
	)

	MetadataPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_metadata_published_total",
			Help: "Metadata values published on the metadata channel",
		},
	)

	MetadataDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_metadata_dropped_total",
			Help: "Metadata values dropped because a subscriber was not keeping up",
		},
	)

	// Store hits/misses
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"freshness"}, // fresh, stale
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_errors_total",
			Help: "Store errors by level and kind",
		},
		[]string{"level", "kind"},
	)

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_operation_duration_seconds",
			Help:    "Duration of store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "level"},
	)

	// L1 capacity metrics only (if L1 is in-memory)
	CacheCapacity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_capacity_bytes",
			Help: "L1 cache capacity in bytes",
		},
		[]string{"level"},
	)

	CacheKeys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_keys",
			Help: "Number of entries held per level",
		},
		[]string{"level"},
	)

	// Network
	NetworkRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_network_requests_total",
			Help: "Network fetches by outcome",
		},
		[]string{"outcome"}, // success, error, breaker_open
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordCall records an intercepted call
func RecordCall(operation, mode string) {
	CacheCalls.WithLabelValues(operation, mode).Inc()
}

// RecordResolution records where a call's instruction came from
func RecordResolution(source string) {
	InstructionResolutions.WithLabelValues(source).Inc()
}

// RecordEmission records a pipeline output
func RecordEmission(status, outcome string) {
	CacheEmissions.WithLabelValues(status, outcome).Inc()
}

// RecordFiltered records an emission rejected by the filter
func RecordFiltered(status string) {
	FilteredEmissions.WithLabelValues(status).Inc()
}

// RecordMetadataPublished records a publish on the metadata channel
func RecordMetadataPublished() {
	MetadataPublished.Inc()
}

// RecordMetadataDropped records a value a subscriber missed
func RecordMetadataDropped() {
	MetadataDropped.Inc()
}

// RecordCacheHit records a cache hit
func RecordCacheHit(fresh bool) {
	if fresh {
		CacheHits.WithLabelValues("fresh").Inc()
		return
	}
	CacheHits.WithLabelValues("stale").Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMisses.Inc()
}

// RecordCacheError records a store error with level and kind
func RecordCacheError(level, kind string) {
	CacheErrors.WithLabelValues(level, kind).Inc()
}

// UpdateL1CacheCapacity updates L1 cache capacity metrics only
func UpdateL1CacheCapacity(capacity int64) {
	CacheCapacity.WithLabelValues("l1").Set(float64(capacity))
}

// UpdateCacheKeys updates the number of keys in a level
func UpdateCacheKeys(level string, count int64) {
	CacheKeys.WithLabelValues(level).Set(float64(count))
}

// RecordNetworkRequest records a network fetch outcome
func RecordNetworkRequest(outcome string) {
	NetworkRequests.WithLabelValues(outcome).Inc()
}

// SetCircuitBreakerState exports the breaker state
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// TimeCacheOperation returns a timer function for measuring store operation duration
func TimeCacheOperation(operation, level string) func() {
	timer := prometheus.NewTimer(CacheOperationDuration.WithLabelValues(operation, level))
	return func() {
		timer.ObserveDuration()
	}
}
