// Package metrics provides Prometheus instrumentation for the
// extraction pipeline, the columnar store, and the analytics engine.
//
// # Basic Usage
//
//	metrics.PagesFetched.WithLabelValues("search", "success").Inc()
//
//	timer := metrics.NewTimer("analyze_overview")
//	stats := engine.Overview(ds)
//	metrics.AnalyticsLatency.WithLabelValues("overview").
//	    Observe(timer.Stop().Seconds())
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetched counts page fetches by query type and outcome.
	// Labels: query_type (search/user/trending), status (success/retry/failure)
	PagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ttsearch_pages_fetched_total",
			Help: "Total number of page fetches attempted",
		},
		[]string{"query_type", "status"},
	)

	// RecordsExtracted counts raw items by what happened to them.
	// Labels: query_type, status (valid/duplicate/invalid)
	RecordsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ttsearch_records_extracted_total",
			Help: "Total number of raw items processed by extraction runs",
		},
		[]string{"query_type", "status"},
	)

	// FetchLatency tracks page-fetch latency in seconds.
	FetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ttsearch_fetch_latency_seconds",
			Help:    "Page fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query_type"},
	)

	// RowsWritten counts rows persisted to the columnar store.
	// Labels: dataset (schema name), compression
	RowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ttsearch_store_rows_written_total",
			Help: "Total number of rows written to columnar files",
		},
		[]string{"dataset", "compression"},
	)

	// RowsRead counts rows returned by dataset reads, after
	// filtering. Labels: dataset (schema name)
	RowsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ttsearch_store_rows_read_total",
			Help: "Total number of rows read from columnar files",
		},
		[]string{"dataset"},
	)

	// BytesWritten counts compressed bytes persisted to disk.
	BytesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ttsearch_store_bytes_written_total",
			Help: "Total compressed bytes written to columnar files",
		},
		[]string{"dataset"},
	)

	// RowGroupsPruned counts row groups skipped by predicate statistics.
	RowGroupsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ttsearch_store_row_groups_pruned_total",
			Help: "Row groups skipped during reads thanks to min/max statistics",
		},
	)

	// AnalyticsLatency tracks analytics operation latency in seconds.
	// Labels: operation (overview/top/hashtags/cluster/predict)
	AnalyticsLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ttsearch_analytics_latency_seconds",
			Help:    "Analytics operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// RateLimiterWait tracks time spent waiting on the shared rate limiter.
	RateLimiterWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ttsearch_rate_limiter_wait_seconds",
			Help:    "Time extraction runs spent waiting for a fetch token",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Stop returns the elapsed duration since creation. The timer can be
// stopped multiple times, each returning the total elapsed time.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker tracks records per second over reset windows.
// Thread-safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64
	lastReset time.Time
}

// NewThroughputTracker creates a new throughput tracker.
func NewThroughputTracker() *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
	}
}

// Increment adds n to the record count. Safe for concurrent use.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset calculates the current throughput (records/second),
// resets the counter, and returns the calculated throughput.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed

	t.count = 0
	t.lastReset = time.Now()

	return throughput
}
