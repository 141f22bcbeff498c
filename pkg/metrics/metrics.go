// Package metrics provides Prometheus metrics for mappool pools.
//
// # Overview
//
// PoolCollector implements pool.Observer, so installing it on a pool with
// pool.WithObserver exports:
//   - mappool_pool_gets_total{pool,key,result}: Get calls, result is hit or miss
//   - mappool_pool_puts_total{pool,key}: successful Put calls
//   - mappool_pool_bucket_depth{pool,key}: handles currently pooled per key
//   - mappool_pool_throughput_ops_per_second{pool}: set by ThroughputTracker
//
// # Basic Usage
//
//	reg := prometheus.NewRegistry()
//	collector := metrics.NewPoolCollector(reg, "mappool")
//	objects := pool.New[Kind, *Object](pool.WithObserver(collector))
//
// Key labels come from the pool's key formatter, so keep key sets small.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultHit  = "hit"
	resultMiss = "miss"
)

// PoolCollector records pool events as Prometheus metrics. It is safe for
// concurrent use and may be shared by several pools.
type PoolCollector struct {
	gets       *prometheus.CounterVec
	puts       *prometheus.CounterVec
	depth      *prometheus.GaugeVec
	throughput *prometheus.GaugeVec
}

// NewPoolCollector creates and registers pool metrics with reg. A nil reg
// registers with the default Prometheus registry. An empty namespace
// defaults to "mappool".
func NewPoolCollector(reg prometheus.Registerer, namespace string) *PoolCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "mappool"
	}
	factory := promauto.With(reg)

	return &PoolCollector{
		gets: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "gets_total",
				Help:      "Total number of Get calls by result",
			},
			[]string{"pool", "key", "result"},
		),
		puts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "puts_total",
				Help:      "Total number of handles put into the pool",
			},
			[]string{"pool", "key"},
		),
		depth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "bucket_depth",
				Help:      "Number of handles currently pooled per key",
			},
			[]string{"pool", "key"},
		),
		throughput: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "throughput_ops_per_second",
				Help:      "Pool operations per second over the last measurement window",
			},
			[]string{"pool"},
		),
	}
}

// ObserveGet implements pool.Observer.
func (c *PoolCollector) ObserveGet(pool, key string, hit bool) {
	result := resultMiss
	if hit {
		result = resultHit
		c.depth.WithLabelValues(pool, key).Dec()
	}
	c.gets.WithLabelValues(pool, key, result).Inc()
}

// ObservePut implements pool.Observer.
func (c *PoolCollector) ObservePut(pool, key string) {
	c.puts.WithLabelValues(pool, key).Inc()
	c.depth.WithLabelValues(pool, key).Inc()
}

// ObserveDrop implements pool.Observer.
func (c *PoolCollector) ObserveDrop(pool, key string, n int) {
	c.depth.WithLabelValues(pool, key).Sub(float64(n))
}

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
//
// Example:
//
//	timer := metrics.NewTimer("stress")
//	runStress()
//	logger.Info("stress done", zap.Duration("duration", timer.Stop()))
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer name.
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. The timer can be
// stopped multiple times.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker tracks pool operations per second over time windows.
// Thread-safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64     // Operations since last reset
	lastReset time.Time // Time of last reset
	pool      string
	collector *PoolCollector
}

// NewThroughputTracker creates a tracker for the named pool. The result of
// GetAndReset is also published through collector when it is not nil.
func NewThroughputTracker(collector *PoolCollector, pool string) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		pool:      pool,
		collector: collector,
	}
}

// Increment adds n to the operation count. Safe for concurrent use.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset calculates the current throughput (operations/second),
// updates the Prometheus gauge, resets the counter, and returns the
// calculated throughput. Safe for concurrent use.
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

	if t.collector != nil {
		t.collector.throughput.WithLabelValues(t.pool).Set(throughput)
	}

	return throughput
}
