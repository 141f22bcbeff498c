package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mappool/mappool/pkg/pool"
)

var _ pool.Observer = (*PoolCollector)(nil)

func TestPoolCollectorWithPool(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPoolCollector(reg, "test")

	p := pool.New[string, int](
		pool.WithName("objects"),
		pool.WithObserver(c),
		pool.WithLogger(zaptest.NewLogger(t)),
	)

	require.NoError(t, p.Put("tank", pool.NewRef(1, nil)))
	require.NoError(t, p.Put("tank", pool.NewRef(2, nil)))
	p.Get("tank")
	p.Get("vehicle")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.puts.WithLabelValues("objects", "tank")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.gets.WithLabelValues("objects", "tank", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.gets.WithLabelValues("objects", "vehicle", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.depth.WithLabelValues("objects", "tank")))

	require.NoError(t, p.Close())
	assert.Equal(t, 0.0, testutil.ToFloat64(c.depth.WithLabelValues("objects", "tank")))

	n, err := testutil.GatherAndCount(reg, "test_pool_gets_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestThroughputTracker(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPoolCollector(reg, "")

	tr := NewThroughputTracker(c, "objects")
	tr.Increment(100)
	time.Sleep(10 * time.Millisecond)

	got := tr.GetAndReset()
	assert.Greater(t, got, 0.0)
	assert.Equal(t, got, testutil.ToFloat64(c.throughput.WithLabelValues("objects")))

	n, err := testutil.GatherAndCount(reg, "mappool_pool_throughput_ops_per_second")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTimer(t *testing.T) {
	timer := NewTimer("op")
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), time.Millisecond)
	assert.Equal(t, "op", timer.Name())
}

// gatedCollector holds ObservePut until release is closed.
type gatedCollector struct {
	*PoolCollector
	entered chan struct{}
	release chan struct{}
}

func newGatedCollector(c *PoolCollector) *gatedCollector {
	return &gatedCollector{
		PoolCollector: c,
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
}

func (g *gatedCollector) ObservePut(pool, key string) {
	close(g.entered)
	<-g.release
	g.PoolCollector.ObservePut(pool, key)
}

func TestDepthGaugeWithReorderedEvents(t *testing.T) {
	tests := []struct {
		name  string
		after func(p *pool.TypedPool[string, int])
	}{
		{
			name: "get reported before put",
			after: func(p *pool.TypedPool[string, int]) {
				_, ok := p.Get("tank")
				require.True(t, ok)
			},
		},
		{
			name: "close reported before put",
			after: func(p *pool.TypedPool[string, int]) {
				require.NoError(t, p.Close())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewPoolCollector(prometheus.NewRegistry(), "test")
			g := newGatedCollector(c)
			p := pool.New[string, int](
				pool.WithName("objects"),
				pool.WithObserver(g),
				pool.WithLogger(zaptest.NewLogger(t)),
			)

			done := make(chan error, 1)
			go func() { done <- p.Put("tank", pool.NewRef(1, nil)) }()

			<-g.entered
			tt.after(p)
			close(g.release)
			require.NoError(t, <-done)

			assert.Equal(t, 0, p.Len("tank"))
			assert.Equal(t, 0.0, testutil.ToFloat64(c.depth.WithLabelValues("objects", "tank")))
			_ = p.Close()
		})
	}
}
