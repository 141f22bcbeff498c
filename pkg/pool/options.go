package pool

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mappool/mappool/pkg/logger"
)

// Observer receives pool events for monitoring. It is always called after
// the pool lock has been released, so events of concurrent operations can
// arrive in any order. Each event is a change in occupancy, never an
// absolute depth; summing them gives the current depth once all calls
// have returned.
type Observer interface {
	// ObserveGet is called for every Get. A hit removed one handle.
	ObserveGet(pool, key string, hit bool)
	// ObservePut is called for every successful Put, which added one handle.
	ObservePut(pool, key string)
	// ObserveDrop is called when n handles left key without being got:
	// on Close, or when Get discards handles freed while pooled.
	ObserveDrop(pool, key string, n int)
}

// Option configures a TypedPool or Sharded pool.
type Option func(*options)

type options struct {
	name      string
	logger    *zap.Logger
	observer  Observer
	formatKey func(any) string
	shards    int
}

func defaultOptions() options {
	return options{
		name:      "default",
		formatKey: func(k any) string { return fmt.Sprint(k) },
		shards:    16,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	o.logger = o.logger.With(zap.String("component", "pool"), zap.String("pool", o.name))
	return o
}

// WithName sets the pool name used in logs and metric labels.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets the logger. The global logger is used otherwise.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithObserver installs a monitoring hook, typically a metrics collector.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithKeyFormatter controls how keys are rendered for logs and metrics.
// Keys are formatted with fmt.Sprint by default.
func WithKeyFormatter(f func(any) string) Option {
	return func(o *options) {
		if f != nil {
			o.formatKey = f
		}
	}
}

// WithShards sets the shard count of a Sharded pool. Ignored by TypedPool.
func WithShards(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.shards = n
		}
	}
}
