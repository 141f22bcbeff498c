package pool

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/mappool/mappool/pkg/errors"
)

// TypedPool stores shared handles keyed by category. Get hands out the most
// recently Put handle of a key (LIFO), so recently returned objects are reused
// first. The pool never constructs, resets or inspects the pooled objects.
//
// A single mutex guards the key map and every bucket. Critical sections are
// O(1) and never call back into user code; logging, metrics and release
// functions run after the lock is dropped.
//
// The caller is responsible for matching keys and values: the pool does not
// check that a handle stored under a key is of that key's category.
type TypedPool[K comparable, T any] struct {
	mu      sync.Mutex
	buckets map[K]*bucket[T]
	pooled  map[*Ref[T]]struct{}
	closed  bool

	opts  options
	stats struct {
		gets   atomic.Int64
		puts   atomic.Int64
		hits   atomic.Int64
		misses atomic.Int64
	}
}

// bucket is a LIFO stack of handles for one key. Empty buckets are kept.
type bucket[T any] struct {
	items []*Ref[T]
}

// Stats is a point-in-time view of pool activity.
type Stats struct {
	Gets    int64 `json:"gets"`
	Puts    int64 `json:"puts"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Buckets int   `json:"buckets"`
	Pooled  int   `json:"pooled"`
}

// Add returns the sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Gets:    s.Gets + o.Gets,
		Puts:    s.Puts + o.Puts,
		Hits:    s.Hits + o.Hits,
		Misses:  s.Misses + o.Misses,
		Buckets: s.Buckets + o.Buckets,
		Pooled:  s.Pooled + o.Pooled,
	}
}

// New creates an empty pool.
func New[K comparable, T any](opts ...Option) *TypedPool[K, T] {
	return newTypedPool[K, T](buildOptions(opts))
}

func newTypedPool[K comparable, T any](o options) *TypedPool[K, T] {
	return &TypedPool[K, T]{
		buckets: make(map[K]*bucket[T]),
		pooled:  make(map[*Ref[T]]struct{}),
		opts:    o,
	}
}

// Name returns the pool name.
func (p *TypedPool[K, T]) Name() string {
	return p.opts.name
}

// Get removes and returns the most recently put handle for key. It returns
// false when the key has no pooled handles; a missing key is not an error
// and no bucket is created for it. Ownership of the pool's reference moves
// to the caller.
//
// Handles whose object was freed while pooled are discarded on the way.
func (p *TypedPool[K, T]) Get(key K) (*Ref[T], bool) {
	p.stats.gets.Add(1)

	p.mu.Lock()
	ref, dropped, ok := p.pop(key)
	p.mu.Unlock()

	if ok {
		p.stats.hits.Add(1)
	} else {
		p.stats.misses.Add(1)
	}
	if dropped > 0 {
		p.opts.logger.Warn("discarded handles freed while pooled",
			zap.String("key", p.opts.formatKey(key)),
			zap.Int("count", dropped))
	}
	if obs := p.opts.observer; obs != nil {
		k := p.opts.formatKey(key)
		if dropped > 0 {
			obs.ObserveDrop(p.opts.name, k, dropped)
		}
		obs.ObserveGet(p.opts.name, k, ok)
	}
	return ref, ok
}

// pop must be called with p.mu held. It returns the top live handle and the
// number of freed handles removed above it.
func (p *TypedPool[K, T]) pop(key K) (*Ref[T], int, bool) {
	if p.closed {
		return nil, 0, false
	}
	b, ok := p.buckets[key]
	if !ok {
		return nil, 0, false
	}
	dropped := 0
	for len(b.items) > 0 {
		last := len(b.items) - 1
		ref := b.items[last]
		b.items[last] = nil
		b.items = b.items[:last]
		delete(p.pooled, ref)
		if ref.Alive() {
			return ref, dropped, true
		}
		dropped++
	}
	return nil, dropped, false
}

// Put stores ref under key, creating the key's bucket on first use. The pool
// adopts the reference passed in: callers that keep using the object must
// Retain it first, and must not Release the adopted reference themselves.
//
// Put fails without storing anything when ref is nil, when its object has
// already been freed, when ref is already pooled, or when the pool is closed.
func (p *TypedPool[K, T]) Put(key K, ref *Ref[T]) error {
	if ref == nil {
		return errors.New(errors.ErrorTypeValidation, "nil handle").
			WithDetail("pool", p.opts.name)
	}
	if !ref.Alive() {
		return errors.New(errors.ErrorTypeValidation, "handle already freed").
			WithDetail("pool", p.opts.name)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.Newf(errors.ErrorTypeClosed, "pool %q is closed", p.opts.name)
	}
	if _, dup := p.pooled[ref]; dup {
		p.mu.Unlock()
		return errors.New(errors.ErrorTypeValidation, "handle already pooled").
			WithDetail("pool", p.opts.name)
	}
	b, found := p.buckets[key]
	if !found {
		b = &bucket[T]{}
		p.buckets[key] = b
	}
	b.items = append(b.items, ref)
	p.pooled[ref] = struct{}{}
	p.mu.Unlock()

	p.stats.puts.Add(1)
	if !found {
		p.opts.logger.Debug("bucket created", zap.String("key", p.opts.formatKey(key)))
	}
	if obs := p.opts.observer; obs != nil {
		obs.ObservePut(p.opts.name, p.opts.formatKey(key))
	}
	return nil
}

// Len returns the number of pooled handles for key.
func (p *TypedPool[K, T]) Len(key K) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if b, ok := p.buckets[key]; ok {
		return len(b.items)
	}
	return 0
}

// Keys returns the keys that have a bucket, including empty ones, in no
// particular order.
func (p *TypedPool[K, T]) Keys() []K {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]K, 0, len(p.buckets))
	for k := range p.buckets {
		keys = append(keys, k)
	}
	return keys
}

// Stats returns current counters and occupancy.
func (p *TypedPool[K, T]) Stats() Stats {
	p.mu.Lock()
	buckets, pooled := len(p.buckets), len(p.pooled)
	p.mu.Unlock()

	return Stats{
		Gets:    p.stats.gets.Load(),
		Puts:    p.stats.puts.Load(),
		Hits:    p.stats.hits.Load(),
		Misses:  p.stats.misses.Load(),
		Buckets: buckets,
		Pooled:  pooled,
	}
}

// Close releases the pool's reference on every remaining handle. Objects
// with no other holder are freed. Handles already freed while pooled are
// skipped. After Close, Get reports no value and Put
// fails. Calling Close again is a no-op.
func (p *TypedPool[K, T]) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	buckets := p.buckets
	p.buckets = nil
	p.pooled = nil
	p.mu.Unlock()

	released, freed, skipped := 0, 0, 0
	for key, b := range buckets {
		n := len(b.items)
		for i, ref := range b.items {
			b.items[i] = nil
			if !ref.Alive() {
				skipped++
				continue
			}
			released++
			if ref.Release() {
				freed++
			}
		}
		if obs := p.opts.observer; obs != nil && n > 0 {
			obs.ObserveDrop(p.opts.name, p.opts.formatKey(key), n)
		}
	}

	p.opts.logger.Debug("pool closed",
		zap.Int("buckets", len(buckets)),
		zap.Int("released", released),
		zap.Int("freed", freed),
		zap.Int("skipped", skipped))
	return nil
}
