package pool

import (
	"fmt"
	"hash/maphash"

	"go.uber.org/zap"
)

// Sharded spreads keys over independent TypedPools, each with its own lock,
// for workloads where one pool-wide mutex is contended. A key always maps to
// the same shard, so per-key LIFO order is the same as for TypedPool.
type Sharded[K comparable, T any] struct {
	seed   maphash.Seed
	shards []*TypedPool[K, T]
	name   string
}

// NewSharded creates an empty sharded pool. Use WithShards to set the shard
// count; it defaults to 16.
func NewSharded[K comparable, T any](opts ...Option) *Sharded[K, T] {
	o := buildOptions(opts)
	s := &Sharded[K, T]{
		seed:   maphash.MakeSeed(),
		shards: make([]*TypedPool[K, T], o.shards),
		name:   o.name,
	}
	for i := range s.shards {
		so := o
		so.logger = o.logger.With(zap.Int("shard", i))
		s.shards[i] = newTypedPool[K, T](so)
	}
	return s
}

func (s *Sharded[K, T]) shard(key K) *TypedPool[K, T] {
	h := maphash.Comparable(s.seed, key)
	return s.shards[h%uint64(len(s.shards))]
}

// Name returns the pool name.
func (s *Sharded[K, T]) Name() string {
	return s.name
}

// Shards returns the number of shards.
func (s *Sharded[K, T]) Shards() int {
	return len(s.shards)
}

// Get behaves like TypedPool.Get.
func (s *Sharded[K, T]) Get(key K) (*Ref[T], bool) {
	return s.shard(key).Get(key)
}

// Put behaves like TypedPool.Put.
func (s *Sharded[K, T]) Put(key K, ref *Ref[T]) error {
	return s.shard(key).Put(key, ref)
}

// Len returns the number of pooled handles for key.
func (s *Sharded[K, T]) Len(key K) int {
	return s.shard(key).Len(key)
}

// Keys returns the keys of all shards in no particular order.
func (s *Sharded[K, T]) Keys() []K {
	keys := make([]K, 0, len(s.shards))
	for _, sh := range s.shards {
		keys = append(keys, sh.Keys()...)
	}
	return keys
}

// Stats sums the stats of all shards. Shards are read one at a time, so the
// result is not a single atomic snapshot.
func (s *Sharded[K, T]) Stats() Stats {
	var total Stats
	for _, sh := range s.shards {
		total = total.Add(sh.Stats())
	}
	return total
}

// Close closes every shard.
func (s *Sharded[K, T]) Close() error {
	for i, sh := range s.shards {
		if err := sh.Close(); err != nil {
			return fmt.Errorf("close shard %d: %w", i, err)
		}
	}
	return nil
}
