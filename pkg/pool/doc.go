// Package pool implements a thread-safe object pool keyed by category. Callers
// check out a previously returned object of a given category instead of
// allocating a new one, and put it back when they are done with it.
//
// Architecture
//
// The pool package uses Go generics: TypedPool[K, T] maps each key of a
// comparable type K to a bucket of handles to T values. One mutex guards the
// map and every bucket.
//
// Core Types:
//
//   - TypedPool[K, T]: the keyed pool
//   - Ref[T]: reference-counted handle stored in the pool
//   - Sharded[K, T]: keys spread over independent pools, one lock per shard
//   - Keyed[K, T]: the interface both pools implement
//
// Ownership
//
// Objects are stored as *Ref handles. A Ref counts its holders and calls its
// release function when the last one lets go. Put adopts the reference it is
// given and Get hands the pool's reference to the caller:
//
//	ref := pool.NewRef(conn, func(c *Conn) { c.Close() })
//	_ = objects.Put(kindConn, ref.Retain()) // keep our own reference too
//	defer ref.Release()
//
// Closing the pool releases every reference it still holds, freeing the
// objects that nobody else retains. A handle released by its owner while it
// was pooled is discarded by Get and Close instead of being handed out.
//
// Ordering
//
// Buckets are stacks: Get returns the most recently Put handle for the key.
// Recently returned objects are the most likely to still be cache-hot, and
// popping the tail of a slice is O(1).
//
// Missing Values
//
// Get on a key with no pooled handles returns (nil, false). This is a normal
// outcome, not an error, and it does not create a bucket. Buckets are created
// by the first Put for a key and stay in place once emptied.
//
// Put rejects nil handles, handles whose object was already freed, handles
// that are already pooled, and any Put after Close. Nothing is stored when
// Put fails.
//
// Non-goals
//
// The pool has no capacity limit, eviction or expiry, and it never
// constructs or resets objects. The caller is responsible for storing values
// under the right key.
//
// Metrics
//
// An Observer installed with WithObserver receives gets (with hit or miss),
// puts and drops. These are changes in bucket occupancy, so the order in
// which concurrent events reach the Observer does not matter. The metrics package provides a Prometheus
// implementation. Stats returns the same counters without an Observer.
package pool
