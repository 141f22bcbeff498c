package pool

import (
	"fmt"
	"sync/atomic"
)

// Ref is a reference-counted handle to a pooled object. Several holders may
// own a reference to the same object at once; the object is freed when the
// last reference is released.
//
// A Ref starts with one reference. Retain adds a reference and Release drops
// one. Releasing the last reference calls the release function exactly once.
type Ref[T any] struct {
	value   T
	refs    atomic.Int64
	release func(T)
}

// NewRef wraps v in a handle holding one reference. release may be nil.
func NewRef[T any](v T, release func(T)) *Ref[T] {
	r := &Ref[T]{value: v, release: release}
	r.refs.Store(1)
	return r
}

// Value returns the wrapped object.
func (r *Ref[T]) Value() T {
	return r.value
}

// Retain adds a reference and returns r. It panics if the object has
// already been freed.
func (r *Ref[T]) Retain() *Ref[T] {
	for {
		n := r.refs.Load()
		if n <= 0 {
			panic(fmt.Sprintf("pool: retain of freed %T", r.value))
		}
		if r.refs.CompareAndSwap(n, n+1) {
			return r
		}
	}
}

// Release drops one reference and reports whether it freed the object.
// It panics when called more times than references were taken.
func (r *Ref[T]) Release() bool {
	n := r.refs.Add(-1)
	switch {
	case n > 0:
		return false
	case n < 0:
		panic(fmt.Sprintf("pool: release of freed %T", r.value))
	}
	if r.release != nil {
		r.release(r.value)
	}
	return true
}

// Refs returns the current reference count.
func (r *Ref[T]) Refs() int64 {
	return r.refs.Load()
}

// Alive reports whether the object has not been freed yet.
func (r *Ref[T]) Alive() bool {
	return r.refs.Load() > 0
}
