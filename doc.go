// Package mappool is a keyed object pool for Go: live objects are parked
// under a key and checked out again, most recently returned first.
//
// # Architecture
//
// The module is split into small packages:
//
//   - pkg/pool: TypedPool, Sharded and the reference-counted Ref handle
//   - pkg/metrics: Prometheus observer for pool activity
//   - pkg/config: YAML configuration with environment substitution
//   - pkg/logger: process-wide zap logger
//   - pkg/errors: typed errors shared by the other packages
//   - cmd/mappool: demo and stress command line tool
//
// # Quick Start
//
//	p := pool.New[string, *Buffer](pool.WithName("buffers"))
//	defer p.Close()
//
//	_ = p.Put("small", pool.NewRef(&Buffer{}, nil))
//	if ref, ok := p.Get("small"); ok {
//		defer ref.Release()
//		use(ref.Value())
//	}
//
// Get never creates objects. A missing value is reported with ok == false
// and the caller builds a fresh one.
package mappool
