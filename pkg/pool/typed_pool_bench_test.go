package pool

import (
	"testing"

	"go.uber.org/zap"
)

func BenchmarkTypedPoolPutGet(b *testing.B) {
	p := New[int, int](WithLogger(zap.NewNop()))
	defer p.Close()
	ref := NewRef(1, nil)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = p.Put(1, ref)
		p.Get(1)
	}
}

func BenchmarkTypedPoolParallel(b *testing.B) {
	p := New[int, int](WithLogger(zap.NewNop()))
	defer p.Close()
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		ref := NewRef(1, nil)
		key := 0
		for pb.Next() {
			key = (key + 1) % 8
			_ = p.Put(key, ref)
			if got, ok := p.Get(key); ok {
				ref = got
			} else {
				ref = NewRef(1, nil)
			}
		}
	})
}

func BenchmarkShardedParallel(b *testing.B) {
	p := NewSharded[int, int](WithLogger(zap.NewNop()), WithShards(16))
	defer p.Close()
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		ref := NewRef(1, nil)
		key := 0
		for pb.Next() {
			key = (key + 1) % 8
			_ = p.Put(key, ref)
			if got, ok := p.Get(key); ok {
				ref = got
			} else {
				ref = NewRef(1, nil)
			}
		}
	})
}
