package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefReleaseFreesOnce(t *testing.T) {
	calls := 0
	r := NewRef("tank", func(string) { calls++ })

	assert.EqualValues(t, 1, r.Refs())
	assert.Same(t, r, r.Retain())
	assert.EqualValues(t, 2, r.Refs())

	assert.False(t, r.Release())
	assert.Equal(t, 0, calls)
	assert.True(t, r.Release())
	assert.Equal(t, 1, calls)
	assert.False(t, r.Alive())
}

func TestRefMisusePanics(t *testing.T) {
	r := NewRef(1, nil)
	require.True(t, r.Release())

	assert.Panics(t, func() { r.Retain() })
	assert.Panics(t, func() { r.Release() })
}

func TestRefConcurrentRetainRelease(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	r := NewRef(struct{}{}, func(struct{}) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		r.Retain()
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Release()
		}()
	}
	wg.Wait()

	assert.True(t, r.Alive())
	assert.True(t, r.Release())
	assert.Equal(t, 1, calls)
}
