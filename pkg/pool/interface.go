package pool

// Keyed is the API shared by TypedPool and Sharded.
type Keyed[K comparable, T any] interface {
	Get(key K) (*Ref[T], bool)
	Put(key K, ref *Ref[T]) error
	Len(key K) int
	Keys() []K
	Stats() Stats
	Name() string
	Close() error
}

var (
	_ Keyed[string, int] = (*TypedPool[string, int])(nil)
	_ Keyed[string, int] = (*Sharded[string, int])(nil)
)
