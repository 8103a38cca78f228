package cache

// Storage holds the completed values of a cache.
// Implementations must be safe for concurrent use.
type Storage[K comparable, V any] interface {
	get(key K) (V, bool)
	set(key K, value V)
	delete(key K)
	clear()
}
