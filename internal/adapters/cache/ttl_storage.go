package cache

import (
	"github.com/jellydator/ttlcache/v3"
)

type ttlStorage[K comparable, V any] struct {
	cache *ttlcache.Cache[K, V]
}

func (s *ttlStorage[K, V]) get(key K) (V, bool) {
	item := s.cache.Get(key)
	if item == nil {
		var empty V
		return empty, false
	}
	return item.Value(), true
}

func (s *ttlStorage[K, V]) set(key K, value V) {
	// Entries never expire on a timer, they are only removed by invalidation or capacity eviction
	s.cache.Set(key, value, ttlcache.NoTTL)
}

func (s *ttlStorage[K, V]) delete(key K) {
	s.cache.Delete(key)
}

func (s *ttlStorage[K, V]) clear() {
	s.cache.DeleteAll()
}

// NewTTLStorage creates a ttlcache backed storage without expiry.
// A non-zero capacity evicts the least recently used entries once exceeded.
func NewTTLStorage[K comparable, V any](capacity uint64) Storage[K, V] {
	options := []ttlcache.Option[K, V]{
		ttlcache.WithTTL[K, V](ttlcache.NoTTL),
	}
	if capacity > 0 {
		options = append(options, ttlcache.WithCapacity[K, V](capacity))
	}

	return &ttlStorage[K, V]{cache: ttlcache.New[K, V](options...)}
}
