package cache

import "sync"

type basicStorage[K comparable, V any] struct {
	values map[K]V
	lock   sync.RWMutex
}

func (s *basicStorage[K, V]) get(key K) (V, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	value, ok := s.values[key]
	return value, ok
}

func (s *basicStorage[K, V]) set(key K, value V) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.values[key] = value
}

func (s *basicStorage[K, V]) delete(key K) {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.values, key)
}

func (s *basicStorage[K, V]) clear() {
	s.lock.Lock()
	defer s.lock.Unlock()

	clear(s.values)
}

func NewBasicStorage[K comparable, V any]() Storage[K, V] {
	return &basicStorage[K, V]{
		values: make(map[K]V),
	}
}
