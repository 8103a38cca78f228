package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/Amund211/quotelight/internal/logging"
)

// BulkResolver fetches the values for all the given keys in one upstream round trip.
// Keys the upstream does not know about may be missing from the result.
type BulkResolver[K comparable, V any] func(ctx context.Context, keys []K) ([]V, error)

// batchFetch tracks the keys removed while a bulk resolution is in flight
type batchFetch[K comparable] struct {
	removed    map[K]struct{}
	removedAll bool
}

type fetchOutcome[V any] struct {
	values []V
	err    error
}

// BatchCache resolves batches of keys, serving hits from storage and
// resolving all misses of one batch with a single bulk resolver call.
//
// Partitioning and fetching is serialized per cache instance, so a key is
// never resolved by two concurrent upstream calls.
type BatchCache[K comparable, V any] struct {
	name    string
	keyOf   func(V) K
	storage Storage[K, V]

	// Held for the duration of partition + bulk resolution
	fetchLock chan struct{}

	lock    sync.Mutex
	current *batchFetch[K]
}

func NewBatchCache[K comparable, V any](name string, storage Storage[K, V], keyOf func(V) K) *BatchCache[K, V] {
	return &BatchCache[K, V]{
		name:      name,
		keyOf:     keyOf,
		storage:   storage,
		fetchLock: make(chan struct{}, 1),
	}
}

func (c *BatchCache[K, V]) Name() string {
	return c.name
}

// GetBatch returns the values for keys, keyed by K.
//
// Duplicate keys are resolved once. Keys the bulk resolver did not return a
// value for are absent from the result. On error nothing is stored.
//
// The bulk resolver is not cancelled with ctx, but keeps its deadline. If ctx
// is done first GetBatch returns ctx.Err(), and the resolved values are still stored.
func (c *BatchCache[K, V]) GetBatch(ctx context.Context, keys []K, bulkResolve BulkResolver[K, V]) (map[K]V, error) {
	result := make(map[K]V, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	// Batches served fully from storage don't wait for a resolution in flight
	if misses := c.partition(keys, result); len(misses) == 0 {
		metrics.lookups.Add(ctx, int64(len(keys)), lookupAttributes(c.name, "hit"))
		logging.FromContext(ctx).InfoContext(ctx, "Getting batch", "cache", c.name, "hits", len(keys), "misses", 0)
		return result, nil
	}
	clear(result)

	select {
	case c.fetchLock <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	c.lock.Lock()
	c.current = &batchFetch[K]{removed: make(map[K]struct{})}
	c.lock.Unlock()

	release := func() {
		<-c.fetchLock
	}

	misses := c.partition(keys, result)

	hitCount := len(keys) - len(misses)
	metrics.lookups.Add(ctx, int64(hitCount), lookupAttributes(c.name, "hit"))
	metrics.lookups.Add(ctx, int64(len(misses)), lookupAttributes(c.name, "miss"))

	if len(misses) == 0 {
		c.lock.Lock()
		c.current = nil
		c.lock.Unlock()
		release()
		logging.FromContext(ctx).InfoContext(ctx, "Getting batch", "cache", c.name, "hits", hitCount, "misses", 0)
		return result, nil
	}

	logging.FromContext(ctx).InfoContext(ctx, "Getting batch", "cache", c.name, "hits", hitCount, "misses", len(misses))

	outcomeChan := make(chan fetchOutcome[V], 1)
	resolveCtx, cancel := detachedContext(ctx)
	go func() {
		defer release()
		defer cancel()

		metrics.bulkCalls.Add(resolveCtx, 1, cacheAttributes(c.name))
		metrics.bulkKeys.Record(resolveCtx, int64(len(misses)), cacheAttributes(c.name))

		values, err := func() (values []V, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("bulk resolver panicked: %v", r)
				}
			}()
			return bulkResolve(resolveCtx, misses)
		}()
		c.finishFetch(resolveCtx, values, err)

		outcomeChan <- fetchOutcome[V]{values: values, err: err}
	}()

	var outcome fetchOutcome[V]
	select {
	case outcome = <-outcomeChan:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if outcome.err != nil {
		return nil, fmt.Errorf("failed to resolve %d keys for %s: %w", len(misses), c.name, outcome.err)
	}

	requested := make(map[K]struct{}, len(misses))
	for _, key := range misses {
		requested[key] = struct{}{}
	}
	for _, value := range outcome.values {
		key := c.keyOf(value)
		if _, ok := requested[key]; ok {
			result[key] = value
		}
	}

	return result, nil
}

// partition fills result with the stored values and returns the distinct missing keys in input order
func (c *BatchCache[K, V]) partition(keys []K, result map[K]V) []K {
	misses := make([]K, 0, len(keys))
	seenMisses := make(map[K]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := result[key]; ok {
			continue
		}
		if _, ok := seenMisses[key]; ok {
			continue
		}

		if value, ok := c.storage.get(key); ok {
			result[key] = value
			continue
		}

		seenMisses[key] = struct{}{}
		misses = append(misses, key)
	}
	return misses
}

func (c *BatchCache[K, V]) finishFetch(ctx context.Context, values []V, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	fetch := c.current
	c.current = nil

	if err != nil {
		return
	}

	for _, value := range values {
		key := c.keyOf(value)
		if fetch.removedAll {
			metrics.discarded.Add(ctx, 1, cacheAttributes(c.name))
			continue
		}
		if _, removed := fetch.removed[key]; removed {
			metrics.discarded.Add(ctx, 1, cacheAttributes(c.name))
			continue
		}
		c.storage.set(key, value)
	}
}

// GetOrdered is GetBatch returning the values in the order of keys.
// Duplicate keys yield duplicate values, and keys without a value are skipped.
func (c *BatchCache[K, V]) GetOrdered(ctx context.Context, keys []K, bulkResolve BulkResolver[K, V]) ([]V, error) {
	byKey, err := c.GetBatch(ctx, keys, bulkResolve)
	if err != nil {
		return nil, err
	}

	ordered := make([]V, 0, len(keys))
	for _, key := range keys {
		if value, ok := byKey[key]; ok {
			ordered = append(ordered, value)
		}
	}
	return ordered, nil
}

// Remove drops the stored value for key.
// If key is being resolved, the resolved value will not be stored.
func (c *BatchCache[K, V]) Remove(key K) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.storage.delete(key)
	if c.current != nil {
		c.current.removed[key] = struct{}{}
	}
}

// RemoveAll drops every stored value and discards the results of any resolution in flight
func (c *BatchCache[K, V]) RemoveAll() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.storage.clear()
	if c.current != nil {
		c.current.removedAll = true
	}
}
