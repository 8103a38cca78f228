package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/Amund211/quotelight/internal/logging"
)

type Compute[K comparable, V any] func(ctx context.Context, key K) (V, error)

// call is one in-flight computation shared by every caller waiting for the same key
type call[V any] struct {
	done chan struct{}

	value V
	err   error

	// Guarded by the owning cache's lock
	waiters int
	discard bool
	cancel  context.CancelFunc
}

// SingleFlightCache memoizes the result of compute per key.
//
// Concurrent callers for the same key share one computation. Errors are
// returned to every caller of that computation and are never cached.
// Values never expire, they are removed by Invalidate or Clear.
type SingleFlightCache[K comparable, V any] struct {
	name    string
	storage Storage[K, V]

	lock     sync.Mutex
	inFlight map[K]*call[V]
}

func NewSingleFlightCache[K comparable, V any](name string, storage Storage[K, V]) *SingleFlightCache[K, V] {
	return &SingleFlightCache[K, V]{
		name:     name,
		storage:  storage,
		inFlight: make(map[K]*call[V]),
	}
}

// Get returns the cached value for key, computing it if necessary.
//
// The computation is not cancelled with ctx, but keeps its deadline. If ctx is
// done before the computation finishes, Get returns ctx.Err() and the
// computation keeps running for the remaining callers. It is cancelled once no
// callers are left.
func (c *SingleFlightCache[K, V]) Get(ctx context.Context, key K, compute Compute[K, V]) (V, error) {
	logger := logging.FromContext(ctx)

	if value, ok := c.storage.get(key); ok {
		logger.InfoContext(ctx, "Getting value", "cache", c.name, "result", "hit")
		metrics.lookups.Add(ctx, 1, lookupAttributes(c.name, "hit"))
		return value, nil
	}

	c.lock.Lock()
	// Another caller may have stored the value since we checked
	if value, ok := c.storage.get(key); ok {
		c.lock.Unlock()
		logger.InfoContext(ctx, "Getting value", "cache", c.name, "result", "hit")
		metrics.lookups.Add(ctx, 1, lookupAttributes(c.name, "hit"))
		return value, nil
	}

	cl, joined := c.inFlight[key]
	if !joined {
		computeCtx, cancel := detachedContext(ctx)
		cl = &call[V]{
			done:   make(chan struct{}),
			cancel: cancel,
		}
		c.inFlight[key] = cl
		go c.run(computeCtx, key, cl, compute)
	}
	cl.waiters++
	c.lock.Unlock()

	if joined {
		logger.InfoContext(ctx, "Getting value", "cache", c.name, "result", "joined")
		metrics.lookups.Add(ctx, 1, lookupAttributes(c.name, "joined"))
	} else {
		logger.InfoContext(ctx, "Getting value", "cache", c.name, "result", "miss")
		metrics.lookups.Add(ctx, 1, lookupAttributes(c.name, "miss"))
	}

	return c.await(ctx, key, cl)
}

func (c *SingleFlightCache[K, V]) run(ctx context.Context, key K, cl *call[V], compute Compute[K, V]) {
	defer cl.cancel()

	value, err := func() (value V, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("compute panicked: %v", r)
			}
		}()
		return compute(ctx, key)
	}()

	c.lock.Lock()
	cl.value = value
	cl.err = err
	if c.inFlight[key] == cl {
		delete(c.inFlight, key)
	}
	if err == nil {
		if cl.discard {
			metrics.discarded.Add(ctx, 1, cacheAttributes(c.name))
		} else {
			c.storage.set(key, value)
		}
	}
	c.lock.Unlock()

	close(cl.done)
}

func (c *SingleFlightCache[K, V]) await(ctx context.Context, key K, cl *call[V]) (V, error) {
	select {
	case <-cl.done:
		return cl.value, cl.err
	case <-ctx.Done():
	}

	// Prefer a result that is already available
	select {
	case <-cl.done:
		return cl.value, cl.err
	default:
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	cl.waiters--
	if cl.waiters == 0 {
		// Nobody is interested in the result anymore
		cl.cancel()
		cl.discard = true
		if c.inFlight[key] == cl {
			delete(c.inFlight, key)
		}
	}

	var empty V
	return empty, ctx.Err()
}

// Invalidate removes the cached value for key.
// A computation in flight for key completes for its current callers, but its result is not stored.
func (c *SingleFlightCache[K, V]) Invalidate(key K) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.storage.delete(key)
	if cl, ok := c.inFlight[key]; ok {
		cl.discard = true
		delete(c.inFlight, key)
	}
}

// Clear invalidates every key
func (c *SingleFlightCache[K, V]) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.storage.clear()
	for key, cl := range c.inFlight {
		cl.discard = true
		delete(c.inFlight, key)
	}
}
