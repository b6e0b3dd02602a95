package cache

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Cache is a thread-safe LRU cache holding at most limit entries.
// When a Set or GetOrCreate pushes it over the limit, the least recently
// used entry is evicted and passed to OnEvict if one is set.
type Cache[K comparable, V any] struct {
	mu    sync.Mutex
	lru   *simplelru.LRU[K, V]
	limit int

	evictions uint64
	onEvict   func(K, V)
}

// New creates a cache with the given limit. Limits below 1 are raised to 1.
func New[K comparable, V any](limit int) *Cache[K, V] {
	limit = max(limit, 1)
	c := &Cache[K, V]{limit: limit}
	// NewLRU fails only for a non-positive size.
	c.lru, _ = simplelru.NewLRU[K, V](limit, c.evicted)
	return c
}

// evicted runs from inside the LRU with c.mu held.
func (c *Cache[K, V]) evicted(key K, value V) {
	if c.onEvict != nil {
		c.onEvict(key, value)
	}
}

// OnEvict sets a callback run for every evicted or deleted entry. It runs
// with the cache locked and must not call back into the cache.
func (c *Cache[K, V]) OnEvict(fn func(K, V)) {
	c.mu.Lock()
	c.onEvict = fn
	c.mu.Unlock()
}

// Get retrieves a value from the cache.
// Returns (value, true) if found, (zero, false) otherwise.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(key)
}

// Set stores a value, replacing any previous value for key.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(key, value)
}

// GetOrCreate returns the cached value or stores the result of create.
// create runs under the lock, so concurrent callers never build the same
// key twice.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.lru.Get(key); ok {
		return v
	}
	v := create()
	c.add(key, v)
	return v
}

// Delete removes an entry from the cache.
// Returns true if the entry was found and removed.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Remove(key)
}

// Clear removes all entries, running OnEvict for each.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Len: c.lru.Len(), Capacity: c.limit, Evictions: c.evictions}
}

// Stats contains cache statistics.
type Stats struct {
	Len       int
	Capacity  int
	Evictions uint64
}

// add stores key and counts a capacity eviction. Caller must hold c.mu.
func (c *Cache[K, V]) add(key K, value V) {
	if c.lru.Add(key, value) {
		c.evictions++
	}
}
