// Package cache wraps the hashicorp LRU with get-or-create and eviction
// statistics.
//
//	c := cache.New[int, []float32](64)
//	k := c.GetOrCreate(radius, func() []float32 { return build(radius) })
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
