package cache

import (
	"strconv"
	"sync"
	"testing"
)

func TestCacheGetSet(t *testing.T) {
	c := New[string, int](4)
	if _, ok := c.Get("a"); ok {
		t.Fatal("Get on empty cache reported a hit")
	}
	c.Set("a", 1)
	c.Set("a", 2)
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Errorf("Get(a) = %v, %v, want 2, true", v, ok)
	}
	if got := c.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int, int](2)
	var evicted []int
	c.OnEvict(func(k, _ int) { evicted = append(evicted, k) })

	c.Set(1, 1)
	c.Set(2, 2)
	c.Get(1) // 2 is now the oldest
	c.Set(3, 3)

	if _, ok := c.Get(2); ok {
		t.Error("key 2 survived eviction")
	}
	for _, k := range []int{1, 3} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("key %d was evicted", k)
		}
	}
	if len(evicted) != 1 || evicted[0] != 2 {
		t.Errorf("evicted = %v, want [2]", evicted)
	}
	if s := c.Stats(); s.Evictions != 1 || s.Len != 2 || s.Capacity != 2 {
		t.Errorf("Stats() = %+v, want {Len:2 Capacity:2 Evictions:1}", s)
	}
}

func TestCacheGetOrCreate(t *testing.T) {
	c := New[int, string](4)
	calls := 0
	create := func() string { calls++; return "v" }

	for i := 0; i < 3; i++ {
		if got := c.GetOrCreate(7, create); got != "v" {
			t.Errorf("GetOrCreate() = %q, want %q", got, "v")
		}
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := New[int, int](8)
	var evicted int
	c.OnEvict(func(int, int) { evicted++ })
	for i := 0; i < 5; i++ {
		c.Set(i, i)
	}
	if !c.Delete(3) {
		t.Error("Delete(3) = false, want true")
	}
	if c.Delete(3) {
		t.Error("second Delete(3) = true, want false")
	}
	c.Clear()
	if got := c.Len(); got != 0 {
		t.Errorf("Len() after Clear = %d, want 0", got)
	}
	if evicted != 5 {
		t.Errorf("OnEvict ran %d times, want 5", evicted)
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := New[int, int](16)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.GetOrCreate((g*i)%32, func() int { return i })
				c.Get(i % 32)
			}
		}(g)
	}
	wg.Wait()
	if got := c.Len(); got > 16 {
		t.Errorf("Len() = %d, want <= 16", got)
	}
}

func TestCacheLimitRaisedToOne(t *testing.T) {
	c := New[int, int](0)
	c.Set(1, 1)
	c.Set(2, 2)
	if got := c.Stats(); got.Len != 1 || got.Capacity != 1 || got.Evictions != 1 {
		t.Errorf("Stats() = %+v, want {Len:1 Capacity:1 Evictions:1}", got)
	}
	if _, ok := c.Get(2); !ok {
		t.Error("newest entry was evicted")
	}
}

func BenchmarkCacheGetOrCreate(b *testing.B) {
	c := New[string, int](1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.GetOrCreate(strconv.Itoa(i%100), func() int {
			return i
		})
	}
}
