package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("Pool should be running after creation")
	}
}

func TestWorkerPool_CreateZeroWorkers(t *testing.T) {
	pool := NewWorkerPool(0)
	defer pool.Close()

	expected := runtime.GOMAXPROCS(0)
	if pool.Workers() != expected {
		t.Errorf("Workers() = %d, want %d (GOMAXPROCS)", pool.Workers(), expected)
	}
}

func TestWorkerPool_PostRunsOnSameWorker(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	// Each worker is a single goroutine, so work posted to one id never
	// overlaps. The unsynchronized counters would trip the race detector
	// otherwise.
	counts := make([]int, pool.Workers())
	var wg sync.WaitGroup
	for i := range 300 {
		id := i % pool.Workers()
		wg.Add(1)
		if !pool.Post(id, func() {
			defer wg.Done()
			counts[id]++
		}) {
			t.Fatalf("Post(%d) = false", id)
		}
	}
	wg.Wait()

	for id, n := range counts {
		if n != 100 {
			t.Errorf("worker %d ran %d items, want 100", id, n)
		}
	}
}

func TestWorkerPool_PostRejects(t *testing.T) {
	pool := NewWorkerPool(2)

	if pool.Post(-1, func() {}) {
		t.Error("Post(-1) = true, want false")
	}
	if pool.Post(2, func() {}) {
		t.Error("Post(2) = true, want false")
	}
	if pool.Post(0, nil) {
		t.Error("Post(nil) = true, want false")
	}

	pool.Close()
	if pool.Post(0, func() {}) {
		t.Error("Post after Close = true, want false")
	}
	if pool.TryPost(0, func() {}) {
		t.Error("TryPost after Close = true, want false")
	}
}

func TestWorkerPool_TryPostFromWorker(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	var ran atomic.Bool
	done := make(chan struct{})
	pool.Post(0, func() {
		if !pool.TryPost(0, func() {
			ran.Store(true)
			close(done)
		}) {
			t.Error("TryPost from worker = false")
			close(done)
		}
	})
	<-done

	if !ran.Load() {
		t.Error("work queued from worker did not run")
	}
}

func TestWorkerPool_TryPostFull(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	pool.Post(0, func() {
		close(started)
		<-block
	})
	<-started

	accepted := 0
	for range pool.queueSize + 4 {
		if pool.TryPost(0, func() {}) {
			accepted++
		}
	}
	close(block)

	if accepted != pool.queueSize {
		t.Errorf("TryPost accepted %d, want %d", accepted, pool.queueSize)
	}
}

func TestWorkerPool_LeastLoaded(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	block := make(chan struct{})
	var started sync.WaitGroup
	started.Add(2)
	for _, id := range []int{0, 1} {
		pool.Post(id, func() {
			started.Done()
			<-block
		})
	}
	started.Wait()

	if got := pool.LeastLoaded(); got != 2 {
		t.Errorf("LeastLoaded() = %d, want 2", got)
	}
	if got := pool.Pending(0); got != 1 {
		t.Errorf("Pending(0) = %d, want 1", got)
	}
	if got := pool.Pending(9); got != 0 {
		t.Errorf("Pending(9) = %d, want 0", got)
	}
	close(block)
}

func TestWorkerPool_CloseDrainsQueue(t *testing.T) {
	pool := NewWorkerPool(2)

	var counter atomic.Int64
	for i := range 50 {
		pool.Post(i%2, func() { counter.Add(1) })
	}
	pool.Close()

	if got := counter.Load(); got != 50 {
		t.Errorf("ran %d items before Close returned, want 50", got)
	}
	if pool.IsRunning() {
		t.Error("IsRunning() = true after Close")
	}
	if pool.QueuedWork() != 0 {
		t.Errorf("QueuedWork() = %d after Close, want 0", pool.QueuedWork())
	}

	// Second Close is a no-op.
	pool.Close()
}
