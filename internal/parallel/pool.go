package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fixed set of goroutines, each draining its own queue.
//
// Work posted to a worker always runs on that worker: cache surfaces are
// allocated per worker and must be drawn and released on the goroutine that
// owns them, so there is no stealing between queues.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	// workers is the number of worker goroutines.
	workers int

	// workQueues holds per-worker work queues.
	workQueues []chan func()

	// pending counts posted but unfinished work per worker.
	pending []atomic.Int32

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool

	// queueSize is the buffer size for each worker's queue.
	queueSize int
}

// NewWorkerPool creates a pool with the given number of workers and starts
// them. If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		pending:    make([]atomic.Int32, workers),
		done:       make(chan struct{}),
		queueSize:  queueSize,
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

// worker is the main loop for each worker goroutine.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	myQueue := p.workQueues[id]
	for {
		select {
		case <-p.done:
			// Drain remaining work before exiting
			p.drainQueue(id)
			return
		case work := <-myQueue:
			p.run(id, work)
		}
	}
}

func (p *WorkerPool) run(id int, work func()) {
	defer p.pending[id].Add(-1)
	if work != nil {
		work()
	}
}

// drainQueue executes all remaining work in a worker's queue.
func (p *WorkerPool) drainQueue(id int) {
	for {
		select {
		case work := <-p.workQueues[id]:
			p.run(id, work)
		default:
			return
		}
	}
}

// Post queues fn on worker id, blocking while that queue is full. It
// reports false when the pool is closed or id is out of range.
func (p *WorkerPool) Post(id int, fn func()) bool {
	if fn == nil || id < 0 || id >= p.workers || !p.running.Load() {
		return false
	}
	p.pending[id].Add(1)
	select {
	case p.workQueues[id] <- fn:
		return true
	case <-p.done:
		p.pending[id].Add(-1)
		return false
	}
}

// TryPost queues fn on worker id without blocking. It reports false when
// the queue is full or the pool is closed. TryPost may be called from the
// worker itself.
func (p *WorkerPool) TryPost(id int, fn func()) bool {
	if fn == nil || id < 0 || id >= p.workers || !p.running.Load() {
		return false
	}
	p.pending[id].Add(1)
	select {
	case p.workQueues[id] <- fn:
		return true
	default:
		p.pending[id].Add(-1)
		return false
	}
}

// LeastLoaded returns the worker with the fewest unfinished work items,
// preferring lower ids on ties.
func (p *WorkerPool) LeastLoaded() int {
	minIdx := 0
	minLen := p.pending[0].Load()
	for i := 1; i < p.workers; i++ {
		if n := p.pending[i].Load(); n < minLen {
			minLen = n
			minIdx = i
		}
	}
	return minIdx
}

// Pending returns the number of unfinished work items of worker id,
// including the one it is running.
func (p *WorkerPool) Pending(id int) int {
	if id < 0 || id >= p.workers {
		return 0
	}
	return int(p.pending[id].Load())
}

// Close stops accepting work, runs everything already queued, and waits
// for the workers to exit. Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

// QueuedWork returns the total number of work items waiting in queues.
// This is an approximation as queues can change while iterating.
func (p *WorkerPool) QueuedWork() int {
	total := 0
	for _, q := range p.workQueues {
		total += len(q)
	}
	return total
}
