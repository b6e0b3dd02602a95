// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package scheduler

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"

	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/dirty"
	"github.com/gogpu/uifirst/internal/parallel"
	"github.com/gogpu/uifirst/metrics"
	"github.com/gogpu/uifirst/subthread"
	"github.com/gogpu/uifirst/surface"
)

// ErrNilEnv is returned by New without an environment.
var ErrNilEnv = errors.New("scheduler: nil env")

// paramsSyncer is implemented by drawables that keep a separate copy of
// their params for workers.
type paramsSyncer interface {
	SyncUifirstParams()
}

// ProcessResult lists what a ProcessDoneNodes call did.
type ProcessResult struct {
	// Published nodes had their new cache swapped in.
	Published []uifirst.NodeID
	// Discarded nodes finished after they were reset or left the cohort.
	Discarded []uifirst.NodeID
	// Skipped nodes were not drawn because their task was stale. They can
	// be posted again.
	Skipped []uifirst.NodeID
}

// Manager posts sub-thread cache tasks to a fixed pool of workers and
// sequences their results into frames.
//
// ScheduleRenderNodeDrawable, ProcessDoneNodes, ResetNode and BeginFrame
// belong to the render thread. WaitNodeTask is called by caches on the
// render thread. Worker goroutines only run posted tasks.
type Manager struct {
	env     *subthread.Env
	clk     clock.Clock
	pool    *parallel.WorkerPool
	workers []*worker

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	frame     atomic.Uint64
	postOrder atomic.Uint32
	rr        atomic.Uint32

	mu           sync.Mutex
	processing   map[uifirst.NodeID]struct{}
	done         []uifirst.NodeID
	skipped      []uifirst.NodeID
	pendingReset map[uifirst.NodeID]bool

	// render thread only
	idleFrames int
	posted     bool
}

// New starts a manager whose workers serve the caches sharing env. The
// manager becomes env's TaskWaiter.
//
// A worker whose allocator cannot be created still runs; its tasks fail
// allocation and the affected windows are drawn without a cache.
func New(env *subthread.Env, opts ...Option) (*Manager, error) {
	if env == nil {
		return nil, ErrNilEnv
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	n := o.workers
	if n <= 0 {
		n = env.Policy.Workers
	}
	n = max(n, 1)

	if env.Notifier == nil {
		env.Notifier = subthread.NewNotifier()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		env:          env,
		clk:          o.clock,
		workers:      make([]*worker, n),
		ctx:          ctx,
		cancel:       cancel,
		processing:   make(map[uifirst.NodeID]struct{}),
		pendingReset: make(map[uifirst.NodeID]bool),
	}
	for i := range n {
		idx := uint32(i)
		alloc, err := newAllocator(o, idx)
		if err != nil {
			uifirst.Logger().Error("scheduler: no allocator for worker", "thread", idx, "err", err)
		}
		m.workers[i] = &worker{index: idx, alloc: alloc}
	}
	m.pool = parallel.NewWorkerPool(n)
	env.Waiter = m

	uifirst.Logger().Info("scheduler: started", "workers", n)
	return m, nil
}

func newAllocator(o options, threadIndex uint32) (surface.Allocator, error) {
	if o.allocators != nil {
		return o.allocators.NewAllocator(threadIndex)
	}
	if o.factory == nil {
		return nil, surface.ErrNoBackendAvailable
	}
	return o.factory(threadIndex)
}

// Env returns the environment shared with the caches.
func (m *Manager) Env() *subthread.Env { return m.env }

// Workers returns the number of workers.
func (m *Manager) Workers() int { return len(m.workers) }

// BeginFrame advances the frame counter and returns the new frame number.
// Tasks posted in an earlier frame are skipped by the worker if a completed
// cache already exists.
func (m *Manager) BeginFrame() uint64 { return m.frame.Add(1) }

// FrameCount returns the current frame number.
func (m *Manager) FrameCount() uint64 { return m.frame.Load() }

// IsProcessing reports whether a task of id is posted and not yet consumed
// by ProcessDoneNodes.
func (m *Manager) IsProcessing(id uifirst.NodeID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.processing[id]
	return ok
}

func (m *Manager) lookup(id uifirst.NodeID) subthread.SurfaceDrawable {
	if m.env.Lookup == nil || id == uifirst.InvalidNodeID {
		return nil
	}
	return m.env.Lookup(id)
}

// ScheduleRenderNodeDrawable posts a cache task for node id. It syncs the
// worker's params, records the frame's damage, and queues the task on a
// worker. It reports whether a task was posted.
//
// No task is posted while an earlier one is still being processed, or when
// the window has a completed cache and nothing in it changed this frame.
// Damage of a refused frame is kept for the next post.
func (m *Manager) ScheduleRenderNodeDrawable(id uifirst.NodeID) bool {
	if !m.pool.IsRunning() {
		return false
	}
	d := m.lookup(id)
	if d == nil || d.SubThreadCache() == nil {
		uifirst.Logger().Error("scheduler: post of unknown node", "id", id)
		return false
	}
	if m.IsProcessing(id) {
		uifirst.Logger().Error("scheduler: node posted twice", "id", id, "name", d.Name())
		return false
	}
	cache := d.SubThreadCache()

	dms := m.commitDirty(d)
	defer clearDirty(dms)
	m.syncParams(d)

	params := d.UifirstRenderParams()
	if params == nil {
		uifirst.Logger().Error("scheduler: node has no params", "id", id)
		return false
	}
	cache.SetHDRPresent(params.HDRPresent)
	cache.SetScreenID(params.ScreenID)
	cache.SetTargetColorGamut(params.TargetGamut)
	cache.SetHighPostPriority(params.HighPostPriority)

	if m.contentUnchanged(cache, params, dms) {
		cache.AddCacheReuseCount()
		uifirst.Logger().Debug("scheduler: content unchanged", "id", id, "reuse", cache.GetCacheReuseCount())
		return false
	}
	cache.ResetCacheReuseCount()
	cache.UpdateUifirstDirtyManager(d)

	idx := m.pickWorker(cache)
	cache.SetCacheSurfaceProcessedStatus(uifirst.StatusWaiting)
	cache.SetTaskFrameCount(m.FrameCount())
	cache.SetUifirstPostOrder(m.postOrder.Add(1))
	cache.SetSubmittedThread(uint32(idx))

	m.mu.Lock()
	m.processing[id] = struct{}{}
	m.posted = true
	m.mu.Unlock()

	w := m.workers[idx]
	if !m.pool.Post(idx, func() { m.drawableCache(w, d) }) {
		m.mu.Lock()
		delete(m.processing, id)
		m.mu.Unlock()
		cache.SetCacheSurfaceProcessedStatus(uifirst.StatusSkipped)
		uifirst.Logger().Warn("scheduler: post rejected", "id", id, "thread", idx)
		return false
	}
	uifirst.Logger().Debug("scheduler: posted", "id", id, "name", d.Name(),
		"thread", idx, "frame", m.FrameCount())
	return true
}

// syncParams copies the render params of d and its sub-surfaces for the
// worker.
func (m *Manager) syncParams(d subthread.SurfaceDrawable) {
	if s, ok := d.(paramsSyncer); ok {
		s.SyncUifirstParams()
	}
	params := d.RenderParams()
	if params == nil {
		return
	}
	for _, id := range params.SubSurfaceIDs {
		if s, ok := m.lookup(id).(paramsSyncer); ok {
			s.SyncUifirstParams()
		}
	}
}

// commitDirty closes the frame on the render-thread dirty managers of d and
// its sub-surfaces and returns them.
func (m *Manager) commitDirty(d subthread.SurfaceDrawable) []*dirty.Manager {
	dms := make([]*dirty.Manager, 0, 1)
	add := func(sd subthread.SurfaceDrawable) {
		if sd == nil {
			return
		}
		if dm := sd.DirtyManager(); dm != nil {
			dm.UpdateDirty()
			dms = append(dms, dm)
		}
	}
	add(d)
	if params := d.RenderParams(); params != nil {
		for _, id := range params.SubSurfaceIDs {
			add(m.lookup(id))
		}
	}
	return dms
}

func clearDirty(dms []*dirty.Manager) {
	for _, dm := range dms {
		dm.Clear()
	}
}

// contentUnchanged reports whether the completed cache still shows the
// window: nothing was damaged, the last task was not skipped and the cache
// size is unchanged.
func (m *Manager) contentUnchanged(c *subthread.Cache, params *uifirst.SurfaceParams, dms []*dirty.Manager) bool {
	if !m.env.Policy.DirtyEnabled || !c.HasCachedTexture() || c.GetSurfaceSkipCount() > 0 {
		return false
	}
	if c.NeedInitCacheSurface(params, params.HDRPresent) {
		return false
	}
	for _, dm := range dms {
		if !dm.DirtyRegion().IsEmpty() || !dm.UifirstFrameDirtyRegion().IsEmpty() {
			return false
		}
	}
	return true
}

// pickWorker keeps a window on the worker that owns its surfaces. High
// priority windows without one go to the least loaded worker, the rest are
// spread round robin.
func (m *Manager) pickWorker(c *subthread.Cache) int {
	n := len(m.workers)
	if last := c.GetLastFrameUsedThreadIndex(); last != uifirst.MainThreadIndex && int(last) < n {
		return int(last)
	}
	if c.IsHighPostPriority() {
		return m.pool.LeastLoaded()
	}
	return int(m.rr.Add(1)-1) % n
}

// WaitNodeTask blocks until the task of id reaches DONE or SKIPPED, the
// policy's wait timeout passes, or the manager closes. It reports whether
// the task finished.
func (m *Manager) WaitNodeTask(id uifirst.NodeID) bool {
	d := m.lookup(id)
	if d == nil || d.SubThreadCache() == nil {
		m.env.Metrics.Wait(metrics.WaitNoTask, 0)
		return false
	}
	c := d.SubThreadCache()
	if c.GetCacheSurfaceProcessedStatus() == uifirst.StatusUnknown {
		m.env.Metrics.Wait(metrics.WaitNoTask, 0)
		return false
	}

	start := m.clk.Now()
	ok := m.env.Notifier.Wait(m.ctx, m.clk, m.env.Policy.WaitTimeout(), func() bool {
		return !c.GetCacheSurfaceProcessedStatus().InFlight()
	})
	elapsed := m.clk.Since(start)
	if !ok {
		m.env.Metrics.Wait(metrics.WaitTimedOut, elapsed)
		uifirst.Logger().Warn("scheduler: wait timed out", "id", id, "name", d.Name(),
			"status", c.GetCacheSurfaceProcessedStatus(), "elapsed", elapsed)
		return false
	}
	m.env.Metrics.Wait(metrics.WaitCompleted, elapsed)
	return true
}

// ProcessDoneNodes is the render thread's sequencing point for finished
// tasks. It publishes the caches produced since the last call, discards
// results of nodes that were reset or left the cohort while processing,
// and releases reclaimed surfaces once no task ran for more than the
// policy's idle threshold.
func (m *Manager) ProcessDoneNodes() ProcessResult {
	m.mu.Lock()
	done, skipped := m.done, m.skipped
	m.done, m.skipped = nil, nil
	posted := m.posted
	m.posted = false
	m.mu.Unlock()

	// Publish in post order, not in the order workers finished.
	slices.SortStableFunc(done, func(a, b uifirst.NodeID) int {
		return cmp.Compare(m.postOrderOf(a), m.postOrderOf(b))
	})

	var res ProcessResult
	for _, id := range done {
		m.mu.Lock()
		delete(m.processing, id)
		onlyClearCache, reset := m.pendingReset[id]
		delete(m.pendingReset, id)
		m.mu.Unlock()

		d := m.lookup(id)
		if d == nil || d.SubThreadCache() == nil {
			continue
		}
		c := d.SubThreadCache()
		if !reset {
			if p := d.RenderParams(); p != nil && p.EnableType == uifirst.CacheTypeNone {
				reset, onlyClearCache = true, false
			}
		}
		if reset {
			c.SetCacheSurfaceNeedUpdated(false)
			c.ResetUifirst(onlyClearCache)
			res.Discarded = append(res.Discarded, id)
			uifirst.Logger().Debug("scheduler: result discarded", "id", id, "onlyClearCache", onlyClearCache)
			continue
		}
		if c.GetCacheSurfaceNeedUpdated() && c.CheckCacheSurface() && c.UpdateCompletedCacheSurface() {
			res.Published = append(res.Published, id)
		}
	}
	for _, id := range skipped {
		m.mu.Lock()
		delete(m.processing, id)
		onlyClearCache, reset := m.pendingReset[id]
		delete(m.pendingReset, id)
		m.mu.Unlock()
		if reset {
			if d := m.lookup(id); d != nil && d.SubThreadCache() != nil {
				d.SubThreadCache().ResetUifirst(onlyClearCache)
			}
			res.Discarded = append(res.Discarded, id)
			continue
		}
		res.Skipped = append(res.Skipped, id)
	}

	m.trackIdle(posted || len(done) > 0 || len(skipped) > 0)
	return res
}

func (m *Manager) postOrderOf(id uifirst.NodeID) uint32 {
	if d := m.lookup(id); d != nil && d.SubThreadCache() != nil {
		return d.SubThreadCache().GetUifirstPostOrder()
	}
	return 0
}

func (m *Manager) trackIdle(busy bool) {
	m.mu.Lock()
	inFlight := len(m.processing)
	m.mu.Unlock()
	if busy || inFlight > 0 {
		m.idleFrames = 0
		return
	}
	m.idleFrames++
	if m.idleFrames > m.env.Policy.ClearResThreshold {
		m.ReleaseSurfaces()
	}
}

// ResetNode drops the cache of node id. With onlyClearCache the completed
// image survives. A node whose task is still processing is reset once the
// task is consumed by ProcessDoneNodes; ResetNode then reports false.
func (m *Manager) ResetNode(id uifirst.NodeID, onlyClearCache bool) bool {
	m.mu.Lock()
	if _, ok := m.processing[id]; ok {
		if prev, seen := m.pendingReset[id]; seen {
			onlyClearCache = prev && onlyClearCache
		}
		m.pendingReset[id] = onlyClearCache
		m.mu.Unlock()
		uifirst.Logger().Debug("scheduler: reset deferred", "id", id)
		return false
	}
	m.mu.Unlock()

	d := m.lookup(id)
	if d == nil || d.SubThreadCache() == nil {
		return false
	}
	d.SubThreadCache().ResetUifirst(onlyClearCache)
	return true
}

// Close stops the workers after they finish queued tasks, wakes blocked
// waiters, and releases every reclaimed surface. Close is safe to call
// multiple times.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.cancel()
		m.pool.Close()
		for _, w := range m.workers {
			w.releaseSurfaces()
		}
		if w, ok := m.env.Waiter.(*Manager); ok && w == m {
			m.env.Waiter = nil
		}
		uifirst.Logger().Info("scheduler: closed")
	})
}
