// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package scheduler

import (
	"sync"

	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/subthread"
	"github.com/gogpu/uifirst/surface"
)

// worker is the per-goroutine state of one pool worker.
type worker struct {
	index uint32
	alloc surface.Allocator

	mu      sync.Mutex
	release []surface.Surface
}

// addToReleaseQueue queues s for release on this worker.
func (w *worker) addToReleaseQueue(s surface.Surface) {
	w.mu.Lock()
	w.release = append(w.release, s)
	w.mu.Unlock()
}

// releaseSurfaces closes every queued surface. It runs on the worker, or
// after the worker has exited.
func (w *worker) releaseSurfaces() int {
	w.mu.Lock()
	queue := w.release
	w.release = nil
	w.mu.Unlock()

	for _, s := range queue {
		if err := s.Close(); err != nil {
			uifirst.Logger().Warn("scheduler: release cache surface", "thread", w.index, "err", err)
		}
	}
	if len(queue) > 0 {
		uifirst.Logger().Debug("scheduler: released cache surfaces", "thread", w.index, "count", len(queue))
	}
	return len(queue)
}

func (w *worker) pendingRelease() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.release)
}

// drawableCache is the task body: it produces a new cache image of d on
// worker w. Surfaces reclaimed to w since its last task are released first.
//
// A task posted in an earlier frame is skipped when the window already has
// a completed cache; the render thread posts it again. Otherwise the
// producing surface is (re)allocated if needed, the window is replayed into
// it, and a valid result is marked for publication by ProcessDoneNodes.
func (m *Manager) drawableCache(w *worker, d subthread.SurfaceDrawable) {
	c := d.SubThreadCache()
	id := d.ID()
	w.releaseSurfaces()

	c.SetSubThreadSkip(false)
	c.SetCacheSurfaceProcessedStatus(uifirst.StatusDoing)

	if c.HasCachedTexture() && c.GetTaskFrameCount() != m.FrameCount() {
		c.SetSubThreadSkip(true)
		c.ProcessSurfaceSkipCount()
		uifirst.Logger().Debug("scheduler: stale task skipped", "id", id, "name", d.Name(),
			"taskFrame", c.GetTaskFrameCount(), "frame", m.FrameCount())
		m.env.Metrics.SubDraw(uifirst.StatusSkipped.String())
		m.addSkipped(id)
		c.SetCacheSurfaceProcessedStatus(uifirst.StatusSkipped)
		return
	}

	m.drawCache(w, d, c)

	c.ResetSurfaceSkipCount()
	c.SetLastFrameUsedThreadIndex(w.index)
	m.env.Metrics.SubDraw(uifirst.StatusDone.String())
	m.addDone(id)
	c.SetCacheSurfaceProcessedStatus(uifirst.StatusDone)
}

// drawCache replays d into its producing surface on w.
func (m *Manager) drawCache(w *worker, d subthread.SurfaceDrawable, c *subthread.Cache) {
	params := d.UifirstRenderParams()
	if params == nil {
		uifirst.Logger().Error("scheduler: task without params", "id", d.ID())
		return
	}
	fp16 := c.GetHDRPresent()
	s := c.GetCacheSurface(w.index)
	if s == nil || c.NeedInitCacheSurface(params, fp16) {
		if err := c.InitCacheSurface(w.alloc, d, m.reclaim, w.index, fp16); err != nil {
			return
		}
		s = c.GetCacheSurface(w.index)
	}
	if s == nil {
		uifirst.Logger().Error("scheduler: no cache surface", "id", d.ID(), "thread", w.index)
		return
	}

	cv := s.Canvas()
	cfg := cv.Config()
	cfg.IsParallel = true
	cfg.DisableFilterCache = true
	cfg.ThreadIndex = w.index
	cfg.ScreenID = c.GetScreenID()
	cfg.TargetGamut = c.GetTargetColorGamut()
	cfg.HDROn = fp16
	cfg.IsDrawingCache = true
	cv.SetConfig(cfg)
	cv.SetCacheBehindWindowData(nil)
	c.ResetCacheBehindWindowData()

	save := cv.Save()
	c.SubDraw(d, cv)
	cv.RestoreToCount(save)
	if err := s.Flush(); err != nil {
		uifirst.Logger().Error("scheduler: flush cache surface", "id", d.ID(), "err", err)
	}

	// Set before the buffer turns valid: a render thread that stopped
	// waiting may swap it in right after.
	c.SetCacheSurfaceNeedUpdated(true)
	if !c.UpdateBackendTexture() {
		c.SetCacheSurfaceNeedUpdated(false)
	}
	if bw := cv.CacheBehindWindowData(); bw != nil {
		c.SetCacheBehindWindowData(bw)
	}
}

func (m *Manager) addDone(id uifirst.NodeID) {
	m.mu.Lock()
	m.done = append(m.done, id)
	m.mu.Unlock()
}

func (m *Manager) addSkipped(id uifirst.NodeID) {
	m.mu.Lock()
	m.skipped = append(m.skipped, id)
	m.mu.Unlock()
}

// reclaim routes surfaces a cache gives up to the worker that allocated
// them. Surfaces of the render thread, or of a thread the manager does not
// own, are closed at once.
func (m *Manager) reclaim(producing, completed surface.Surface, producingThread, completedThread uint32) {
	m.reclaimOne(producing, producingThread)
	m.reclaimOne(completed, completedThread)
}

func (m *Manager) reclaimOne(s surface.Surface, threadIndex uint32) {
	if s == nil {
		return
	}
	if int(threadIndex) < len(m.workers) && threadIndex != uifirst.MainThreadIndex {
		m.workers[threadIndex].addToReleaseQueue(s)
		return
	}
	if err := s.Close(); err != nil {
		uifirst.Logger().Warn("scheduler: release cache surface", "thread", threadIndex, "err", err)
	}
}

// ReleaseSurfaces asks every worker with reclaimed surfaces to release them
// on its own goroutine. After Close it releases them directly.
func (m *Manager) ReleaseSurfaces() {
	for i, w := range m.workers {
		if w.pendingRelease() == 0 {
			continue
		}
		if !m.pool.IsRunning() {
			w.releaseSurfaces()
			continue
		}
		if !m.pool.TryPost(i, func() { w.releaseSurfaces() }) {
			uifirst.Logger().Debug("scheduler: release deferred, queue full", "thread", w.index)
		}
	}
}

// PendingRelease returns the number of reclaimed surfaces not yet released.
func (m *Manager) PendingRelease() int {
	n := 0
	for _, w := range m.workers {
		n += w.pendingRelease()
	}
	return n
}

var _ subthread.TaskWaiter = (*Manager)(nil)
