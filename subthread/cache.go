// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package subthread implements the sub-thread render cache of a surface.
//
// A Cache owns the producing/completed double buffer of one surface, the
// dirty history used for partial redraws, and the status of the worker task
// producing the next frame. Workers call SubDraw into the producing buffer;
// the render thread publishes the result with UpdateCompletedCacheSurface
// and composites it with DealWithUIFirstCache or DrawCacheSurface.
//
// Threading contract:
//
//   - SubDraw and the producing-buffer methods run on the worker that owns
//     the task.
//   - UpdateCompletedCacheSurface, GetCompletedImage and DrawCacheSurface
//     run on the render thread's frame-sequencing point only, after the task
//     has finished.
//   - ResetUifirst may run on any thread.
package subthread

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/dirty"
	"github.com/gogpu/uifirst/metrics"
	"github.com/gogpu/uifirst/surface"
	"github.com/gogpu/uifirst/surfacepool"
	"github.com/gogpu/uifirst/windowcache"
)

// ErrNilDrawable is returned when a cache operation gets no drawable.
var ErrNilDrawable = errors.New("subthread: nil drawable")

// Cache is the sub-thread cache of one surface node.
type Cache struct {
	nodeID uifirst.NodeID
	env    *Env

	windowCache windowcache.Cache
	pool        *surfacepool.Pool
	dirty       *dirty.Manager

	status          atomic.Int32
	submittedThread atomic.Uint32
	needSubmit      atomic.Bool
	needUpdate      atomic.Bool

	// Scheduling state, set by the render thread before a task is posted.
	lastFrameUsedThread atomic.Uint32
	taskFrameCount      atomic.Uint64
	subThreadSkip       atomic.Bool
	skipCount           atomic.Int32
	skipPriority        atomic.Int32
	highPostPriority    atomic.Bool
	postOrder           atomic.Uint32
	processedSurfaces   atomic.Int32
	reuseCount          atomic.Uint32

	screenID    uint64
	targetGamut uifirst.ColorGamut
	hdrPresent  bool

	mu sync.Mutex // guards the fields below

	// Cache size recorded at the last allocation.
	boundsW, boundsH float64

	// Producing buffer the running SubDraw draws into.
	drawHandle surfacepool.Handle

	dirtyRecordCompleted bool
	dirtyEnableFlag      bool
	uifirstDirtyRegion   uifirst.Region
	mergedDirtyRegion    uifirst.Region
}

// NewCache returns an empty cache for node id. A nil env uses DefaultEnv.
func NewCache(id uifirst.NodeID, env *Env) *Cache {
	if env == nil {
		env = DefaultEnv()
	}
	c := &Cache{
		nodeID: id,
		env:    env,
		pool:   surfacepool.New(),
		dirty:  dirty.NewManager(),
	}
	c.windowCache.Tolerance = env.Policy.ScaleTolerance
	c.submittedThread.Store(uifirst.MainThreadIndex)
	c.lastFrameUsedThread.Store(uifirst.MainThreadIndex)
	c.needSubmit.Store(true)
	return c
}

// NodeID returns the node the cache belongs to.
func (c *Cache) NodeID() uifirst.NodeID { return c.nodeID }

// Env returns the shared environment.
func (c *Cache) Env() *Env { return c.env }

// WindowCache returns the render-thread window cache of the node.
func (c *Cache) WindowCache() *windowcache.Cache { return &c.windowCache }

// ResetWindowCache drops the render-thread window image.
func (c *Cache) ResetWindowCache() { c.windowCache.ClearCache() }

// Pool returns the double buffer.
func (c *Cache) Pool() *surfacepool.Pool { return c.pool }

// SyncUifirstDirtyManager returns the dirty history of the cache itself.
func (c *Cache) SyncUifirstDirtyManager() *dirty.Manager { return c.dirty }

// GetCacheSurfaceProcessedStatus returns the task status.
func (c *Cache) GetCacheSurfaceProcessedStatus() uifirst.CacheProcessStatus {
	return uifirst.CacheProcessStatus(c.status.Load())
}

// SetCacheSurfaceProcessedStatus stores s. Terminal states wake waiters.
func (c *Cache) SetCacheSurfaceProcessedStatus(s uifirst.CacheProcessStatus) {
	if s.IsTerminal() && c.env.Notifier != nil {
		c.env.Notifier.NotifyAll(func() { c.status.Store(int32(s)) })
		return
	}
	c.status.Store(int32(s))
}

// SubmittedThread returns the worker the last task was posted to.
func (c *Cache) SubmittedThread() uint32 { return c.submittedThread.Load() }

// SetSubmittedThread records the worker a task was posted to.
func (c *Cache) SetSubmittedThread(idx uint32) { c.submittedThread.Store(idx) }

// NeedSubmit reports whether the node should get a task this frame.
func (c *Cache) NeedSubmit() bool { return c.needSubmit.Load() }

// SetNeedSubmit sets whether the node should get a task this frame.
func (c *Cache) SetNeedSubmit(v bool) { c.needSubmit.Store(v) }

// GetCacheSurface returns the producing surface if it belongs to
// threadIndex.
func (c *Cache) GetCacheSurface(threadIndex uint32) surface.Surface {
	return c.pool.Producing(threadIndex)
}

// CheckCacheSurface reports whether a producing surface exists.
func (c *Cache) CheckCacheSurface() bool { return c.pool.HasProducing() }

// NeedInitCacheSurface reports whether the producing surface must be
// allocated for params, either because it is missing or because its size or
// pixel format changed.
func (c *Cache) NeedInitCacheSurface(params *uifirst.SurfaceParams, fp16 bool) bool {
	var w, h int
	if params != nil {
		w, h = params.CacheSize()
	}
	ct, _ := surface.ResolveCacheFormat(fp16, c.targetGamut)
	return c.pool.NeedInit(w, h, ct)
}

// InitCacheSurface allocates the producing surface for d on threadIndex.
// A previous producing surface goes to reclaim. When alloc is nil or the
// allocation fails, every buffer is reclaimed and the pool is left empty;
// the node is then drawn without cache.
func (c *Cache) InitCacheSurface(alloc surface.Allocator, d SurfaceDrawable, reclaim surfacepool.ReclaimFunc, threadIndex uint32, fp16 bool) error {
	if d == nil {
		uifirst.Logger().Error("subthread: InitCacheSurface without drawable", "id", c.nodeID)
		return ErrNilDrawable
	}
	if reclaim != nil {
		c.pool.SetReclaimFunc(reclaim)
	}
	c.mu.Lock()
	if params := d.UifirstRenderParams(); params != nil {
		c.boundsW, c.boundsH = params.CacheWidth, params.CacheHeight
	} else {
		uifirst.Logger().Error("subthread: no params for cache size", "id", c.nodeID)
	}
	bw, bh := c.boundsW, c.boundsH
	c.mu.Unlock()

	ct, cs := surface.ResolveCacheFormat(fp16, c.targetGamut)
	info := surface.ImageInfo{
		Width:      int(bw + 0.5),
		Height:     int(bh + 0.5),
		ColorType:  ct,
		ColorSpace: cs,
	}
	uifirst.Logger().Debug("subthread: init cache surface",
		"id", c.nodeID, "width", info.Width, "height", info.Height,
		"colorType", ct, "colorSpace", cs, "thread", threadIndex)

	backend := "none"
	if alloc != nil {
		backend = alloc.API().String()
	}
	if err := c.pool.Init(alloc, info, d.Name(), threadIndex); err != nil {
		c.env.Metrics.Allocation(backend, metrics.ResultError)
		uifirst.Logger().Error("subthread: init cache surface failed", "id", c.nodeID, "err", err)
		return fmt.Errorf("subthread: node %d: %w", c.nodeID, err)
	}
	c.env.Metrics.Allocation(backend, metrics.ResultOK)
	return nil
}

// UpdateBackendTexture records the producing surface's texture after a
// finished draw, marks the producing buffer valid and reports whether it
// did. A buffer released or reallocated while SubDraw ran is left invalid.
func (c *Cache) UpdateBackendTexture() bool {
	if !c.pool.HasProducing() {
		uifirst.Logger().Error("subthread: UpdateBackendTexture without cache surface", "id", c.nodeID)
		return false
	}
	c.mu.Lock()
	h := c.drawHandle
	c.mu.Unlock()
	if err := c.pool.MarkProduced(h); err != nil {
		uifirst.Logger().Error("subthread: drawn buffer changed during sub draw", "id", c.nodeID, "err", err)
		return false
	}
	return true
}

// UpdateCompletedCacheSurface publishes the producing buffer and reports
// whether it did. It does nothing unless the producing buffer holds a
// finished frame; with no frame pending that is not an error.
func (c *Cache) UpdateCompletedCacheSurface() bool {
	if !c.pool.Swap() {
		if c.needUpdate.Load() {
			uifirst.Logger().Error("subthread: swap of producing and completed buffers failed", "id", c.nodeID)
		}
		return false
	}
	c.needUpdate.Store(false)
	uifirst.Logger().Debug("subthread: completed cache updated", "id", c.nodeID)
	return true
}

// UpdateCacheSurfaceInfo stores what the last SubDraw processed.
func (c *Cache) UpdateCacheSurfaceInfo(params *uifirst.SurfaceParams, stats DrawStats) {
	if params == nil {
		return
	}
	ids := make(map[uifirst.NodeID]struct{}, len(params.SubSurfaceIDs))
	for _, id := range params.SubSurfaceIDs {
		ids[id] = struct{}{}
	}
	c.pool.SetProducingInfo(surfacepool.Info{
		ProcessedSurfaceCount: stats.Surfaces,
		ProcessedNodeCount:    stats.Nodes,
		Alpha:                 params.GlobalAlpha,
		SubSurfaceIDs:         ids,
	})
}

// CompletedInfo returns the diagnostics of the completed buffer.
func (c *Cache) CompletedInfo() surfacepool.Info {
	b, _ := c.pool.Completed()
	return b.Info
}

// AllDrawnSubSurfaceNodeIDs returns the sub-surfaces the completed image
// includes.
func (c *Cache) AllDrawnSubSurfaceNodeIDs() map[uifirst.NodeID]struct{} {
	return c.CompletedInfo().SubSurfaceIDs
}

// ClearCacheSurfaceInThread hands both buffers to the reclaim callback.
func (c *Cache) ClearCacheSurfaceInThread() {
	uifirst.Logger().Info("subthread: clear cache surfaces", "id", c.nodeID)
	c.pool.ReleaseAll()
}

// ClearCacheSurfaceOnly hands only the producing buffer to the reclaim
// callback.
func (c *Cache) ClearCacheSurfaceOnly() {
	uifirst.Logger().Info("subthread: clear producing cache surface", "id", c.nodeID)
	c.pool.ReleaseProducing()
}

// ResetUifirst drops the cache. With onlyClearCache the completed image
// survives.
func (c *Cache) ResetUifirst(onlyClearCache bool) {
	if onlyClearCache {
		c.ClearCacheSurfaceOnly()
	} else {
		c.ClearCacheSurfaceInThread()
	}
}

// cacheBounds returns the cache size recorded at the last allocation.
func (c *Cache) cacheBounds() (float64, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boundsW, c.boundsH
}

// HasCachedTexture reports whether a completed frame is available.
func (c *Cache) HasCachedTexture() bool { return c.pool.CompletedValid() }

// IsCacheValid reports whether the producing buffer holds a finished frame
// that has not been published yet.
func (c *Cache) IsCacheValid() bool { return c.pool.Valid() }

// SetCacheSurfaceNeedUpdated marks that a finished frame awaits a swap.
func (c *Cache) SetCacheSurfaceNeedUpdated(v bool) { c.needUpdate.Store(v) }

// GetCacheSurfaceNeedUpdated reports whether a finished frame awaits a
// swap.
func (c *Cache) GetCacheSurfaceNeedUpdated() bool { return c.needUpdate.Load() }

// GetCacheSurfaceAlphaInfo returns the global alpha the completed frame was
// drawn with.
func (c *Cache) GetCacheSurfaceAlphaInfo() float64 { return c.CompletedInfo().Alpha }

// GetCacheSurfaceProcessedNodes returns the node count of the completed
// frame.
func (c *Cache) GetCacheSurfaceProcessedNodes() int { return c.CompletedInfo().ProcessedNodeCount }

func (c *Cache) SetLastFrameUsedThreadIndex(idx uint32) { c.lastFrameUsedThread.Store(idx) }
func (c *Cache) GetLastFrameUsedThreadIndex() uint32    { return c.lastFrameUsedThread.Load() }

// SetTaskFrameCount stamps the frame a task was posted in.
func (c *Cache) SetTaskFrameCount(n uint64) { c.taskFrameCount.Store(n) }
func (c *Cache) GetTaskFrameCount() uint64  { return c.taskFrameCount.Load() }

func (c *Cache) SetSubThreadSkip(v bool) { c.subThreadSkip.Store(v) }
func (c *Cache) IsSubThreadSkip() bool   { return c.subThreadSkip.Load() }

// ProcessSurfaceSkipCount counts a task the worker skipped.
func (c *Cache) ProcessSurfaceSkipCount() { c.skipCount.Add(1) }

// ResetSurfaceSkipCount clears skip accounting after a finished draw.
func (c *Cache) ResetSurfaceSkipCount() {
	c.skipCount.Store(0)
	c.skipPriority.Store(0)
}

func (c *Cache) GetSurfaceSkipCount() int32 { return c.skipCount.Load() }

// GetSurfaceSkipPriority raises and returns the priority of a node whose
// tasks keep being skipped.
func (c *Cache) GetSurfaceSkipPriority() int32 { return c.skipPriority.Add(1) }

func (c *Cache) IsHighPostPriority() bool     { return c.highPostPriority.Load() }
func (c *Cache) SetHighPostPriority(v bool)   { c.highPostPriority.Store(v) }
func (c *Cache) GetUifirstPostOrder() uint32  { return c.postOrder.Load() }
func (c *Cache) SetUifirstPostOrder(o uint32) { c.postOrder.Store(o) }

func (c *Cache) GetScreenID() uint64   { return c.screenID }
func (c *Cache) SetScreenID(id uint64) { c.screenID = id }

func (c *Cache) GetTargetColorGamut() uifirst.ColorGamut  { return c.targetGamut }
func (c *Cache) SetTargetColorGamut(g uifirst.ColorGamut) { c.targetGamut = g }

func (c *Cache) SetHDRPresent(v bool) { c.hdrPresent = v }
func (c *Cache) GetHDRPresent() bool  { return c.hdrPresent }

// GetTotalProcessedSurfaceCount returns the surfaces drawn by the last
// SubDraw.
func (c *Cache) GetTotalProcessedSurfaceCount() int { return int(c.processedSurfaces.Load()) }

func (c *Cache) GetCacheReuseCount() uint32 { return c.reuseCount.Load() }
func (c *Cache) AddCacheReuseCount()        { c.reuseCount.Add(1) }
func (c *Cache) ResetCacheReuseCount()      { c.reuseCount.Store(0) }

// SetCacheBehindWindowData records the behind-window effect of the frame
// being produced.
func (c *Cache) SetCacheBehindWindowData(d *surface.BehindWindowData) {
	c.pool.SetProducingBehindWindow(d)
}

// SetCacheCompletedBehindWindowData replaces the behind-window effect drawn
// under the completed image.
func (c *Cache) SetCacheCompletedBehindWindowData(d *surface.BehindWindowData) {
	c.pool.SetCompletedBehindWindow(d)
}

// ResetCacheBehindWindowData clears the producing behind-window effect.
func (c *Cache) ResetCacheBehindWindowData() { c.pool.SetProducingBehindWindow(nil) }

// ResetCacheCompletedBehindWindowData clears the completed behind-window
// effect.
func (c *Cache) ResetCacheCompletedBehindWindowData() { c.pool.SetCompletedBehindWindow(nil) }
