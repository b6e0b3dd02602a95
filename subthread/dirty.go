// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package subthread

import (
	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/surface"
)

// UpdateCacheSurfaceDirtyManager moves d's damage for this frame into the
// cache's dirty history. Without a completed cache the whole draw rectangle
// is dirty. After a skipped task the previous frame's damage is carried
// forward. It reports false when d has no dirty manager or params.
func (c *Cache) UpdateCacheSurfaceDirtyManager(d SurfaceDrawable, hasCompleteCache, isLastFrameSkip bool) bool {
	if d == nil {
		uifirst.Logger().Error("subthread: UpdateCacheSurfaceDirtyManager without drawable")
		return false
	}
	src := d.DirtyManager()
	if src == nil {
		uifirst.Logger().Error("subthread: drawable has no dirty manager", "id", d.ID())
		return false
	}
	params := d.RenderParams()
	if params == nil {
		uifirst.Logger().Error("subthread: drawable has no params", "id", d.ID())
		return false
	}

	c.dirty.Clear()
	cur := src.DirtyRegion().JoinRect(src.UifirstFrameDirtyRegion())
	if isLastFrameSkip {
		cur = cur.JoinRect(c.dirty.GetUiLatestHistoryDirtyRegions(1))
	}
	if !hasCompleteCache {
		cur = params.AbsDrawRect
	}
	uifirst.Logger().Debug("subthread: cache dirty",
		"id", d.ID(), "name", d.Name(), "dirty", cur, "hasCache", hasCompleteCache)

	c.dirty.MergeDirtyRect(cur)
	c.dirty.SetBufferAge(1)
	c.dirty.UpdateDirty()
	return true
}

// UpdateUifirstDirtyManager records this frame's damage for d and every
// registered sub-surface, and remembers whether all records succeeded.
// It is called by the render thread before the task is posted.
func (c *Cache) UpdateUifirstDirtyManager(d SurfaceDrawable) {
	if !c.env.Policy.DirtyEnabled {
		return
	}
	if d == nil {
		uifirst.Logger().Error("subthread: UpdateUifirstDirtyManager without drawable")
		return
	}
	params := d.RenderParams()
	if params == nil {
		uifirst.Logger().Error("subthread: UpdateUifirstDirtyManager without params", "id", d.ID())
		c.UpdateDirtyRecordCompletedState(false)
		return
	}
	// The worker redraws into the producing buffer; only damage since that
	// buffer's frame needs repainting.
	hasContent := c.pool.ProducingDrawn()
	lastSkip := c.GetSurfaceSkipCount() > 0
	ok := c.UpdateCacheSurfaceDirtyManager(d, hasContent, lastSkip)
	for _, sub := range c.env.drawables(params.SubSurfaceIDs) {
		ok = sub.SubThreadCache().UpdateCacheSurfaceDirtyManager(sub, hasContent, lastSkip) && ok
	}
	c.UpdateDirtyRecordCompletedState(ok)
}

// IsDirtyRecordCompleted reports whether the last dirty update covered the
// whole window. Reading it does not reset it.
func (c *Cache) IsDirtyRecordCompleted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirtyRecordCompleted
}

// UpdateDirtyRecordCompletedState sets the dirty record flag.
func (c *Cache) UpdateDirtyRecordCompletedState(v bool) {
	c.mu.Lock()
	c.dirtyRecordCompleted = v
	c.mu.Unlock()
}

// SetUifirstDirtyRegion stores the region the last SubDraw repainted.
func (c *Cache) SetUifirstDirtyRegion(rg uifirst.Region) {
	c.mu.Lock()
	c.uifirstDirtyRegion = rg
	c.mu.Unlock()
}

// GetUifirstDirtyRegion returns the region the last SubDraw repainted.
func (c *Cache) GetUifirstDirtyRegion() uifirst.Region {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uifirstDirtyRegion
}

// SetUifirstDirtyEnableFlag sets whether the last SubDraw was partial.
func (c *Cache) SetUifirstDirtyEnableFlag(v bool) {
	c.mu.Lock()
	c.dirtyEnableFlag = v
	c.mu.Unlock()
}

// GetUifirstDirtyEnableFlag reports whether the last SubDraw was partial.
func (c *Cache) GetUifirstDirtyEnableFlag() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirtyEnableFlag
}

// GetCurDirtyRegionWithMatrix maps dirtyRect and absDrawRect from screen
// space into the space m maps from. On failure, when m is not invertible or
// the result is not finite, both rectangles are left unchanged.
func GetCurDirtyRegionWithMatrix(m uifirst.Matrix, dirtyRect, absDrawRect *uifirst.RectF) bool {
	inv, ok := m.Invert()
	if !ok {
		return false
	}
	d := inv.MapRect(*dirtyRect)
	a := inv.MapRect(*absDrawRect)
	if !d.IsFinite() || !a.IsFinite() {
		return false
	}
	*dirtyRect, *absDrawRect = d, a
	return true
}

// CalculateUifirstDirtyRegion returns the damage of d in cache pixels.
//
// An empty history is reported as an empty rectangle and success. Damage
// that touches the visible filter rectangle grows to cover the filter. The
// result is rounded outward. It reports false when the node's geometry is
// degenerate or lies off screen, or when the dirty matrix is singular; the
// caller then redraws everything.
func (c *Cache) CalculateUifirstDirtyRegion(d SurfaceDrawable, isRoot bool, visibleFilter uifirst.RectI) (uifirst.RectI, bool) {
	if d == nil {
		uifirst.Logger().Error("subthread: CalculateUifirstDirtyRegion without drawable")
		return uifirst.RectI{}, false
	}
	// The root reads the params synced for the worker so both threads see
	// the same draw rectangle.
	params := d.RenderParams()
	if isRoot {
		params = d.UifirstRenderParams()
	}
	if params == nil {
		uifirst.Logger().Error("subthread: CalculateUifirstDirtyRegion without params", "id", d.ID())
		return uifirst.RectI{}, false
	}

	latest := c.dirty.GetUiLatestHistoryDirtyRegions(c.env.Policy.HistoryWindow)
	if latest.IsEmpty() {
		return uifirst.RectI{}, true
	}
	if latest.Intersects(visibleFilter) {
		latest = latest.JoinRect(visibleFilter)
	}

	abs := params.AbsDrawRect
	if abs.Width == 0 || abs.Height == 0 || !abs.IsInsideOf(params.ScreenRect) {
		uifirst.Logger().Debug("subthread: draw rect invalid or off screen", "id", d.ID(), "abs", abs)
		return uifirst.RectI{}, false
	}

	dirtyF, absF := latest.ToRectF(), abs.ToRectF()
	if !GetCurDirtyRegionWithMatrix(params.DirtyRegionMatrix, &dirtyF, &absF) {
		return uifirst.RectI{}, false
	}
	if absF.Width() == 0 || absF.Height() == 0 {
		return uifirst.RectI{}, false
	}

	ws := params.Bounds.Width() / absF.Width()
	hs := params.Bounds.Height() / absF.Height()
	left := (dirtyF.Left - absF.Left) * ws
	top := (dirtyF.Top - absF.Top) * hs
	r := uifirst.NewRectF(left, top, dirtyF.Width()*ws, dirtyF.Height()*hs)
	if !r.IsFinite() {
		return uifirst.RectI{}, false
	}
	out := r.RoundOut()
	uifirst.Logger().Debug("subthread: dirty region",
		"id", d.ID(), "latest", dirtyF, "abs", absF, "result", out)
	return out, true
}

// MergeUifirstAllSurfaceDirtyRegion unions the damage of a leash window and
// its registered sub-surfaces. Sub-surfaces are a flat set, not a tree. It
// reports false when dirty tracking is off, the window is not a leash
// window, the dirty record is incomplete, or any part failed; the caller
// then treats the window as fully dirty.
func (c *Cache) MergeUifirstAllSurfaceDirtyRegion(d SurfaceDrawable) (uifirst.Region, bool) {
	if !c.env.Policy.DirtyEnabled {
		return uifirst.Region{}, false
	}
	if d == nil {
		uifirst.Logger().Error("subthread: MergeUifirstAllSurfaceDirtyRegion without drawable")
		return uifirst.Region{}, false
	}
	c.mu.Lock()
	c.mergedDirtyRegion = uifirst.Region{}
	c.mu.Unlock()

	params := d.UifirstRenderParams()
	if params == nil {
		uifirst.Logger().Error("subthread: MergeUifirstAllSurfaceDirtyRegion without params", "id", d.ID())
		return uifirst.Region{}, false
	}
	if !params.IsLeashWindow || !c.IsDirtyRecordCompleted() {
		uifirst.Logger().Debug("subthread: partial redraw not supported", "id", d.ID())
		return uifirst.Region{}, false
	}

	var merged uifirst.Region
	rect, ok := c.CalculateUifirstDirtyRegion(d, true, params.VisibleFilterRect)
	merged.UnionRect(rect)
	for _, sub := range c.env.drawables(params.SubSurfaceIDs) {
		r, subOK := sub.SubThreadCache().CalculateUifirstDirtyRegion(sub, false, params.VisibleFilterRect)
		ok = ok && subOK
		merged.UnionRect(r)
	}

	c.mu.Lock()
	c.mergedDirtyRegion = merged
	c.mu.Unlock()
	return merged, ok
}

// MergedDirtyRegion returns the region computed by the last
// MergeUifirstAllSurfaceDirtyRegion.
func (c *Cache) MergedDirtyRegion() uifirst.Region {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mergedDirtyRegion
}

// UpdateAllSurfaceUifirstDirtyEnableState shares the merged region and the
// partial-redraw flag with every registered sub-surface.
func (c *Cache) UpdateAllSurfaceUifirstDirtyEnableState(d SurfaceDrawable, enable bool) {
	if !c.env.Policy.DirtyEnabled {
		return
	}
	if d == nil {
		uifirst.Logger().Error("subthread: UpdateAllSurfaceUifirstDirtyEnableState without drawable")
		return
	}
	merged := c.MergedDirtyRegion()
	c.SetUifirstDirtyRegion(merged)
	c.SetUifirstDirtyEnableFlag(enable)
	params := d.UifirstRenderParams()
	if params == nil {
		return
	}
	for _, sub := range c.env.drawables(params.SubSurfaceIDs) {
		sc := sub.SubThreadCache()
		sc.SetUifirstDirtyRegion(merged)
		sc.SetUifirstDirtyEnableFlag(enable)
	}
}

// PushDirtyRegionToStack restricts c to the region a replay must repaint.
// Worker canvases use the region shared by the leash window when the
// current draw is partial; other canvases use result.
func (c *Cache) PushDirtyRegionToStack(cv surface.Canvas, result uifirst.Region) {
	if cv.Config().IsParallel {
		if c.GetUifirstDirtyEnableFlag() {
			cv.ClipRegion(c.GetUifirstDirtyRegion())
		}
		return
	}
	cv.ClipRegion(result)
}
