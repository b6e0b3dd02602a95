// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package subthread

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/metrics"
	"github.com/gogpu/uifirst/surface"
	"github.com/gogpu/uifirst/windowcache"
)

// DFX colors.
var (
	dfxCardColor    = color.NRGBA{B: 128, A: 128}
	dfxSuccessColor = color.NRGBA{G: 128, B: 128, A: 128}
	dfxFailColor    = color.NRGBA{R: 128, A: 128}
	dfxDirtyColor   = color.NRGBA{R: 255, G: 182, B: 193, A: 102}
)

// GetCompletedImage returns an image of the completed buffer for drawing on
// c from threadIndex, or nil.
//
// With isUIFirst the completed backend texture is wrapped directly. A
// half-float texture is always tagged sRGB; otherwise the image takes the
// color space of the completed surface. Without isUIFirst the surface is
// snapshotted, and a texture-backed snapshot taken for another thread is
// imported through a shared context instead of copied.
func (c *Cache) GetCompletedImage(cv surface.Canvas, threadIndex uint32, isUIFirst bool) surface.Image {
	if cv == nil {
		uifirst.Logger().Error("subthread: GetCompletedImage without canvas", "id", c.nodeID)
		return nil
	}
	b, _ := c.pool.Completed()

	if isUIFirst {
		if !b.Texture.IsValid() {
			uifirst.Logger().Error("subthread: completed backend texture invalid", "id", c.nodeID)
			return nil
		}
		info := surface.ImageInfo{ColorType: surface.ColorTypeRGBA8888, ColorSpace: surface.ColorSpaceSRGB}
		if b.Texture.Format == gputypes.TextureFormatRGBA16Float {
			info.ColorType = surface.ColorTypeRGBAF16
		} else if b.Surface != nil {
			info.ColorSpace = b.Surface.ImageInfo().ColorSpace
		}
		var releaser *surface.Releaser
		if b.Texture.API == surface.APIVulkan {
			if b.Surface == nil || b.Surface.Releaser() == nil {
				uifirst.Logger().Error("subthread: completed vulkan image has no owner", "id", c.nodeID)
				return nil
			}
			releaser = b.Surface.Releaser()
		}
		img := surface.BuildFromTexture(b.Texture, info, releaser)
		if img == nil {
			uifirst.Logger().Error("subthread: wrap completed texture failed", "id", c.nodeID)
		}
		return img
	}

	if b.Surface == nil {
		uifirst.Logger().Error("subthread: no completed cache surface", "id", c.nodeID)
		return nil
	}
	img := b.Surface.Snapshot(nil)
	if img == nil {
		uifirst.Logger().Error("subthread: snapshot of completed surface failed", "id", c.nodeID)
		return nil
	}
	if threadIndex == b.ThreadIndex || !img.IsTextureBacked() {
		return img
	}
	return surface.NewSharedTextureImage(img)
}

// DrawCacheSurface draws the completed image of d into a boundW x boundH
// area of c. The image is scaled uniformly when its aspect matches the
// area, and placed by d's gravity otherwise. When c carries a stencil value
// the image only covers pixels up to that value.
func (c *Cache) DrawCacheSurface(d SurfaceDrawable, cv surface.Canvas, boundW, boundH float64, threadIndex uint32, isUIFirst bool) bool {
	if d == nil || cv == nil {
		uifirst.Logger().Error("subthread: DrawCacheSurface without drawable or canvas", "id", c.nodeID)
		return false
	}
	if bw, bh := c.cacheBounds(); bw == 0 || bh == 0 {
		uifirst.Logger().Error("subthread: cache bounds are zero", "id", c.nodeID)
		c.env.Metrics.CacheDraw(metrics.ResultFail)
		return false
	}
	img := c.GetCompletedImage(cv, threadIndex, isUIFirst)
	if img == nil || img.Width() == 0 || img.Height() == 0 {
		uifirst.Logger().Error("subthread: cache image invalid", "id", c.nodeID)
		if img != nil {
			img.Release()
		}
		c.env.Metrics.CacheDraw(metrics.ResultMiss)
		return false
	}
	defer img.Release()

	save := cv.Save()
	defer cv.RestoreToCount(save)

	w, h := float64(img.Width()), float64(img.Height())
	sx, sy, tx, ty := uifirst.CacheScale(w, h, boundW, boundH, d.GravityMatrix(w, h), c.env.Policy.ScaleTolerance)
	cv.Scale(sx, sy)
	uifirst.Logger().Debug("subthread: draw cache surface",
		"id", c.nodeID, "bound", [2]float64{boundW, boundH}, "cache", [2]int{img.Width(), img.Height()},
		"scale", [2]float64{sx, sy})

	c.DrawBehindWindowBeforeCache(cv, tx, ty)
	if v := cv.StencilVal(); v > uifirst.InvalidStencilVal && v < cv.MaxStencilVal() {
		uifirst.Logger().Debug("subthread: draw image with stencil", "id", c.nodeID, "stencil", v)
		cv.DrawImageWithStencil(img, tx, ty, surface.SamplingLinear, surface.StencilRange{Max: uint32(v) + 1})
	} else {
		cv.DrawImage(img, tx, ty, surface.SamplingLinear)
	}
	c.env.Metrics.CacheDraw(metrics.ResultHit)
	return true
}

// DrawUIFirstCache draws the completed cache of d. Without one it either
// gives up at once when canSkipWait is set, or waits a bounded time for
// the node's task and publishes its result first.
func (c *Cache) DrawUIFirstCache(d SurfaceDrawable, cv surface.Canvas, canSkipWait bool) bool {
	if d == nil {
		uifirst.Logger().Error("subthread: DrawUIFirstCache without drawable")
		return false
	}
	params := d.RenderParams()
	if params == nil {
		uifirst.Logger().Error("subthread: DrawUIFirstCache without params", "id", d.ID())
		return false
	}
	if !c.HasCachedTexture() {
		if canSkipWait {
			uifirst.Logger().Info("subthread: skip wait", "id", d.ID(), "name", d.Name())
			c.env.Metrics.Wait(metrics.WaitSkipped, 0)
			return false
		}
		if c.env.Waiter != nil {
			c.env.Waiter.WaitNodeTask(d.ID())
		}
		c.UpdateCompletedCacheSurface()
	}
	return c.DrawCacheSurface(d, cv, params.CacheWidth, params.CacheHeight, uifirst.MainThreadIndex, true)
}

// DrawUIFirstCacheWithStarting draws the cache of d with its starting
// window on top. Without a cache the render thread waits for the task when
// there is no starting window, or when the policy asks to wait while the
// starting window is still translucent.
func (c *Cache) DrawUIFirstCacheWithStarting(d SurfaceDrawable, cv surface.Canvas, startingWindowID uifirst.NodeID) bool {
	if d == nil {
		uifirst.Logger().Error("subthread: DrawUIFirstCacheWithStarting without drawable")
		return false
	}
	hasCache := c.HasCachedTexture()
	starting := c.env.lookup(startingWindowID)
	if !hasCache && starting == nil {
		uifirst.Logger().Info("subthread: no cache and no starting window", "id", d.ID())
		return c.DrawUIFirstCache(d, cv, false)
	}

	policy := c.env.Policy
	if starting != nil && !hasCache && policy.WaitOnTranslucentStarting {
		if sp := starting.RenderParams(); sp != nil && sp.Alpha < policy.OpaqueAlpha {
			ok := c.DrawUIFirstCache(d, cv, false)
			starting.Draw(cv)
			return ok
		}
	}

	params := d.RenderParams()
	if params == nil {
		uifirst.Logger().Error("subthread: DrawUIFirstCacheWithStarting without params", "id", d.ID())
		return false
	}
	ok := true
	if hasCache {
		ok = c.DrawCacheSurface(d, cv, params.CacheWidth, params.CacheHeight, uifirst.MainThreadIndex, true)
	}
	if starting != nil {
		starting.Draw(cv)
	}
	return ok
}

// DealWithUIFirstCache composites d from a cache on the render thread.
//
// The window cache is preferred when it holds a usable image. Otherwise
// the sub-thread cache is used unless the node takes no part in caching,
// has nothing to show, or a snapshot would have to wait for a worker. Once
// compositing starts it reports true even if the cache image could not be
// drawn; d is then flagged with DrawSkipUIFirstCacheFail.
func (c *Cache) DealWithUIFirstCache(d SurfaceDrawable, cv surface.Canvas, sp *uifirst.SurfaceParams, rp *uifirst.RenderThreadParams) bool {
	if d == nil || cv == nil || sp == nil || rp == nil {
		uifirst.Logger().Error("subthread: DealWithUIFirstCache with nil argument", "id", c.nodeID)
		return false
	}
	if c.windowCache.DealWithCachedWindow(d, c, cv, sp, rp) {
		return true
	}

	enableType := sp.EnableType
	// WAITING may turn into DOING on the worker at any time.
	state := c.GetCacheSurfaceProcessedStatus()
	snapshot := rp.Capture.IsSnapshot
	if !snapshot && !state.InFlight() &&
		(enableType == uifirst.CacheTypeNone || (!c.HasCachedTexture() && !c.IsCacheValid())) {
		return false
	}
	if snapshot && !c.HasCachedTexture() {
		return false
	}
	if snapshot {
		info := c.CompletedInfo()
		uifirst.Logger().Info("subthread: snapshot from cache", "name", d.Name(),
			"surfaces", info.ProcessedSurfaceCount, "nodes", info.ProcessedNodeCount, "alpha", info.Alpha)
	}

	bounds := sp.Bounds
	save := cv.Save()
	defer cv.RestoreToCount(save)

	// Capture passes have applied alpha and matrix already.
	if !snapshot && !rp.Capture.IsMirror {
		cv.MultiplyAlpha(sp.Alpha)
		cv.ConcatMatrix(sp.Matrix)
	}
	if sp.GlobalPositionEnabled && sp.StartingWindowID == uifirst.InvalidNodeID {
		windowcache.ApplyScreenOffset(cv, sp)
	}

	if sp.IsLeashWindow {
		d.DrawLeashWindowBackground(cv, bounds, rp.StencilCullingEnabled, sp.StencilVal)
	} else {
		d.DrawBackground(cv, bounds)
	}
	if rp.StencilCullingEnabled {
		cv.SetStencilVal(sp.StencilVal)
	}
	var ok bool
	if sp.StartingWindowID != uifirst.InvalidNodeID {
		ok = c.DrawUIFirstCacheWithStarting(d, cv, sp.StartingWindowID)
	} else {
		ok = c.DrawUIFirstCache(d, cv, false)
	}
	cv.SetStencilVal(uifirst.InvalidStencilVal)
	if !ok {
		d.SetDrawSkipType(uifirst.DrawSkipUIFirstCacheFail)
		uifirst.Logger().Info("subthread: draw cache failed", "id", d.ID(), "name", d.Name())
	}

	d.DrawForeground(cv, bounds)
	d.DrawWatermark(cv, sp)
	if rp.UIFirstDebugEnabled || c.env.Policy.DebugEnabled {
		DrawUIFirstDfx(cv, enableType, sp, ok)
	}
	return true
}

// DrawUIFirstDfx tints the cache area: blue for cards, teal for other
// successful draws, red for failures.
func DrawUIFirstDfx(cv surface.Canvas, enableType uifirst.MultiThreadCacheType, sp *uifirst.SurfaceParams, success bool) {
	col := dfxFailColor
	if success {
		col = dfxSuccessColor
		if enableType == uifirst.CacheTypeArkTSCard {
			col = dfxCardColor
		}
	}
	cv.DrawRect(uifirst.NewRectF(0, 0, sp.CacheWidth, sp.CacheHeight), col)
}

// DrawBehindWindowBeforeCache replays the completed frame's behind-window
// effect on c at offset (px, py). It samples what c already holds under
// the effect rectangle.
func (c *Cache) DrawBehindWindowBeforeCache(cv surface.Canvas, px, py float64) {
	b, _ := c.pool.Completed()
	data := b.BehindWindow
	if data == nil {
		return
	}
	if data.Filter == nil || data.Rect.IsEmpty() {
		uifirst.Logger().Error("subthread: behind-window data invalid", "id", c.nodeID)
		return
	}
	s := cv.Surface()
	if s == nil {
		uifirst.Logger().Error("subthread: behind-window draw without surface", "id", c.nodeID)
		return
	}

	save := cv.Save()
	defer cv.RestoreToCount(save)
	cv.Translate(px, py)
	abs := cv.TotalMatrix().MapRect(data.Rect)
	imageRect := image.Rect(
		int(math.Ceil(abs.Left)), int(math.Ceil(abs.Top)),
		int(math.Ceil(abs.Right)), int(math.Ceil(abs.Bottom)),
	).Intersect(image.Rect(0, 0, s.Width(), s.Height()))
	if imageRect.Empty() {
		return
	}
	under := s.Snapshot(&imageRect)
	if under == nil {
		uifirst.Logger().Error("subthread: behind-window snapshot failed", "id", c.nodeID)
		return
	}
	defer under.Release()

	cv.SetMatrix(uifirst.Identity())
	data.Filter.Apply(cv, under, uifirst.RectF{
		Left: float64(imageRect.Min.X), Top: float64(imageRect.Min.Y),
		Right: float64(imageRect.Max.X), Bottom: float64(imageRect.Max.Y),
	})
	uifirst.Logger().Debug("subthread: behind-window drawn", "id", c.nodeID, "rect", imageRect)
}

// SubDraw renders d into cv, the canvas of the producing surface, on a
// worker.
//
// When the merged damage of the window is known only that region is
// repainted, on top of the frame the producing surface already holds. An
// empty damage region clears the surface without replaying anything.
// Otherwise the whole window is cleared and replayed.
func (c *Cache) SubDraw(d SurfaceDrawable, cv surface.Canvas) {
	if d == nil {
		uifirst.Logger().Error("subthread: SubDraw without drawable", "id", c.nodeID)
		return
	}
	if cv == nil {
		uifirst.Logger().Error("subthread: SubDraw without canvas", "id", c.nodeID)
		return
	}
	c.mu.Lock()
	c.drawHandle = c.pool.ProducingHandle()
	c.mu.Unlock()

	params := d.UifirstRenderParams()
	var bounds uifirst.RectF
	if params != nil {
		bounds = params.Bounds
	}

	merged, partial := c.MergeUifirstAllSurfaceDirtyRegion(d)
	if partial && !c.pool.ProducingDrawn() {
		// Fresh surface: nothing to build on.
		partial = false
	}
	c.UpdateAllSurfaceUifirstDirtyEnableState(d, partial)

	save := cv.Save()
	replay := true
	switch {
	case !partial:
		cv.Clear(color.Transparent)
	case merged.IsEmpty():
		cv.Clear(color.Transparent)
		replay = false
	default:
		cv.ClipRegion(merged)
		cv.Clear(color.Transparent)
	}
	uifirst.Logger().Debug("subthread: sub draw",
		"id", d.ID(), "name", d.Name(), "merged", merged.Bounds(), "partial", partial)

	var stats DrawStats
	if replay {
		stats = d.DrawUifirstContentChildren(cv, bounds)
	}
	cv.RestoreToCount(save)

	c.processedSurfaces.Store(int32(stats.Surfaces))
	if replay && (stats.Surfaces <= 0 || stats.Nodes <= 0) {
		uifirst.Logger().Info("subthread: sub draw processed nothing",
			"id", d.ID(), "name", d.Name(), "surfaces", stats.Surfaces, "nodes", stats.Nodes)
	}
	c.UpdateCacheSurfaceInfo(params, stats)

	if c.env.Policy.DebugEnabled && partial {
		drawDirtyRegionDfx(cv, merged.Bounds())
	}

	c.UpdateDirtyRecordCompletedState(false)
	if partial {
		c.dirty.ResetHistoryAge()
		if params != nil {
			for _, sub := range c.env.drawables(params.SubSurfaceIDs) {
				sub.SubThreadCache().SyncUifirstDirtyManager().ResetHistoryAge()
			}
		}
	}
}

func drawDirtyRegionDfx(cv surface.Canvas, r uifirst.RectI) {
	cv.DrawRect(r.ToRectF(), dfxDirtyColor)
	cv.DrawText(fmt.Sprintf("pos:[%s]", r), float64(r.Left+6), float64(r.Top+30), color.Black)
}
