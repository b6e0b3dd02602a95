// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package windowcache renders a window subtree into an offscreen surface on
// the calling thread and reuses the image while the content is static.
//
// It serves the render-thread path: captures and single windows that do not
// take part in sub-thread caching. A window that has a sub-thread cache
// always prefers it, and the window cache is dropped as soon as one exists.
package windowcache

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/surface"
)

// Drawable is the part of a surface drawable the window cache needs.
type Drawable interface {
	ID() uifirst.NodeID
	Name() string

	// DrawContent and DrawChildren replay the node's own paint commands and
	// its children's, restricted to bounds.
	DrawContent(c surface.Canvas, bounds uifirst.RectF)
	DrawChildren(c surface.Canvas, bounds uifirst.RectF)

	DrawBackground(c surface.Canvas, bounds uifirst.RectF)
	DrawForeground(c surface.Canvas, bounds uifirst.RectF)
	DrawWatermark(c surface.Canvas, params *uifirst.SurfaceParams)

	// GravityMatrix places a w x h cache image into the node's bounds.
	GravityMatrix(w, h float64) uifirst.Matrix

	// NeedCacheRelatedSourceNode reports whether the image belongs to the
	// related source node instead of this window.
	NeedCacheRelatedSourceNode() bool
	SetRelatedSourceNodeCache(img surface.Image)
}

// Host is the sub-thread cache of the same window.
type Host interface {
	HasCachedTexture() bool
	SetCacheCompletedBehindWindowData(d *surface.BehindWindowData)
	DrawBehindWindowBeforeCache(c surface.Canvas, px, py float64)
}

// Cache holds the last window image. The zero value is an empty cache.
type Cache struct {
	mu    sync.Mutex
	image surface.Image

	// Tolerance is the aspect difference below which the image is scaled
	// by its plain size ratio. Zero means uifirst.DefaultScaleTolerance.
	Tolerance float64
}

// HasCache reports whether an image is stored.
func (w *Cache) HasCache() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.image != nil
}

// ClearCache drops the stored image.
func (w *Cache) ClearCache() {
	w.mu.Lock()
	img := w.image
	w.image = nil
	w.mu.Unlock()
	if img != nil {
		img.Release()
	}
}

func (w *Cache) store(img surface.Image) {
	w.mu.Lock()
	old := w.image
	w.image = img
	w.mu.Unlock()
	if old != nil && old != img {
		old.Release()
	}
}

func (w *Cache) cached() surface.Image {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.image
}

// DrawAndCacheWindowContent renders the window offscreen, keeps the image
// and draws it onto c at the origin. Nothing is drawn if the offscreen pass
// fails.
func (w *Cache) DrawAndCacheWindowContent(d Drawable, host Host, c surface.Canvas, bounds uifirst.RectF, rp *uifirst.RenderThreadParams) {
	img, err := w.CacheWindowContent(d, host, c, bounds, rp)
	if err != nil {
		uifirst.Logger().Error("windowcache: cache window content", "err", err)
		return
	}
	if d.NeedCacheRelatedSourceNode() {
		d.SetRelatedSourceNodeCache(img)
	} else {
		w.store(img)
	}
	// Cache images are 1:1 with their source.
	c.DrawImage(img, 0, 0, surface.SamplingNearest)
}

// CacheWindowContent renders the window into a new offscreen surface made
// from c's surface and returns its snapshot.
func (w *Cache) CacheWindowContent(d Drawable, host Host, c surface.Canvas, bounds uifirst.RectF, rp *uifirst.RenderThreadParams) (surface.Image, error) {
	if d == nil {
		return nil, fmt.Errorf("windowcache: nil drawable")
	}
	main := c.Surface()
	if main == nil {
		return nil, fmt.Errorf("windowcache: canvas of %s has no surface", d.Name())
	}
	width, height := int(bounds.Width()), int(bounds.Height())
	off, err := main.MakeSurface(width, height)
	if err != nil {
		return nil, fmt.Errorf("windowcache: offscreen surface for %s: %w", d.Name(), err)
	}
	defer off.Close()

	oc := off.Canvas()
	cfg := c.Config()
	cfg.DisableFilterCache = true
	cfg.IsDrawingCache = true
	oc.SetConfig(cfg)

	save := oc.Save()
	oc.Clear(color.Transparent)

	// Partial render is disabled while the whole window is captured.
	var opDropped bool
	if rp != nil {
		opDropped = rp.OpDropped
		rp.OpDropped = false
	}
	d.DrawContent(oc, bounds)
	d.DrawChildren(oc, bounds)
	if rp != nil {
		rp.OpDropped = opDropped
	}
	oc.RestoreToCount(save)

	if err := off.Flush(); err != nil {
		return nil, fmt.Errorf("windowcache: flush %s: %w", d.Name(), err)
	}
	img := off.Snapshot(nil)
	if img == nil {
		return nil, fmt.Errorf("windowcache: snapshot of %s failed", d.Name())
	}
	uifirst.Logger().Debug("windowcache: cached window",
		"id", d.ID(), "name", d.Name(), "width", img.Width(), "height", img.Height())

	if host != nil {
		host.SetCacheCompletedBehindWindowData(oc.CacheBehindWindowData())
		host.DrawBehindWindowBeforeCache(c, 0, 0)
	}
	return img, nil
}

// DealWithCachedWindow draws the stored image for this frame if it is still
// usable. It reports false, possibly dropping the image, when the caller
// must take another path.
func (w *Cache) DealWithCachedWindow(d Drawable, host Host, c surface.Canvas, sp *uifirst.SurfaceParams, rp *uifirst.RenderThreadParams) bool {
	if d == nil || sp == nil || rp == nil || (host != nil && host.HasCachedTexture()) || !w.HasCache() {
		w.ClearCache()
		return false
	}
	// A window that left every cache path drops its image. The enable type
	// may still read NONE before the node is prepared a second time, so the
	// need-cache flag keeps the image alive.
	if !sp.IsCrossNode && sp.EnableType == uifirst.CacheTypeNone &&
		sp.ClonedSourceID == uifirst.InvalidNodeID && !sp.NeedCacheSurface {
		w.ClearCache()
		return false
	}
	if sp.IsCrossNode && (rp.IsMirrorScreen || rp.FirstVisitCrossNodeDisplay || rp.HasDisplayHdrOn) {
		return false
	}
	img := w.cached()
	if img == nil || img.Width() == 0 || img.Height() == 0 {
		uifirst.Logger().Error("windowcache: cached image is empty", "id", d.ID())
		return false
	}
	w.DrawCache(d, host, c, sp, &rp.Capture, img)
	if sp.IsCrossNode && rp.UIFirstDebugEnabled {
		drawCrossNodeDfx(c, sp, rp)
	}
	return true
}

// DrawCache composites img for the window described by sp.
func (w *Cache) DrawCache(d Drawable, host Host, c surface.Canvas, sp *uifirst.SurfaceParams, capture *uifirst.CaptureParams, img surface.Image) {
	if d == nil || img == nil {
		uifirst.Logger().Error("windowcache: draw cache with nil drawable or image")
		return
	}
	save := c.Save()
	defer c.RestoreToCount(save)

	// Capture passes have applied alpha and matrix already.
	if capture == nil || (!capture.IsSnapshot && !capture.IsMirror) {
		c.MultiplyAlpha(sp.Alpha)
		c.ConcatMatrix(sp.Matrix)
	}
	if sp.GlobalPositionEnabled {
		ApplyScreenOffset(c, sp)
	}

	bounds := sp.Bounds
	d.DrawBackground(c, bounds)

	gravity := d.GravityMatrix(float64(img.Width()), float64(img.Height()))
	sx, sy, tx, ty := uifirst.CacheScale(float64(img.Width()), float64(img.Height()),
		bounds.Width(), bounds.Height(), gravity, w.tolerance())
	c.Scale(sx, sy)
	if host != nil {
		host.DrawBehindWindowBeforeCache(c, tx, ty)
	}
	c.DrawImage(img, tx, ty, surface.SamplingLinear)

	d.DrawForeground(c, bounds)
	d.DrawWatermark(c, sp)
}

func (w *Cache) tolerance() float64 {
	if w.Tolerance > 0 {
		return w.Tolerance
	}
	return uifirst.DefaultScaleTolerance
}

// ApplyScreenOffset moves a globally positioned window by its screen
// offset, expressed in the window's own space.
func ApplyScreenOffset(c surface.Canvas, sp *uifirst.SurfaceParams) {
	inv, ok := sp.Matrix.Invert()
	if !ok {
		uifirst.Logger().Warn("windowcache: matrix not invertible", "name", sp.Name)
		inv = uifirst.Identity()
	}
	c.ConcatMatrix(inv)
	c.Translate(-sp.OffsetX, -sp.OffsetY)
	c.ConcatMatrix(sp.Matrix)
}

func drawCrossNodeDfx(c surface.Canvas, sp *uifirst.SurfaceParams, rp *uifirst.RenderThreadParams) {
	red := color.RGBA{R: 255, A: 255}
	c.DrawText(fmt.Sprintf("IsCrossNode: %t IsFirstVisitCrossNodeDisplay: %t",
		sp.IsCrossNode, rp.FirstVisitCrossNodeDisplay), 50, 100, red)
	c.DrawText(fmt.Sprintf("IsMirrorScreen: %t NeedCacheSurface: %t",
		rp.IsMirrorScreen, sp.NeedCacheSurface), 50, 150, red)
	c.DrawRect(uifirst.NewRectF(0, 0, sp.CacheWidth, sp.CacheHeight), color.NRGBA{R: 255, G: 128, B: 128, A: 128})
}
