// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package drawable

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/dirty"
	"github.com/gogpu/uifirst/subthread"
	"github.com/gogpu/uifirst/surface"
)

// Surface is the drawable of a surface node.
//
// The render thread owns the params returned by RenderParams and the paint
// list set with SetPaint. SyncUifirstParams copies both into the sub-thread
// snapshot right before a task is posted; workers only read that snapshot.
type Surface struct {
	id       uifirst.NodeID
	nodeType NodeType
	reg      *Registry

	params *uifirst.SurfaceParams
	paint  Paint
	dm     *dirty.Manager
	cache  *subthread.Cache

	mu            sync.RWMutex // guards the sub-thread snapshot
	uifirstParams *uifirst.SurfaceParams
	uifirstPaint  Paint

	skipType     atomic.Uint32
	relatedImage atomic.Pointer[relatedCache]
}

type relatedCache struct{ img surface.Image }

func newSurface(reg *Registry, t NodeType, params uifirst.SurfaceParams, p Paint) *Surface {
	s := &Surface{
		id:       params.ID,
		nodeType: t,
		reg:      reg,
		params:   &params,
		paint:    p,
		dm:       dirty.NewManager(),
		cache:    subthread.NewCache(params.ID, reg.env),
	}
	s.SyncUifirstParams()
	return s
}

func (s *Surface) ID() uifirst.NodeID { return s.id }
func (s *Surface) Name() string       { return s.params.Name }
func (s *Surface) Type() NodeType     { return s.nodeType }

// RenderParams returns the render thread's params. Only the render thread
// may read or change them.
func (s *Surface) RenderParams() *uifirst.SurfaceParams { return s.params }

// UifirstRenderParams returns the snapshot taken by the last
// SyncUifirstParams.
func (s *Surface) UifirstRenderParams() *uifirst.SurfaceParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uifirstParams
}

// SyncUifirstParams snapshots the render params and paint list for the
// next worker task.
func (s *Surface) SyncUifirstParams() {
	p := *s.params
	p.SubSurfaceIDs = slices.Clone(p.SubSurfaceIDs)
	s.mu.Lock()
	s.uifirstParams = &p
	s.uifirstPaint = s.paint
	s.mu.Unlock()
}

// SetPaint replaces the render thread's paint list. Workers see it after
// the next SyncUifirstParams.
func (s *Surface) SetPaint(p Paint) { s.paint = p }

// Paint returns the render thread's paint list.
func (s *Surface) Paint() Paint { return s.paint }

func (s *Surface) SubThreadCache() *subthread.Cache { return s.cache }
func (s *Surface) DirtyManager() *dirty.Manager     { return s.dm }

// MarkDirty records damage in screen space for the current frame.
func (s *Surface) MarkDirty(r uifirst.RectI) { s.dm.MergeDirtyRect(r) }

func (s *Surface) SetDrawSkipType(t uifirst.DrawSkipType) { s.skipType.Store(uint32(t)) }

// DrawSkipType reports why the compositor last dropped this surface.
func (s *Surface) DrawSkipType() uifirst.DrawSkipType {
	return uifirst.DrawSkipType(s.skipType.Load())
}

// GravityMatrix places a w x h cache image in the node's bounds.
func (s *Surface) GravityMatrix(w, h float64) uifirst.Matrix {
	m, _ := uifirst.GravityMatrix(s.params.Gravity, s.params.Bounds, w, h)
	return m
}

// NeedCacheRelatedSourceNode reports whether window cache images belong to
// the related source node.
func (s *Surface) NeedCacheRelatedSourceNode() bool {
	return s.params.RelatedSourceID != uifirst.InvalidNodeID
}

// SetRelatedSourceNodeCache hands a window cache image to the related
// source node, releasing the image it held before.
func (s *Surface) SetRelatedSourceNodeCache(img surface.Image) {
	target := s
	if src := s.reg.Get(s.params.RelatedSourceID); src != nil {
		target = src
	}
	old := target.relatedImage.Swap(&relatedCache{img: img})
	if old != nil && old.img != nil && old.img != img {
		old.img.Release()
	}
}

// RelatedSourceNodeCache returns the image another node cached on behalf
// of this one.
func (s *Surface) RelatedSourceNodeCache() surface.Image {
	if rc := s.relatedImage.Load(); rc != nil {
		return rc.img
	}
	return nil
}

func (s *Surface) DrawBackground(c surface.Canvas, bounds uifirst.RectF) {
	paint(s.paint.Shadow, c, bounds)
	paint(s.paint.Background, c, bounds)
}

// DrawLeashWindowBackground draws the shadow and background of a leash
// window. With stencil culling the shadow is tagged with stencilVal.
func (s *Surface) DrawLeashWindowBackground(c surface.Canvas, bounds uifirst.RectF, stencilCulling bool, stencilVal int64) {
	if !stencilCulling {
		s.DrawBackground(c, bounds)
		return
	}
	c.SetStencilVal(stencilVal)
	paint(s.paint.Shadow, c, bounds)
	c.SetStencilVal(uifirst.InvalidStencilVal)
	paint(s.paint.Background, c, bounds)
}

func (s *Surface) DrawContent(c surface.Canvas, bounds uifirst.RectF) {
	s.recordBehindWindow(c, s.paint.Behind, bounds)
	paint(s.paint.Content, c, bounds)
}

// DrawChildren draws the sub-surfaces with their render params.
func (s *Surface) DrawChildren(c surface.Canvas, _ uifirst.RectF) {
	for _, sub := range s.reg.surfaces(s.params.SubSurfaceIDs) {
		sub.drawAsChild(c, sub.params, sub.paint)
	}
}

func (s *Surface) DrawForeground(c surface.Canvas, bounds uifirst.RectF) {
	paint(s.paint.Foreground, c, bounds)
}

func (s *Surface) DrawWatermark(c surface.Canvas, params *uifirst.SurfaceParams) {
	if params == nil {
		return
	}
	paint(s.paint.Watermark, c, params.Bounds)
}

// Draw renders the whole node on the render thread without any cache.
func (s *Surface) Draw(c surface.Canvas) {
	p := s.params
	save := c.Save()
	defer c.RestoreToCount(save)
	c.MultiplyAlpha(p.Alpha)
	c.ConcatMatrix(p.Matrix)
	s.DrawBackground(c, p.Bounds)
	s.DrawContent(c, p.Bounds)
	s.DrawChildren(c, p.Bounds)
	s.DrawForeground(c, p.Bounds)
}

// DrawUifirstContentChildren replays the synced snapshot of the window and
// its sub-surfaces into a worker canvas.
func (s *Surface) DrawUifirstContentChildren(c surface.Canvas, bounds uifirst.RectF) subthread.DrawStats {
	s.mu.RLock()
	params, p := s.uifirstParams, s.uifirstPaint
	s.mu.RUnlock()

	stats := subthread.DrawStats{Surfaces: 1}
	s.recordBehindWindow(c, p.Behind, bounds)
	stats.Nodes += paint(p.Content, c, bounds)
	if params == nil {
		return stats
	}
	for _, sub := range s.reg.surfaces(params.SubSurfaceIDs) {
		sub.mu.RLock()
		sp, spaint := sub.uifirstParams, sub.uifirstPaint
		sub.mu.RUnlock()
		if sp == nil {
			continue
		}
		stats.Surfaces++
		stats.Nodes += sub.drawAsChild(c, sp, spaint)
	}
	return stats
}

// drawAsChild draws a sub-surface inside its parent's space and returns the
// number of painters run.
func (s *Surface) drawAsChild(c surface.Canvas, params *uifirst.SurfaceParams, p Paint) int {
	save := c.Save()
	defer c.RestoreToCount(save)
	c.MultiplyAlpha(params.Alpha)
	c.ConcatMatrix(params.Matrix)
	b := params.Bounds
	return paint(p.Shadow, c, b) + paint(p.Background, c, b) +
		paint(p.Content, c, b) + paint(p.Foreground, c, b)
}

// recordBehindWindow stores the behind-window effect on offscreen passes
// so it can be replayed under the cache image.
func (s *Surface) recordBehindWindow(c surface.Canvas, f surface.Filter, bounds uifirst.RectF) {
	if f == nil {
		return
	}
	cfg := c.Config()
	if !cfg.IsDrawingCache && !cfg.IsParallel {
		return
	}
	c.SetCacheBehindWindowData(&surface.BehindWindowData{Filter: f, Rect: bounds})
}

var (
	_ subthread.SurfaceDrawable = (*Surface)(nil)
	_ Painter                   = PainterFunc(nil)
)
