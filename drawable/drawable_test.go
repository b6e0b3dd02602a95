// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package drawable

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/surface"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

func leashParams(id uifirst.NodeID, w, h float64, subs ...uifirst.NodeID) uifirst.SurfaceParams {
	return uifirst.SurfaceParams{
		ID:            id,
		Name:          "leash",
		Bounds:        uifirst.NewRectF(0, 0, w, h),
		SubSurfaceIDs: subs,
	}
}

func appParams(id uifirst.NodeID, x, y, w, h float64) uifirst.SurfaceParams {
	return uifirst.SurfaceParams{
		ID:     id,
		Name:   "app",
		Bounds: uifirst.NewRectF(0, 0, w, h),
		Matrix: uifirst.Translate(x, y),
	}
}

func mustCreate(t *testing.T, r *Registry, nt NodeType, p uifirst.SurfaceParams, paint Paint) *Surface {
	t.Helper()
	s, err := r.Create(nt, p, paint)
	if err != nil {
		t.Fatalf("Create(%s, %d) error = %v", nt, p.ID, err)
	}
	return s
}

func TestRegistryCreateAppliesNodeType(t *testing.T) {
	r := NewRegistry(nil)
	tests := []struct {
		nt     NodeType
		leash  bool
		enable uifirst.MultiThreadCacheType
	}{
		{NodeLeashWindow, true, uifirst.CacheTypeLeashWindow},
		{NodeAppWindow, false, uifirst.CacheTypeNone},
		{NodeStartingWindow, false, uifirst.CacheTypeNone},
		{NodeCard, false, uifirst.CacheTypeArkTSCard},
	}
	for i, tt := range tests {
		t.Run(tt.nt.String(), func(t *testing.T) {
			s := mustCreate(t, r, tt.nt, leashParams(uifirst.NodeID(i+1), 40, 30), Paint{})
			p := s.RenderParams()
			if p.IsLeashWindow != tt.leash {
				t.Errorf("IsLeashWindow = %v, want %v", p.IsLeashWindow, tt.leash)
			}
			if p.EnableType != tt.enable {
				t.Errorf("EnableType = %v, want %v", p.EnableType, tt.enable)
			}
			if p.CacheWidth != 40 || p.CacheHeight != 30 {
				t.Errorf("cache size = %vx%v, want 40x30", p.CacheWidth, p.CacheHeight)
			}
			if p.StencilVal != uifirst.InvalidStencilVal {
				t.Errorf("StencilVal = %d, want %d", p.StencilVal, uifirst.InvalidStencilVal)
			}
			if s.Type() != tt.nt {
				t.Errorf("Type() = %v, want %v", s.Type(), tt.nt)
			}
			if s.SubThreadCache() == nil || s.DirtyManager() == nil {
				t.Error("drawable has no cache or dirty manager")
			}
		})
	}
	if got := r.Len(); got != len(tests) {
		t.Errorf("Len() = %d, want %d", got, len(tests))
	}
}

func TestRegistryCreateErrors(t *testing.T) {
	r := NewRegistry(nil)
	mustCreate(t, r, NodeLeashWindow, leashParams(1, 10, 10), Paint{})

	if _, err := r.Create(NodeLeashWindow, leashParams(1, 10, 10), Paint{}); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("duplicate Create error = %v, want %v", err, ErrDuplicateNode)
	}
	if _, err := r.Create(NodeLeashWindow, leashParams(0, 10, 10), Paint{}); !errors.Is(err, ErrInvalidNode) {
		t.Errorf("zero id Create error = %v, want %v", err, ErrInvalidNode)
	}
	if _, err := r.Create(NodeType(42), leashParams(2, 10, 10), Paint{}); !errors.Is(err, ErrUnknownNodeType) {
		t.Errorf("unknown type Create error = %v, want %v", err, ErrUnknownNodeType)
	}
}

func TestRegistryCustomFactory(t *testing.T) {
	r := NewRegistry(nil)
	called := false
	r.Register(NodeCard, func(r *Registry, p uifirst.SurfaceParams, paint Paint) *Surface {
		called = true
		p.Name = "custom"
		return newAppWindow(r, p, paint)
	})
	s := mustCreate(t, r, NodeCard, leashParams(5, 10, 10), Paint{})
	if !called || s.Name() != "custom" {
		t.Errorf("custom factory not used: called=%v name=%q", called, s.Name())
	}
}

func TestRegistryLookupAndRemove(t *testing.T) {
	r := NewRegistry(nil)
	mustCreate(t, r, NodeLeashWindow, leashParams(3, 10, 10), Paint{})
	mustCreate(t, r, NodeAppWindow, appParams(1, 0, 0, 5, 5), Paint{})

	if d := r.Env().Lookup(3); d == nil || d.ID() != 3 {
		t.Errorf("env Lookup(3) = %v, want node 3", d)
	}
	if d := r.Lookup(99); d != nil {
		t.Errorf("Lookup(99) = %v, want nil interface", d)
	}
	if got := r.IDs(); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("IDs() = %v, want [1 3]", got)
	}
	if !r.Remove(3) {
		t.Error("Remove(3) = false, want true")
	}
	if r.Remove(3) {
		t.Error("second Remove(3) = true, want false")
	}
	if r.Get(3) != nil {
		t.Error("Get(3) after Remove is not nil")
	}
}

func TestSyncUifirstParamsSnapshot(t *testing.T) {
	r := NewRegistry(nil)
	s := mustCreate(t, r, NodeLeashWindow, leashParams(1, 10, 10, 2), Paint{Content: &SolidPainter{red}})

	s.RenderParams().Alpha = 0.5
	s.RenderParams().SubSurfaceIDs[0] = 7
	s.SetPaint(Paint{Content: &SolidPainter{green}})

	snap := s.UifirstRenderParams()
	if snap.Alpha != 1 {
		t.Errorf("snapshot Alpha = %v, want 1", snap.Alpha)
	}
	if snap.SubSurfaceIDs[0] != 2 {
		t.Errorf("snapshot SubSurfaceIDs = %v, want [2]", snap.SubSurfaceIDs)
	}

	s.SyncUifirstParams()
	if got := s.UifirstRenderParams().Alpha; got != 0.5 {
		t.Errorf("synced Alpha = %v, want 0.5", got)
	}
	if snap.Alpha != 1 {
		t.Error("earlier snapshot changed by a later sync")
	}
}

func TestDrawUifirstContentChildren(t *testing.T) {
	r := NewRegistry(nil)
	leash := mustCreate(t, r, NodeLeashWindow, leashParams(1, 40, 40, 2, 3, 99), Paint{
		Background: &SolidPainter{blue},
		Content:    &SolidPainter{red},
	})
	mustCreate(t, r, NodeAppWindow, appParams(2, 0, 0, 10, 10), Paint{Content: &SolidPainter{green}})
	mustCreate(t, r, NodeAppWindow, appParams(3, 20, 20, 10, 10), Paint{
		Background: &SolidPainter{blue},
		Content:    &RectPainter{Rect: uifirst.NewRectF(2, 2, 4, 4), Color: green},
	})
	leash.SyncUifirstParams()

	dst := image.NewRGBA(image.Rect(0, 0, 40, 40))
	stats := leash.DrawUifirstContentChildren(surface.NewRasterCanvas(dst), leash.UifirstRenderParams().Bounds)

	if stats.Surfaces != 3 {
		t.Errorf("Surfaces = %d, want 3", stats.Surfaces)
	}
	if stats.Nodes != 4 {
		t.Errorf("Nodes = %d, want 4", stats.Nodes)
	}
	checks := []struct {
		x, y int
		want color.RGBA
	}{
		{5, 5, green},   // app 2
		{15, 15, red},   // leash content, no leash background in the cache
		{21, 21, blue},  // app 3 background
		{23, 23, green}, // app 3 content
	}
	for _, c := range checks {
		if got := dst.RGBAAt(c.x, c.y); got != c.want {
			t.Errorf("RGBAAt(%d, %d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestDrawAppliesMatrixAndAlpha(t *testing.T) {
	r := NewRegistry(nil)
	p := appParams(1, 5, 5, 4, 4)
	p.Alpha = 0.5
	s := mustCreate(t, r, NodeAppWindow, p, Paint{Content: &SolidPainter{red}})

	dst := image.NewRGBA(image.Rect(0, 0, 12, 12))
	s.Draw(surface.NewRasterCanvas(dst))

	if got := dst.RGBAAt(1, 1); got != (color.RGBA{}) {
		t.Errorf("RGBAAt(1, 1) = %v, want transparent", got)
	}
	got := dst.RGBAAt(6, 6)
	if got.A < 126 || got.A > 129 || got.R != got.A {
		t.Errorf("RGBAAt(6, 6) = %v, want half-transparent red", got)
	}
}

func TestDrawLeashWindowBackgroundStencil(t *testing.T) {
	r := NewRegistry(nil)
	var shadowStencil, bgStencil int64
	s := mustCreate(t, r, NodeLeashWindow, leashParams(1, 10, 10), Paint{
		Shadow:     PainterFunc(func(c surface.Canvas, _ uifirst.RectF) { shadowStencil = c.StencilVal() }),
		Background: PainterFunc(func(c surface.Canvas, _ uifirst.RectF) { bgStencil = c.StencilVal() }),
	})
	c := surface.NewRasterCanvas(image.NewRGBA(image.Rect(0, 0, 10, 10)))

	s.DrawLeashWindowBackground(c, s.RenderParams().Bounds, true, 4)
	if shadowStencil != 4 || bgStencil != uifirst.InvalidStencilVal {
		t.Errorf("stencil culling: shadow=%d background=%d, want 4 and %d", shadowStencil, bgStencil, uifirst.InvalidStencilVal)
	}
	if c.StencilVal() != uifirst.InvalidStencilVal {
		t.Errorf("StencilVal() after draw = %d, want reset", c.StencilVal())
	}

	s.DrawLeashWindowBackground(c, s.RenderParams().Bounds, false, 4)
	if shadowStencil != uifirst.InvalidStencilVal {
		t.Errorf("without culling shadow stencil = %d, want %d", shadowStencil, uifirst.InvalidStencilVal)
	}
}

type nopFilter struct{}

func (nopFilter) Apply(surface.Canvas, surface.Image, uifirst.RectF) {}

func TestBehindWindowRecordedOnOffscreenPasses(t *testing.T) {
	r := NewRegistry(nil)
	s := mustCreate(t, r, NodeLeashWindow, leashParams(1, 10, 10), Paint{Behind: nopFilter{}})
	bounds := s.RenderParams().Bounds

	main := surface.NewRasterCanvas(image.NewRGBA(image.Rect(0, 0, 10, 10)))
	s.DrawContent(main, bounds)
	if main.CacheBehindWindowData() != nil {
		t.Error("main canvas recorded behind-window data")
	}

	off := surface.NewRasterCanvas(image.NewRGBA(image.Rect(0, 0, 10, 10)))
	off.SetConfig(surface.Config{IsParallel: true})
	s.DrawUifirstContentChildren(off, bounds)
	d := off.CacheBehindWindowData()
	if d == nil || d.Rect != bounds {
		t.Fatalf("CacheBehindWindowData() = %+v, want rect %v", d, bounds)
	}
}

type countedImage struct {
	surface.Image
	released int
}

func (c *countedImage) Release() { c.released++ }

func TestSetRelatedSourceNodeCache(t *testing.T) {
	r := NewRegistry(nil)
	src := mustCreate(t, r, NodeAppWindow, appParams(1, 0, 0, 4, 4), Paint{})
	p := appParams(2, 0, 0, 4, 4)
	p.RelatedSourceID = 1
	s := mustCreate(t, r, NodeAppWindow, p, Paint{})

	if !s.NeedCacheRelatedSourceNode() {
		t.Fatal("NeedCacheRelatedSourceNode() = false, want true")
	}
	first := &countedImage{}
	second := &countedImage{}
	s.SetRelatedSourceNodeCache(first)
	s.SetRelatedSourceNodeCache(second)

	if got := src.RelatedSourceNodeCache(); got != second {
		t.Errorf("RelatedSourceNodeCache() = %v, want second image", got)
	}
	if first.released != 1 {
		t.Errorf("first image released %d times, want 1", first.released)
	}
	r.Remove(1)
	if second.released != 1 {
		t.Errorf("second image released %d times after Remove, want 1", second.released)
	}
}

func TestSkipType(t *testing.T) {
	r := NewRegistry(nil)
	s := mustCreate(t, r, NodeLeashWindow, leashParams(1, 4, 4), Paint{})
	s.SetDrawSkipType(uifirst.DrawSkipUIFirstCacheFail)
	if got := s.DrawSkipType(); got != uifirst.DrawSkipUIFirstCacheFail {
		t.Errorf("DrawSkipType() = %v, want %v", got, uifirst.DrawSkipUIFirstCacheFail)
	}
}
