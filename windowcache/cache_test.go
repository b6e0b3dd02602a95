// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package windowcache

import (
	"image/color"
	"testing"

	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/surface"
)

var red = color.RGBA{R: 255, A: 255}

type fakeDrawable struct {
	contentCalls  int
	childrenCalls int
	foreground    int
	related       bool
	relatedImage  surface.Image
}

func (d *fakeDrawable) ID() uifirst.NodeID { return 7 }
func (d *fakeDrawable) Name() string       { return "window" }

func (d *fakeDrawable) DrawContent(c surface.Canvas, bounds uifirst.RectF) {
	d.contentCalls++
	c.DrawRect(bounds, red)
}

func (d *fakeDrawable) DrawChildren(surface.Canvas, uifirst.RectF)         { d.childrenCalls++ }
func (d *fakeDrawable) DrawBackground(surface.Canvas, uifirst.RectF)       {}
func (d *fakeDrawable) DrawForeground(surface.Canvas, uifirst.RectF)       { d.foreground++ }
func (d *fakeDrawable) DrawWatermark(surface.Canvas, *uifirst.SurfaceParams) {}

func (d *fakeDrawable) GravityMatrix(w, h float64) uifirst.Matrix {
	m, _ := uifirst.GravityMatrix(uifirst.GravityTopLeft, uifirst.NewRectF(0, 0, w, h), w, h)
	return m
}

func (d *fakeDrawable) NeedCacheRelatedSourceNode() bool            { return d.related }
func (d *fakeDrawable) SetRelatedSourceNodeCache(img surface.Image) { d.relatedImage = img }

type fakeHost struct {
	cached      bool
	behind      *surface.BehindWindowData
	behindDrawn int
}

func (h *fakeHost) HasCachedTexture() bool { return h.cached }
func (h *fakeHost) SetCacheCompletedBehindWindowData(d *surface.BehindWindowData) {
	h.behind = d
}
func (h *fakeHost) DrawBehindWindowBeforeCache(surface.Canvas, float64, float64) { h.behindDrawn++ }

func newMain(t *testing.T, w, h int) *surface.ImageSurface {
	t.Helper()
	s, err := surface.NewImageSurface(surface.ImageInfo{Width: w, Height: h})
	if err != nil {
		t.Fatalf("NewImageSurface: %v", err)
	}
	return s
}

func params() *uifirst.SurfaceParams {
	return &uifirst.SurfaceParams{
		ID:               7,
		Name:             "window",
		Bounds:           uifirst.NewRectF(0, 0, 20, 10),
		Matrix:           uifirst.Identity(),
		Alpha:            1,
		NeedCacheSurface: true,
	}
}

func TestDrawAndCacheWindowContent(t *testing.T) {
	main := newMain(t, 40, 40)
	d := &fakeDrawable{}
	host := &fakeHost{}
	rp := &uifirst.RenderThreadParams{OpDropped: true}
	var w Cache

	w.DrawAndCacheWindowContent(d, host, main.Canvas(), uifirst.NewRectF(0, 0, 20, 10), rp)

	if !w.HasCache() {
		t.Fatal("HasCache = false after DrawAndCacheWindowContent")
	}
	if d.contentCalls != 1 || d.childrenCalls != 1 {
		t.Errorf("content/children calls = %d/%d, want 1/1", d.contentCalls, d.childrenCalls)
	}
	if !rp.OpDropped {
		t.Error("OpDropped not restored after offscreen pass")
	}
	if host.behindDrawn != 1 {
		t.Errorf("behind-window draws = %d, want 1", host.behindDrawn)
	}
	if got := main.Image().RGBAAt(5, 5); got != red {
		t.Errorf("main pixel (5,5) = %v, want %v", got, red)
	}
	if got := main.Image().RGBAAt(30, 30); got.A != 0 {
		t.Errorf("main pixel (30,30) = %v, want transparent", got)
	}
}

func TestDrawAndCacheForRelatedSource(t *testing.T) {
	main := newMain(t, 20, 20)
	d := &fakeDrawable{related: true}
	var w Cache
	w.DrawAndCacheWindowContent(d, nil, main.Canvas(), uifirst.NewRectF(0, 0, 10, 10), nil)
	if w.HasCache() {
		t.Error("image stored in the window cache instead of the related source")
	}
	if d.relatedImage == nil {
		t.Error("related source image not set")
	}
}

func TestCacheWindowContentWithoutSurface(t *testing.T) {
	var w Cache
	c := surface.NewRasterCanvas(newMain(t, 4, 4).Image())
	if _, err := w.CacheWindowContent(&fakeDrawable{}, nil, c, uifirst.NewRectF(0, 0, 4, 4), nil); err == nil {
		t.Error("CacheWindowContent on a canvas without surface = nil error")
	}
	if _, err := w.CacheWindowContent(nil, nil, c, uifirst.NewRectF(0, 0, 4, 4), nil); err == nil {
		t.Error("CacheWindowContent(nil drawable) = nil error")
	}
}

func fill(t *testing.T, w *Cache, d *fakeDrawable) {
	t.Helper()
	main := newMain(t, 20, 10)
	w.DrawAndCacheWindowContent(d, nil, main.Canvas(), uifirst.NewRectF(0, 0, 20, 10), nil)
	if !w.HasCache() {
		t.Fatal("cache not filled")
	}
}

func TestDealWithCachedWindow(t *testing.T) {
	rp := &uifirst.RenderThreadParams{}

	t.Run("draws cached image", func(t *testing.T) {
		var w Cache
		d := &fakeDrawable{}
		fill(t, &w, d)
		dst := newMain(t, 20, 10)
		if !w.DealWithCachedWindow(d, &fakeHost{}, dst.Canvas(), params(), rp) {
			t.Fatal("DealWithCachedWindow = false")
		}
		if got := dst.Image().RGBAAt(10, 5); got != red {
			t.Errorf("pixel = %v, want %v", got, red)
		}
		if d.foreground != 1 {
			t.Errorf("foreground draws = %d, want 1", d.foreground)
		}
	})

	t.Run("sub-thread cache wins", func(t *testing.T) {
		var w Cache
		d := &fakeDrawable{}
		fill(t, &w, d)
		if w.DealWithCachedWindow(d, &fakeHost{cached: true}, newMain(t, 20, 10).Canvas(), params(), rp) {
			t.Error("DealWithCachedWindow = true with a sub-thread cache")
		}
		if w.HasCache() {
			t.Error("window cache kept next to a sub-thread cache")
		}
	})

	t.Run("left cache paths", func(t *testing.T) {
		var w Cache
		d := &fakeDrawable{}
		fill(t, &w, d)
		sp := params()
		sp.NeedCacheSurface = false
		if w.DealWithCachedWindow(d, nil, newMain(t, 20, 10).Canvas(), sp, rp) {
			t.Error("DealWithCachedWindow = true for a window outside every cache path")
		}
		if w.HasCache() {
			t.Error("cache kept for a window outside every cache path")
		}
	})

	t.Run("cross node on mirror keeps cache", func(t *testing.T) {
		var w Cache
		d := &fakeDrawable{}
		fill(t, &w, d)
		sp := params()
		sp.IsCrossNode = true
		mirror := &uifirst.RenderThreadParams{IsMirrorScreen: true}
		if w.DealWithCachedWindow(d, nil, newMain(t, 20, 10).Canvas(), sp, mirror) {
			t.Error("DealWithCachedWindow = true for cross node on mirror screen")
		}
		if !w.HasCache() {
			t.Error("cross node cache dropped")
		}
	})

	t.Run("empty cache", func(t *testing.T) {
		var w Cache
		if w.DealWithCachedWindow(&fakeDrawable{}, nil, newMain(t, 4, 4).Canvas(), params(), rp) {
			t.Error("DealWithCachedWindow = true without cache")
		}
	})
}

func TestDrawCacheScalesUniformly(t *testing.T) {
	var w Cache
	d := &fakeDrawable{}
	fill(t, &w, d)

	sp := params()
	sp.Bounds = uifirst.NewRectF(0, 0, 40, 20)
	dst := newMain(t, 40, 20)
	w.DrawCache(d, nil, dst.Canvas(), sp, nil, w.cached())

	if got := dst.Image().RGBAAt(35, 15); got.R < 250 || got.A < 250 {
		t.Errorf("scaled pixel (35,15) = %v, want red", got)
	}
}

func TestClearCache(t *testing.T) {
	var w Cache
	fill(t, &w, &fakeDrawable{})
	w.ClearCache()
	if w.HasCache() {
		t.Error("HasCache = true after ClearCache")
	}
	w.ClearCache()
}
