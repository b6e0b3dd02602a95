// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"image"
	"image/color"

	"github.com/gogpu/uifirst"
)

// Surface is a render target with a canvas that draws into it.
//
// A surface is written by one goroutine at a time. Images taken from it with
// Snapshot may be read from any goroutine.
type Surface interface {
	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int

	// ImageInfo returns the pixel layout and color space.
	ImageInfo() ImageInfo

	// Canvas returns the canvas drawing into this surface. The same canvas
	// is returned on every call.
	Canvas() Canvas

	// Snapshot copies the surface contents, or the sub rectangle when sub is
	// non-nil, into an image.
	Snapshot(sub *image.Rectangle) Image

	// BackendTexture returns the texture holding the surface pixels.
	BackendTexture() BackendTexture

	// MakeSurface creates a surface of the same backend and format.
	MakeSurface(width, height int) (Surface, error)

	// Flush submits pending drawing to the backend.
	Flush() error

	// Releaser returns the cleanup helper guarding the native image, or nil
	// when the backend frees the image in Close.
	Releaser() *Releaser

	// Close releases the surface. Close is idempotent.
	Close() error
}

// Canvas is a paint-command canvas.
//
// All coordinates pass through the current matrix. Clip and stencil apply to
// every draw. Save pushes matrix, alpha and clip; Restore pops them.
type Canvas interface {
	Width() int
	Height() int

	// Surface returns the surface the canvas draws into, or nil.
	Surface() Surface

	// API returns the backend of the canvas. APIRaster canvases have no GPU
	// context.
	API() GPUAPI

	// Clear fills the clip area with c, replacing existing pixels.
	Clear(c color.Color)

	// DrawImage draws img with its top-left corner at (x, y).
	DrawImage(img Image, x, y float64, s Sampling)

	// DrawImageWithStencil draws img only where the stencil plane value lies
	// in r.
	DrawImageWithStencil(img Image, x, y float64, s Sampling, r StencilRange)

	// DrawRect fills r with c, blending over existing pixels.
	DrawRect(r uifirst.RectF, c color.Color)

	// DrawText draws a single line of debug text with its baseline at (x, y).
	DrawText(text string, x, y float64, c color.Color)

	Save() int
	Restore()
	SaveCount() int
	RestoreToCount(n int)

	Translate(dx, dy float64)
	Scale(sx, sy float64)
	ConcatMatrix(m uifirst.Matrix)
	SetMatrix(m uifirst.Matrix)
	TotalMatrix() uifirst.Matrix

	// MultiplyAlpha scales the alpha applied to subsequent draws.
	MultiplyAlpha(a float64)
	Alpha() float64

	// ClipRect intersects the clip with r mapped through the matrix.
	ClipRect(r uifirst.RectF)
	// ClipRegion intersects the clip with rg in device space.
	ClipRegion(rg uifirst.Region)
	// DeviceClipBounds returns the clip bounds in device pixels.
	DeviceClipBounds() uifirst.RectI

	StencilVal() int64
	SetStencilVal(v int64)
	MaxStencilVal() int64

	Config() Config
	SetConfig(cfg Config)

	// CacheBehindWindowData returns the behind-window effect recorded during
	// this pass.
	CacheBehindWindowData() *BehindWindowData
	SetCacheBehindWindowData(d *BehindWindowData)

	// Flush submits pending work to the owning surface.
	Flush() error
}

// Image is an immutable picture that can be drawn onto a canvas.
type Image interface {
	Width() int
	Height() int
	ImageInfo() ImageInfo

	// IsTextureBacked reports whether the pixels live in a GPU texture.
	IsTextureBacked() bool

	// RGBA returns the CPU pixels, or nil when they are not reachable.
	RGBA() *image.RGBA

	// Release drops the image's hold on its backing resources. Release is
	// idempotent.
	Release()
}

// Allocator creates render targets for one backend.
type Allocator interface {
	API() GPUAPI
	MakeRenderTarget(info ImageInfo, label string) (Surface, error)
}
