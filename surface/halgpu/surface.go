// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package halgpu

import (
	"encoding/binary"
	"image"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/x448/float16"

	"github.com/gogpu/uifirst/surface"
)

// Surface is a cache surface backed by a HAL texture. Drawing goes to a CPU
// staging image; Flush uploads it.
type Surface struct {
	ctx    *Context
	info   surface.ImageInfo
	format gputypes.TextureFormat

	texture hal.Texture
	view    hal.TextureView

	staging  *image.RGBA
	canvas   *surface.RasterCanvas
	releaser *surface.Releaser
	closed   atomic.Bool
}

func newSurface(ctx *Context, info surface.ImageInfo, format gputypes.TextureFormat, tex hal.Texture, view hal.TextureView) *Surface {
	s := &Surface{
		ctx:     ctx,
		info:    info,
		format:  format,
		texture: tex,
		view:    view,
		staging: image.NewRGBA(image.Rect(0, 0, info.Width, info.Height)),
	}
	s.canvas = surface.NewSurfaceCanvas(s.staging, s, ctx.api, s.Flush)
	s.releaser = surface.NewReleaser(func() { ctx.destroyTexture(tex, view) })
	return s
}

func (s *Surface) Width() int                   { return s.info.Width }
func (s *Surface) Height() int                  { return s.info.Height }
func (s *Surface) ImageInfo() surface.ImageInfo { return s.info }
func (s *Surface) Canvas() surface.Canvas       { return s.canvas }
func (s *Surface) Releaser() *surface.Releaser  { return s.releaser }

// Format returns the texture format.
func (s *Surface) Format() gputypes.TextureFormat { return s.format }

// BackendTexture returns the HAL texture with its staging mirror.
func (s *Surface) BackendTexture() surface.BackendTexture {
	if s.closed.Load() {
		return surface.BackendTexture{}
	}
	return surface.NewGPUBackendTexture(s.ctx.api, s.texture, s.view, s.format, s.staging)
}

// Snapshot returns a texture-backed image over a copy of the staging
// pixels. The image keeps the texture alive until released.
func (s *Surface) Snapshot(sub *image.Rectangle) surface.Image {
	if s.closed.Load() {
		return nil
	}
	pix := surface.CopyRGBA(s.staging, sub)
	if pix == nil {
		return nil
	}
	tex := surface.NewGPUBackendTexture(s.ctx.api, s.texture, s.view, s.format, pix)
	return surface.BuildFromTexture(tex, s.info, s.releaser)
}

// MakeSurface allocates another surface on the same context.
func (s *Surface) MakeSurface(width, height int) (surface.Surface, error) {
	info := s.info
	info.Width, info.Height = width, height
	return s.ctx.MakeRenderTarget(info, "offscreen")
}

// Flush uploads the staging pixels to the texture.
func (s *Surface) Flush() error {
	if s.closed.Load() {
		return surface.ErrSurfaceClosed
	}
	data, bytesPerRow := s.uploadData()
	s.ctx.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: s.texture, MipLevel: 0},
		data,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: bytesPerRow, RowsPerImage: uint32(s.info.Height)},
		&hal.Extent3D{Width: uint32(s.info.Width), Height: uint32(s.info.Height), DepthOrArrayLayers: 1},
	)
	return nil
}

// uploadData returns the staging pixels in the texture's format.
func (s *Surface) uploadData() ([]byte, uint32) {
	if s.format != gputypes.TextureFormatRGBA16Float {
		return s.staging.Pix, uint32(s.staging.Stride)
	}
	out := make([]byte, len(s.staging.Pix)*2)
	for i, v := range s.staging.Pix {
		h := float16.Fromfloat32(float32(v) / 255)
		binary.LittleEndian.PutUint16(out[i*2:], h.Bits())
	}
	return out, uint32(s.info.Width * 8)
}

// Close drops the surface's reference on its texture. Close is idempotent.
func (s *Surface) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.releaser.Unref()
	}
	return nil
}
