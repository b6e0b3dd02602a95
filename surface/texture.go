// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"image"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// BackendTexture is a handle to the pixels of a surface. GPU textures carry
// the HAL texture and view; every texture also carries the CPU mirror that
// was last uploaded, which raster compositing reads.
type BackendTexture struct {
	API     GPUAPI
	Width   int
	Height  int
	Format  gputypes.TextureFormat
	Texture hal.Texture
	View    hal.TextureView

	pixels *image.RGBA
}

// NewRasterBackendTexture wraps CPU pixels.
func NewRasterBackendTexture(pix *image.RGBA) BackendTexture {
	if pix == nil {
		return BackendTexture{}
	}
	b := pix.Bounds()
	return BackendTexture{
		API:    APIRaster,
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: gputypes.TextureFormatRGBA8Unorm,
		pixels: pix,
	}
}

// NewGPUBackendTexture wraps a HAL texture and its CPU mirror.
func NewGPUBackendTexture(api GPUAPI, tex hal.Texture, view hal.TextureView, format gputypes.TextureFormat, mirror *image.RGBA) BackendTexture {
	t := BackendTexture{
		API:     api,
		Format:  format,
		Texture: tex,
		View:    view,
		pixels:  mirror,
	}
	if mirror != nil {
		t.Width, t.Height = mirror.Bounds().Dx(), mirror.Bounds().Dy()
	}
	return t
}

// IsValid reports whether the texture refers to live pixels.
func (t BackendTexture) IsValid() bool {
	if t.Width <= 0 || t.Height <= 0 {
		return false
	}
	if t.API == APIRaster {
		return t.pixels != nil
	}
	return t.Texture != nil
}

// Pixels returns the CPU mirror of the texture.
func (t BackendTexture) Pixels() *image.RGBA { return t.pixels }

// rasterImage is an image over CPU pixels.
type rasterImage struct {
	pix  *image.RGBA
	info ImageInfo
}

// NewRasterImage wraps pix without copying.
func NewRasterImage(pix *image.RGBA, info ImageInfo) Image {
	b := pix.Bounds()
	info.Width, info.Height = b.Dx(), b.Dy()
	return &rasterImage{pix: pix, info: info}
}

func (i *rasterImage) Width() int            { return i.info.Width }
func (i *rasterImage) Height() int           { return i.info.Height }
func (i *rasterImage) ImageInfo() ImageInfo  { return i.info }
func (i *rasterImage) IsTextureBacked() bool { return false }
func (i *rasterImage) RGBA() *image.RGBA     { return i.pix }
func (i *rasterImage) Release()              {}

// textureImage wraps a backend texture without copying.
type textureImage struct {
	tex      BackendTexture
	info     ImageInfo
	releaser *Releaser
	released atomic.Bool
}

// BuildFromTexture wraps tex as an image described by info. When releaser is
// non-nil the image holds a reference on it until Release. It returns nil if
// the texture is invalid or the releaser already ran.
func BuildFromTexture(tex BackendTexture, info ImageInfo, releaser *Releaser) Image {
	if !tex.IsValid() {
		return nil
	}
	if releaser != nil && releaser.Ref() == nil {
		return nil
	}
	info.Width, info.Height = tex.Width, tex.Height
	return &textureImage{tex: tex, info: info, releaser: releaser}
}

func (i *textureImage) Width() int            { return i.info.Width }
func (i *textureImage) Height() int           { return i.info.Height }
func (i *textureImage) ImageInfo() ImageInfo  { return i.info }
func (i *textureImage) IsTextureBacked() bool { return i.tex.API != APIRaster }
func (i *textureImage) RGBA() *image.RGBA     { return i.tex.pixels }

// Texture returns the wrapped backend texture.
func (i *textureImage) Texture() BackendTexture { return i.tex }

func (i *textureImage) Release() {
	if i.released.CompareAndSwap(false, true) {
		i.releaser.Unref()
	}
}

// sharedImage is an image imported into another context. The shared context
// keeps the source image alive until every importer has released it.
type sharedImage struct {
	Image
	ctx      *Releaser
	released atomic.Bool
}

// NewSharedTextureImage rewraps img for use from a different thread's
// context. No pixels are copied; img is released when the returned image
// is.
func NewSharedTextureImage(img Image) Image {
	if img == nil {
		return nil
	}
	return &sharedImage{Image: img, ctx: NewReleaser(img.Release)}
}

func (s *sharedImage) Release() {
	if s.released.CompareAndSwap(false, true) {
		s.ctx.Unref()
	}
}
