// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/uifirst"
)

// ColorType is the pixel layout of a surface or image.
type ColorType uint8

const (
	// ColorTypeRGBA8888 stores 8-bit unsigned channels.
	ColorTypeRGBA8888 ColorType = iota

	// ColorTypeRGBAF16 stores 16-bit half-float channels.
	ColorTypeRGBAF16
)

func (t ColorType) String() string {
	if t == ColorTypeRGBAF16 {
		return "RGBA_F16"
	}
	return "RGBA_8888"
}

// BytesPerPixel returns the storage size of one pixel.
func (t ColorType) BytesPerPixel() int {
	if t == ColorTypeRGBAF16 {
		return 8
	}
	return 4
}

// TextureFormat maps the color type to the GPU texture format.
func (t ColorType) TextureFormat() gputypes.TextureFormat {
	if t == ColorTypeRGBAF16 {
		return gputypes.TextureFormatRGBA16Float
	}
	return gputypes.TextureFormatRGBA8Unorm
}

// ColorSpace is the color space attached to pixel data.
type ColorSpace uint8

const (
	ColorSpaceSRGB ColorSpace = iota
	ColorSpaceDisplayP3
	ColorSpaceBT2020
)

func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceDisplayP3:
		return "DisplayP3"
	case ColorSpaceBT2020:
		return "BT2020"
	default:
		return "sRGB"
	}
}

// ColorSpaceForGamut returns the color space matching a screen gamut.
func ColorSpaceForGamut(g uifirst.ColorGamut) ColorSpace {
	switch g {
	case uifirst.GamutDisplayP3:
		return ColorSpaceDisplayP3
	case uifirst.GamutBT2020:
		return ColorSpaceBT2020
	default:
		return ColorSpaceSRGB
	}
}

// ResolveCacheFormat picks the pixel layout and color space of a cache
// surface. Half-float buffers always carry sRGB: they hold linear values and
// must not be tagged with a wide-gamut transfer function.
func ResolveCacheFormat(fp16 bool, gamut uifirst.ColorGamut) (ColorType, ColorSpace) {
	if fp16 {
		return ColorTypeRGBAF16, ColorSpaceSRGB
	}
	return ColorTypeRGBA8888, ColorSpaceForGamut(gamut)
}

// ImageInfo describes the pixels of a surface or image.
type ImageInfo struct {
	Width      int
	Height     int
	ColorType  ColorType
	ColorSpace ColorSpace
}

// IsEmpty reports whether the info has no pixels.
func (i ImageInfo) IsEmpty() bool { return i.Width <= 0 || i.Height <= 0 }

// GPUAPI identifies the backend that owns a surface.
type GPUAPI uint8

const (
	// APIRaster is CPU memory with no GPU context.
	APIRaster GPUAPI = iota
	// APIGL is a GL-style backend: 8-bit render targets only.
	APIGL
	// APIVulkan is a Vulkan-style backend with explicit image lifetime.
	APIVulkan
)

func (a GPUAPI) String() string {
	switch a {
	case APIGL:
		return "gl"
	case APIVulkan:
		return "vulkan"
	default:
		return "raster"
	}
}

// Sampling selects the filter used when drawing an image.
type Sampling uint8

const (
	SamplingNearest Sampling = iota
	SamplingLinear
)

// StencilRange limits image drawing to pixels whose stencil value lies in
// [Min, Max).
type StencilRange struct {
	Min, Max uint32
}

// Contains reports whether v lies in the range.
func (r StencilRange) Contains(v uint32) bool { return v >= r.Min && v < r.Max }

// Config is the paint-state configuration carried by a canvas and copied to
// offscreen canvases that render on its behalf.
type Config struct {
	HDROn        bool
	TargetGamut  uifirst.ColorGamut
	ScreenID     uint64
	HighContrast bool

	// IsParallel marks canvases owned by a worker thread.
	IsParallel  bool
	ThreadIndex uint32

	// DisableFilterCache suppresses nested filter caching.
	DisableFilterCache bool
	// IsDrawingCache marks an offscreen pass that produces a cache image.
	IsDrawingCache bool
}

// Filter is a behind-window effect, such as a blur, that samples the
// content under a window.
type Filter interface {
	Apply(c Canvas, under Image, dst uifirst.RectF)
}

// BehindWindowData records the behind-window effect drawn while a cache was
// produced so it can be replayed under the cache image.
type BehindWindowData struct {
	Filter Filter
	Rect   uifirst.RectF
}
