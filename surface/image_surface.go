// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"errors"
	"fmt"
	"image"
	"sync/atomic"

	xdraw "golang.org/x/image/draw"
)

// Errors returned by surface allocation.
var (
	// ErrInvalidDimensions is returned when width or height is not positive.
	ErrInvalidDimensions = errors.New("surface: invalid dimensions")

	// ErrSurfaceClosed is returned when a closed surface is used.
	ErrSurfaceClosed = errors.New("surface: surface is closed")
)

// ImageSurface is a CPU surface backed by an *image.RGBA.
//
// Half-float surfaces keep 8-bit pixels in memory and only record the
// requested color type, since no raster path composites in linear light.
//
// Example:
//
//	s, _ := surface.NewImageSurface(surface.ImageInfo{Width: 200, Height: 100})
//	defer s.Close()
//	s.Canvas().Clear(color.Transparent)
//	img := s.Snapshot(nil)
type ImageSurface struct {
	info   ImageInfo
	img    *image.RGBA
	canvas *RasterCanvas
	closed atomic.Bool
}

// NewImageSurface creates a CPU surface described by info.
func NewImageSurface(info ImageInfo) (*ImageSurface, error) {
	if info.IsEmpty() {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, info.Width, info.Height)
	}
	s := &ImageSurface{
		info: info,
		img:  image.NewRGBA(image.Rect(0, 0, info.Width, info.Height)),
	}
	s.canvas = NewRasterCanvas(s.img)
	s.canvas.surface = s
	return s, nil
}

func (s *ImageSurface) Width() int           { return s.info.Width }
func (s *ImageSurface) Height() int          { return s.info.Height }
func (s *ImageSurface) ImageInfo() ImageInfo { return s.info }
func (s *ImageSurface) Canvas() Canvas       { return s.canvas }
func (s *ImageSurface) Releaser() *Releaser  { return nil }
func (s *ImageSurface) Flush() error         { return nil }

// Image returns the backing pixels.
func (s *ImageSurface) Image() *image.RGBA { return s.img }

// BackendTexture returns a raster texture over the surface pixels.
func (s *ImageSurface) BackendTexture() BackendTexture {
	if s.closed.Load() {
		return BackendTexture{}
	}
	return NewRasterBackendTexture(s.img)
}

// Snapshot copies the pixels, or the part inside sub, into a new image.
func (s *ImageSurface) Snapshot(sub *image.Rectangle) Image {
	return snapshotRGBA(s.img, sub, s.info)
}

// MakeSurface creates another CPU surface with the same format.
func (s *ImageSurface) MakeSurface(width, height int) (Surface, error) {
	info := s.info
	info.Width, info.Height = width, height
	ns, err := NewImageSurface(info)
	if err != nil {
		return nil, err
	}
	ns.canvas.api = s.canvas.api
	return ns, nil
}

// Close marks the surface closed. Close is idempotent.
func (s *ImageSurface) Close() error {
	s.closed.Store(true)
	return nil
}

func snapshotRGBA(src *image.RGBA, sub *image.Rectangle, info ImageInfo) Image {
	out := CopyRGBA(src, sub)
	if out == nil {
		return nil
	}
	return NewRasterImage(out, info)
}

// CopyRGBA copies src, or its part inside sub, into a new image whose
// bounds start at the origin. It returns nil for an empty area.
func CopyRGBA(src *image.RGBA, sub *image.Rectangle) *image.RGBA {
	r := src.Bounds()
	if sub != nil {
		r = sub.Intersect(r)
	}
	if r.Empty() {
		return nil
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.Draw(out, out.Bounds(), src, r.Min, xdraw.Src)
	return out
}

// RasterAllocator allocates CPU surfaces.
type RasterAllocator struct{}

// API returns APIRaster.
func (RasterAllocator) API() GPUAPI { return APIRaster }

// MakeRenderTarget allocates an ImageSurface.
func (RasterAllocator) MakeRenderTarget(info ImageInfo, _ string) (Surface, error) {
	return NewImageSurface(info)
}
