// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package halgpu

import (
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/uifirst/surface"
)

// createNoopDevice creates a noop HAL device for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func newTestContext(t *testing.T, api surface.GPUAPI) *Context {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	ctx, err := NewContext(device, queue, api)
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	t.Cleanup(ctx.Close)
	return ctx
}

func TestNewContextErrors(t *testing.T) {
	if _, err := NewContext(nil, nil, surface.APIVulkan); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewContext(nil) error = %v, want ErrNilDevice", err)
	}
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	if _, err := NewContext(device, queue, surface.APIRaster); !errors.Is(err, ErrUnsupportedAPI) {
		t.Errorf("NewContext(raster) error = %v, want ErrUnsupportedAPI", err)
	}
	if _, err := NewContextFromProvider(nil, surface.APIGL); !errors.Is(err, ErrNoHALProvider) {
		t.Errorf("NewContextFromProvider(nil) error = %v, want ErrNoHALProvider", err)
	}
}

func TestMakeRenderTargetFormats(t *testing.T) {
	tests := []struct {
		api    surface.GPUAPI
		ct     surface.ColorType
		format gputypes.TextureFormat
	}{
		{surface.APIVulkan, surface.ColorTypeRGBA8888, gputypes.TextureFormatRGBA8Unorm},
		{surface.APIVulkan, surface.ColorTypeRGBAF16, gputypes.TextureFormatRGBA16Float},
		{surface.APIGL, surface.ColorTypeRGBAF16, gputypes.TextureFormatRGBA8Unorm},
	}
	for _, tt := range tests {
		t.Run(tt.api.String()+"/"+tt.ct.String(), func(t *testing.T) {
			ctx := newTestContext(t, tt.api)
			s, err := ctx.MakeRenderTarget(surface.ImageInfo{Width: 20, Height: 10, ColorType: tt.ct}, "test")
			if err != nil {
				t.Fatalf("MakeRenderTarget() error = %v", err)
			}
			defer s.Close()

			tex := s.BackendTexture()
			if !tex.IsValid() {
				t.Fatal("BackendTexture() is invalid")
			}
			if tex.Format != tt.format {
				t.Errorf("Format = %v, want %v", tex.Format, tt.format)
			}
			if tex.API != tt.api {
				t.Errorf("API = %v, want %v", tex.API, tt.api)
			}
		})
	}
}

func TestMakeRenderTargetInvalid(t *testing.T) {
	ctx := newTestContext(t, surface.APIVulkan)
	if _, err := ctx.MakeRenderTarget(surface.ImageInfo{}, "empty"); !errors.Is(err, surface.ErrInvalidDimensions) {
		t.Errorf("error = %v, want ErrInvalidDimensions", err)
	}
	ctx.Close()
	if _, err := ctx.MakeRenderTarget(surface.ImageInfo{Width: 1, Height: 1}, "closed"); !errors.Is(err, ErrContextClosed) {
		t.Errorf("error = %v, want ErrContextClosed", err)
	}
}

func TestSurfaceTextureReleasedOnce(t *testing.T) {
	ctx := newTestContext(t, surface.APIVulkan)
	s, err := ctx.MakeRenderTarget(surface.ImageInfo{Width: 8, Height: 8}, "release")
	if err != nil {
		t.Fatalf("MakeRenderTarget() error = %v", err)
	}
	if ctx.LiveTextures() != 1 {
		t.Fatalf("LiveTextures() = %d, want 1", ctx.LiveTextures())
	}

	s.Canvas().Clear(color.RGBA{G: 255, A: 255})
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	img := s.Snapshot(nil)
	if img == nil || !img.IsTextureBacked() {
		t.Fatal("Snapshot() did not return a texture-backed image")
	}

	_ = s.Close()
	_ = s.Close()
	if ctx.LiveTextures() != 1 {
		t.Fatalf("texture destroyed while a snapshot holds it")
	}
	img.Release()
	if ctx.LiveTextures() != 0 {
		t.Errorf("LiveTextures() = %d after last release, want 0", ctx.LiveTextures())
	}
	if err := s.Flush(); !errors.Is(err, surface.ErrSurfaceClosed) {
		t.Errorf("Flush() after Close error = %v, want ErrSurfaceClosed", err)
	}
}

func TestHalfFloatUpload(t *testing.T) {
	ctx := newTestContext(t, surface.APIVulkan)
	s, err := ctx.MakeRenderTarget(surface.ImageInfo{Width: 2, Height: 1, ColorType: surface.ColorTypeRGBAF16}, "f16")
	if err != nil {
		t.Fatalf("MakeRenderTarget() error = %v", err)
	}
	defer s.Close()
	s.Canvas().Clear(color.RGBA{R: 255, A: 255})

	hs := s.(*Surface)
	data, stride := hs.uploadData()
	if stride != 16 {
		t.Errorf("bytes per row = %d, want 16", stride)
	}
	if len(data) != 16 {
		t.Fatalf("len(data) = %d, want 16", len(data))
	}
	// 1.0 in IEEE half precision.
	if data[0] != 0x00 || data[1] != 0x3c {
		t.Errorf("red channel bytes = %#x %#x, want 0x00 0x3c", data[0], data[1])
	}
	if err := s.Flush(); err != nil {
		t.Errorf("Flush() error = %v", err)
	}
}

func TestMakeSurfaceSharesContext(t *testing.T) {
	ctx := newTestContext(t, surface.APIGL)
	s, err := ctx.MakeRenderTarget(surface.ImageInfo{Width: 4, Height: 4, ColorSpace: surface.ColorSpaceDisplayP3}, "main")
	if err != nil {
		t.Fatalf("MakeRenderTarget() error = %v", err)
	}
	defer s.Close()
	off, err := s.MakeSurface(2, 2)
	if err != nil {
		t.Fatalf("MakeSurface() error = %v", err)
	}
	defer off.Close()
	if off.ImageInfo().ColorSpace != surface.ColorSpaceDisplayP3 {
		t.Errorf("offscreen color space = %v, want DisplayP3", off.ImageInfo().ColorSpace)
	}
	if off.Canvas().API() != surface.APIGL {
		t.Errorf("offscreen canvas API = %v, want gl", off.Canvas().API())
	}
}

func TestPrepareCompositeShader(t *testing.T) {
	src := CompositeShaderSource()
	for _, want := range []string{"@vertex", "@fragment", "vs_main", "fs_main", "textureSample"} {
		if !strings.Contains(src, want) {
			t.Errorf("composite shader missing %q", want)
		}
	}

	ctx := newTestContext(t, surface.APIVulkan)
	if err := ctx.PrepareCompositeShader(); err != nil {
		if strings.Contains(err.Error(), "not yet implemented") || strings.Contains(err.Error(), "not supported") {
			t.Skipf("Skipping: naga feature not yet implemented: %v", err)
		}
		t.Fatalf("PrepareCompositeShader() error = %v", err)
	}
	if !ctx.HasCompositeShader() {
		t.Error("HasCompositeShader() = false after prepare")
	}
	if err := ctx.PrepareCompositeShader(); err != nil {
		t.Errorf("second PrepareCompositeShader() error = %v", err)
	}
	ctx.Close()
	if ctx.HasCompositeShader() {
		t.Error("HasCompositeShader() = true after Close")
	}
}
