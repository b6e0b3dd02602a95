// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package halgpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/surface"
)

// Common errors returned by Context operations.
var (
	// ErrNilDevice is returned when a nil device or queue is supplied.
	ErrNilDevice = errors.New("halgpu: nil device")

	// ErrNoHALProvider is returned when a device provider does not expose
	// HAL types.
	ErrNoHALProvider = errors.New("halgpu: provider does not expose HAL types")

	// ErrUnsupportedAPI is returned for APIs other than GL and Vulkan.
	ErrUnsupportedAPI = errors.New("halgpu: unsupported api")

	// ErrContextClosed is returned after Close.
	ErrContextClosed = errors.New("halgpu: context is closed")

	// ErrTextureCreationFailed wraps texture allocation failures.
	ErrTextureCreationFailed = errors.New("halgpu: texture creation failed")
)

// Context creates cache surfaces on one device. The device is shared
// read-only across workers for resource creation.
type Context struct {
	api    surface.GPUAPI
	device hal.Device
	queue  hal.Queue

	mu        sync.Mutex
	composite hal.ShaderModule
	closed    bool

	live atomic.Int64
}

// NewContext wraps device and queue for the given API.
func NewContext(device hal.Device, queue hal.Queue, api surface.GPUAPI) (*Context, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	if api != surface.APIGL && api != surface.APIVulkan {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedAPI, api)
	}
	return &Context{api: api, device: device, queue: queue}, nil
}

// NewContextFromProvider extracts the HAL device and queue from a host
// device provider. The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func NewContextFromProvider(provider gpucontext.DeviceProvider, api surface.GPUAPI) (*Context, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALProvider)
	}
	return NewContext(device, queue, api)
}

// API returns the backend flavor.
func (c *Context) API() surface.GPUAPI { return c.api }

// LiveTextures returns the number of textures not yet destroyed.
func (c *Context) LiveTextures() int { return int(c.live.Load()) }

// MakeRenderTarget allocates a texture-backed surface. GL targets are always
// 8-bit; the color space of the request is kept.
func (c *Context) MakeRenderTarget(info surface.ImageInfo, label string) (surface.Surface, error) {
	if info.IsEmpty() {
		return nil, fmt.Errorf("%w: width=%d, height=%d", surface.ErrInvalidDimensions, info.Width, info.Height)
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrContextClosed
	}

	if c.api == surface.APIGL {
		info.ColorType = surface.ColorTypeRGBA8888
	}
	format := info.ColorType.TextureFormat()

	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label + "_cache",
		Size:          hal.Extent3D{Width: uint32(info.Width), Height: uint32(info.Height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage: gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment |
			gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTextureCreationFailed, err)
	}
	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_cache_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		c.device.DestroyTexture(tex)
		return nil, fmt.Errorf("%w: view: %w", ErrTextureCreationFailed, err)
	}
	c.live.Add(1)

	s := newSurface(c, info, format, tex, view)
	uifirst.Logger().Debug("halgpu: render target created",
		"api", c.api, "label", label, "width", info.Width, "height", info.Height, "format", info.ColorType)
	return s, nil
}

// destroyTexture frees a texture and its view. Called by the releaser only.
func (c *Context) destroyTexture(tex hal.Texture, view hal.TextureView) {
	if view != nil {
		c.device.DestroyTextureView(view)
	}
	if tex != nil {
		c.device.DestroyTexture(tex)
	}
	c.live.Add(-1)
}

// Close destroys the composite shader. Surfaces still alive keep working
// until released.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.composite != nil {
		c.device.DestroyShaderModule(c.composite)
		c.composite = nil
	}
}
