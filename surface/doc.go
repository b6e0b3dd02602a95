// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package surface provides the capability layer the cache draws through:
// surfaces, canvases, images and backend textures.
//
// # Surfaces and canvases
//
// A [Surface] is a render target of a fixed size and [ColorType]. Its
// [Canvas] accepts paint commands (clear, image draws, matrix, clip,
// stencil). [ImageSurface] keeps pixels in CPU memory; the halgpu
// sub-package provides GPU-backed surfaces that share the same canvas.
//
// # Images and textures
//
// Snapshot copies pixels out of a surface. [BuildFromTexture] wraps a
// [BackendTexture] without copying and holds a reference on the surface's
// [Releaser], so the native image outlives every image built from it.
// [NewSharedTextureImage] rewraps an image for another thread's context.
//
// # Backends
//
// A [Registry] maps backend names to [AllocatorFactory] functions. Each
// worker thread asks the registry for its own [Allocator].
//
//	reg := surface.NewRegistry()
//	reg.Register("raster", 10, surface.RasterFactory, nil)
//	alloc, _ := reg.NewAllocator(0)
//	s, _ := alloc.MakeRenderTarget(surface.ImageInfo{Width: 200, Height: 100}, "cache")
package surface
