// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package halgpu provides GPU-backed cache surfaces on top of wgpu HAL
// textures.
//
// A [Context] wraps the device and queue of one worker thread. Surfaces it
// creates draw through a CPU staging canvas and upload to their texture on
// Flush. Two backend flavors exist:
//
//   - GL: always 8-bit RGBA render targets.
//   - Vulkan: 8-bit RGBA or half-float RGBA16Float targets.
//
// Every texture is owned by a [surface.Releaser] that destroys the texture
// and its view exactly once, after the surface and every image built from it
// have let go.
//
// Example:
//
//	ctx, err := halgpu.NewContextFromProvider(provider, surface.APIVulkan)
//	if err != nil {
//	    return err
//	}
//	defer ctx.Close()
//	s, err := ctx.MakeRenderTarget(surface.ImageInfo{Width: 200, Height: 100}, "uifirst")
package halgpu
