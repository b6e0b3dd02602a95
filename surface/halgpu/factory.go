// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package halgpu

import (
	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/surface"
)

// Factory returns a surface.AllocatorFactory that hands ctx to every
// worker. With policy.StencilCulling set, the first call prepares the
// stencil composite shader. A shader that fails to build is logged and the
// allocator is still returned; caches then composite without the stencil
// pass.
//
// Example:
//
//	reg := surface.NewRegistry()
//	reg.Register("vulkan", 100, halgpu.Factory(ctx, policy), nil)
//	m, err := scheduler.New(env, scheduler.WithAllocatorRegistry(reg))
func Factory(ctx *Context, policy uifirst.Policy) surface.AllocatorFactory {
	return func(threadIndex uint32) (surface.Allocator, error) {
		if ctx == nil {
			return nil, ErrNilDevice
		}
		ctx.mu.Lock()
		closed := ctx.closed
		ctx.mu.Unlock()
		if closed {
			return nil, ErrContextClosed
		}
		if policy.StencilCulling {
			if err := ctx.PrepareCompositeShader(); err != nil {
				uifirst.Logger().Warn("halgpu: stencil composite unavailable",
					"api", ctx.api, "thread", threadIndex, "err", err)
			}
		}
		return ctx, nil
	}
}
