// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package halgpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/uifirst"
)

//go:embed shaders/cache_composite.wgsl
var compositeShaderSource string

// CompositeShaderSource returns the WGSL of the stencil-masked composite.
func CompositeShaderSource() string { return compositeShaderSource }

// compileShaderToSPIRV compiles WGSL source to SPIR-V words.
func compileShaderToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("halgpu: compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirv, nil
}

// PrepareCompositeShader compiles the composite shader and creates its
// module. Repeated calls reuse the module.
func (c *Context) PrepareCompositeShader() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrContextClosed
	}
	if c.composite != nil {
		return nil
	}

	spirv, err := compileShaderToSPIRV(compositeShaderSource)
	if err != nil {
		return err
	}
	module, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "uifirst_cache_composite",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("halgpu: create composite shader module: %w", err)
	}
	c.composite = module
	uifirst.Logger().Info("halgpu: composite shader ready", "api", c.api, "words", len(spirv))
	return nil
}

// HasCompositeShader reports whether PrepareCompositeShader succeeded.
func (c *Context) HasCompositeShader() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.composite != nil
}
