// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package halgpu

import (
	"errors"
	"testing"

	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/surface"
)

func TestFactoryErrors(t *testing.T) {
	policy := uifirst.DefaultPolicy()
	if _, err := Factory(nil, policy)(0); !errors.Is(err, ErrNilDevice) {
		t.Errorf("Factory(nil) error = %v, want ErrNilDevice", err)
	}
	ctx := newTestContext(t, surface.APIVulkan)
	ctx.Close()
	if _, err := Factory(ctx, policy)(0); !errors.Is(err, ErrContextClosed) {
		t.Errorf("Factory(closed) error = %v, want ErrContextClosed", err)
	}
}

func TestFactoryStencilCulling(t *testing.T) {
	_, compileErr := compileShaderToSPIRV(CompositeShaderSource())

	tests := []struct {
		name    string
		culling bool
		want    bool
	}{
		{"off", false, false},
		{"on", true, compileErr == nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newTestContext(t, surface.APIVulkan)
			policy := uifirst.DefaultPolicy()
			policy.StencilCulling = tt.culling

			alloc, err := Factory(ctx, policy)(1)
			if err != nil {
				t.Fatalf("Factory() error = %v", err)
			}
			if alloc != surface.Allocator(ctx) {
				t.Error("Factory() did not return the shared context")
			}
			if got := ctx.HasCompositeShader(); got != tt.want {
				t.Errorf("HasCompositeShader() = %v, want %v (compile error %v)", got, tt.want, compileErr)
			}
			s, err := alloc.MakeRenderTarget(surface.ImageInfo{Width: 8, Height: 8}, "w")
			if err != nil {
				t.Fatalf("MakeRenderTarget() error = %v", err)
			}
			s.Close()
		})
	}
}
