// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package scheduler

import (
	"github.com/benbjohnson/clock"

	"github.com/gogpu/uifirst/surface"
)

// Option configures a Manager during creation.
//
// Example:
//
//	m, err := scheduler.New(reg.Env(),
//		scheduler.WithWorkers(2),
//		scheduler.WithAllocatorFactory(surface.RasterFactory))
type Option func(*options)

// options holds optional configuration for Manager creation.
type options struct {
	workers    int
	factory    surface.AllocatorFactory
	allocators *surface.Registry
	clock      clock.Clock
}

// defaultOptions returns the default manager options.
func defaultOptions() options {
	return options{
		factory: surface.RasterFactory,
		clock:   clock.New(),
	}
}

// WithWorkers overrides the worker count of the policy.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithAllocatorFactory sets the factory called once per worker to create
// the allocator of its cache surfaces. The default is the raster backend.
func WithAllocatorFactory(f surface.AllocatorFactory) Option {
	return func(o *options) {
		o.factory = f
		o.allocators = nil
	}
}

// WithAllocatorRegistry makes every worker take its allocator from the best
// available backend of r.
//
// Example:
//
//	reg := surface.NewRegistry()
//	reg.Register("raster", 10, surface.RasterFactory, nil)
//	reg.Register("vulkan", 100, vulkanFactory, vulkanAvailable)
//	m, err := scheduler.New(env, scheduler.WithAllocatorRegistry(reg))
func WithAllocatorRegistry(r *surface.Registry) Option {
	return func(o *options) {
		o.allocators = r
	}
}

// WithClock sets the clock bounding WaitNodeTask. Tests pass a
// clock.NewMock().
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}
