// Package uifirst provides the shared types of the sub-thread render cache:
// geometry, dirty regions, affine matrices, cache states, node parameters
// and the tunable Policy.
//
// # Overview
//
// A leash window subtree is rendered on a worker thread into a pooled
// surface, kept as a double buffer, and composited back by the render thread
// on later frames. The work is split across packages:
//
//   - dirty: per-surface dirty rectangle history
//   - surface: capability layer for surfaces, canvases and images
//   - surface/halgpu: GPU-backed cache surfaces over wgpu HAL textures
//   - surfacepool: the producing/completed double buffer
//   - windowcache: same-thread offscreen cache of a window
//   - subthread: the per-surface cache orchestrator
//   - drawable: surface drawables and the factory registry
//   - scheduler: the worker pool that runs sub draws
//   - metrics: Prometheus instrumentation
//
// # Logging
//
// Nothing is logged unless a logger is installed:
//
//	uifirst.SetLogger(slog.Default())
//
// # Configuration
//
// Heuristics such as the wait timeout live in [Policy], which can be loaded
// from TOML:
//
//	f, _ := os.Open("uifirst.toml")
//	policy, err := uifirst.LoadPolicy(f)
package uifirst
