// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package subthread

import (
	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/dirty"
	"github.com/gogpu/uifirst/metrics"
	"github.com/gogpu/uifirst/surface"
	"github.com/gogpu/uifirst/windowcache"
)

// DrawStats counts what a paint replay processed.
type DrawStats struct {
	Surfaces int
	Nodes    int
}

// SurfaceDrawable is a surface node as seen by its sub-thread cache.
type SurfaceDrawable interface {
	windowcache.Drawable

	// RenderParams are the render thread's params for the current frame.
	RenderParams() *uifirst.SurfaceParams
	// UifirstRenderParams are the params synced for the worker when the
	// task was posted.
	UifirstRenderParams() *uifirst.SurfaceParams

	SubThreadCache() *Cache
	// DirtyManager is the node's render-thread dirty manager.
	DirtyManager() *dirty.Manager

	// DrawUifirstContentChildren replays the whole window into c, which
	// belongs to a worker.
	DrawUifirstContentChildren(c surface.Canvas, bounds uifirst.RectF) DrawStats
	DrawLeashWindowBackground(c surface.Canvas, bounds uifirst.RectF, stencilCulling bool, stencilVal int64)
	// Draw renders the node directly. Starting windows are drawn this way.
	Draw(c surface.Canvas)

	SetDrawSkipType(t uifirst.DrawSkipType)
}

// TaskWaiter blocks until the task of a node finishes or a bound passes.
type TaskWaiter interface {
	WaitNodeTask(id uifirst.NodeID) bool
}

// Lookup resolves a node to its drawable. It returns nil for unknown nodes.
type Lookup func(id uifirst.NodeID) SurfaceDrawable

// Env is the shared context of all caches served by one scheduler.
type Env struct {
	Policy   uifirst.Policy
	Notifier *Notifier
	Waiter   TaskWaiter
	Lookup   Lookup
	Metrics  *metrics.Collector
}

// DefaultEnv returns an Env with the default policy and a fresh notifier.
func DefaultEnv() *Env {
	return &Env{Policy: uifirst.DefaultPolicy(), Notifier: NewNotifier()}
}

func (e *Env) lookup(id uifirst.NodeID) SurfaceDrawable {
	if e.Lookup == nil || id == uifirst.InvalidNodeID {
		return nil
	}
	return e.Lookup(id)
}

// drawables resolves ids, skipping unknown nodes.
func (e *Env) drawables(ids []uifirst.NodeID) []SurfaceDrawable {
	out := make([]SurfaceDrawable, 0, len(ids))
	for _, id := range ids {
		if d := e.lookup(id); d != nil && d.SubThreadCache() != nil {
			out = append(out, d)
		}
	}
	return out
}
