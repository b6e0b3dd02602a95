// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package drawable

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/subthread"
)

// NodeType selects the factory that builds a surface drawable.
type NodeType uint8

const (
	// NodeLeashWindow is the top-level window that owns a sub-thread cache
	// and groups its app windows.
	NodeLeashWindow NodeType = iota
	// NodeAppWindow is a sub-surface drawn inside a leash window.
	NodeAppWindow
	// NodeStartingWindow is the placeholder shown while an app launches.
	NodeStartingWindow
	// NodeCard is a widget card cached on its own.
	NodeCard
)

func (t NodeType) String() string {
	switch t {
	case NodeLeashWindow:
		return "leash-window"
	case NodeAppWindow:
		return "app-window"
	case NodeStartingWindow:
		return "starting-window"
	case NodeCard:
		return "card"
	default:
		return fmt.Sprintf("NodeType(%d)", uint8(t))
	}
}

var (
	// ErrUnknownNodeType is returned when no factory serves a node type.
	ErrUnknownNodeType = errors.New("drawable: unknown node type")
	// ErrDuplicateNode is returned when a node id is already registered.
	ErrDuplicateNode = errors.New("drawable: duplicate node")
	// ErrInvalidNode is returned for the zero node id.
	ErrInvalidNode = errors.New("drawable: invalid node id")
)

// Factory builds the drawable of a node. It may adjust params before the
// drawable is created.
type Factory func(r *Registry, params uifirst.SurfaceParams, p Paint) *Surface

// Registry maps node types to factories and node ids to drawables.
//
// The factory map is filled by NewRegistry and Register before frames
// start; the instance map is safe for concurrent use by the render thread
// and workers.
type Registry struct {
	env *subthread.Env

	factories map[NodeType]Factory

	mu    sync.RWMutex
	nodes map[uifirst.NodeID]*Surface
}

// NewRegistry returns a registry with the built-in factories. Caches of
// its drawables share env, whose Lookup is pointed at the registry. A nil
// env uses subthread.DefaultEnv.
func NewRegistry(env *subthread.Env) *Registry {
	if env == nil {
		env = subthread.DefaultEnv()
	}
	r := &Registry{
		env:       env,
		factories: make(map[NodeType]Factory),
		nodes:     make(map[uifirst.NodeID]*Surface),
	}
	env.Lookup = r.Lookup

	r.Register(NodeLeashWindow, newLeashWindow)
	r.Register(NodeAppWindow, newAppWindow)
	r.Register(NodeStartingWindow, newStartingWindow)
	r.Register(NodeCard, newCard)
	return r
}

// Env returns the env shared by the registry's caches.
func (r *Registry) Env() *subthread.Env { return r.env }

// Register sets the factory for t, replacing any previous one.
func (r *Registry) Register(t NodeType, f Factory) {
	r.factories[t] = f
}

// Create builds and registers the drawable of a node.
func (r *Registry) Create(t NodeType, params uifirst.SurfaceParams, p Paint) (*Surface, error) {
	if params.ID == uifirst.InvalidNodeID {
		return nil, ErrInvalidNode
	}
	f, ok := r.factories[t]
	if !ok || f == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeType, t)
	}

	r.mu.RLock()
	_, exists := r.nodes[params.ID]
	r.mu.RUnlock()
	if exists {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateNode, params.ID)
	}

	s := f(r, params, p)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[params.ID]; ok {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateNode, params.ID)
	}
	r.nodes[params.ID] = s
	uifirst.Logger().Debug("drawable: created", "id", params.ID, "name", params.Name, "type", t)
	return s, nil
}

// Get returns the drawable of id, or nil.
func (r *Registry) Get(id uifirst.NodeID) *Surface {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nodes[id]
}

// Lookup resolves id for the sub-thread caches. Unknown ids give a nil
// interface.
func (r *Registry) Lookup(id uifirst.NodeID) subthread.SurfaceDrawable {
	if s := r.Get(id); s != nil {
		return s
	}
	return nil
}

// Remove unregisters id and drops its cached surfaces. It reports whether
// the node was registered.
func (r *Registry) Remove(id uifirst.NodeID) bool {
	r.mu.Lock()
	s, ok := r.nodes[id]
	delete(r.nodes, id)
	r.mu.Unlock()
	if !ok {
		return false
	}
	s.cache.ResetUifirst(false)
	if rc := s.relatedImage.Swap(nil); rc != nil && rc.img != nil {
		rc.img.Release()
	}
	return true
}

// IDs returns the registered node ids in ascending order.
func (r *Registry) IDs() []uifirst.NodeID {
	r.mu.RLock()
	ids := make([]uifirst.NodeID, 0, len(r.nodes))
	for id := range r.nodes {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Len returns the number of registered drawables.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// surfaces resolves ids, skipping unknown nodes.
func (r *Registry) surfaces(ids []uifirst.NodeID) []*Surface {
	if len(ids) == 0 {
		return nil
	}
	out := make([]*Surface, 0, len(ids))
	r.mu.RLock()
	for _, id := range ids {
		if s, ok := r.nodes[id]; ok {
			out = append(out, s)
		}
	}
	r.mu.RUnlock()
	return out
}

func newLeashWindow(r *Registry, params uifirst.SurfaceParams, p Paint) *Surface {
	params.IsLeashWindow = true
	if params.EnableType == uifirst.CacheTypeNone {
		params.EnableType = uifirst.CacheTypeLeashWindow
	}
	return newSurface(r, NodeLeashWindow, withDefaults(params), p)
}

func newAppWindow(r *Registry, params uifirst.SurfaceParams, p Paint) *Surface {
	params.IsLeashWindow = false
	return newSurface(r, NodeAppWindow, withDefaults(params), p)
}

func newStartingWindow(r *Registry, params uifirst.SurfaceParams, p Paint) *Surface {
	params.IsLeashWindow = false
	params.EnableType = uifirst.CacheTypeNone
	return newSurface(r, NodeStartingWindow, withDefaults(params), p)
}

func newCard(r *Registry, params uifirst.SurfaceParams, p Paint) *Surface {
	params.IsLeashWindow = false
	params.EnableType = uifirst.CacheTypeArkTSCard
	return newSurface(r, NodeCard, withDefaults(params), p)
}

// withDefaults fills the fields a zero SurfaceParams leaves unusable.
func withDefaults(p uifirst.SurfaceParams) uifirst.SurfaceParams {
	if p.Matrix == (uifirst.Matrix{}) {
		p.Matrix = uifirst.Identity()
	}
	if p.DirtyRegionMatrix == (uifirst.Matrix{}) {
		p.DirtyRegionMatrix = uifirst.Identity()
	}
	if p.Alpha == 0 {
		p.Alpha = 1
	}
	if p.GlobalAlpha == 0 {
		p.GlobalAlpha = 1
	}
	if p.CacheWidth == 0 && p.CacheHeight == 0 {
		p.CacheWidth, p.CacheHeight = p.Bounds.Width(), p.Bounds.Height()
	}
	if p.AbsDrawRect.IsEmpty() {
		p.AbsDrawRect = p.Matrix.MapRect(p.Bounds).RoundOut()
	}
	if p.StencilVal == 0 {
		p.StencilVal = uifirst.InvalidStencilVal
	}
	return p
}
