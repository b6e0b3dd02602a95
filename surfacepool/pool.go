// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package surfacepool implements the producing/completed double buffer of a
// sub-thread cache.
//
// A worker draws into the producing buffer while the render thread reads the
// completed one. Swap exchanges the two once the producing buffer holds a
// finished frame. Buffers are addressed by generation handles so a caller
// holding a handle from before a swap or reallocation is rejected instead of
// reading a buffer that changed role.
package surfacepool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/uifirst"
	"github.com/gogpu/uifirst/surface"
)

var (
	// ErrNoAllocator is returned by Init when no allocator is available,
	// for example when the GPU context is gone.
	ErrNoAllocator = errors.New("surfacepool: no allocator")

	// ErrStaleHandle is returned when a handle refers to a buffer that has
	// since been swapped, reallocated or released.
	ErrStaleHandle = errors.New("surfacepool: stale handle")
)

// Slot names one of the two buffers.
type Slot uint8

const (
	SlotProducing Slot = iota
	SlotCompleted
)

func (s Slot) String() string {
	if s == SlotCompleted {
		return "completed"
	}
	return "producing"
}

// Handle identifies a buffer by its slot and the generation it had when the
// handle was taken.
type Handle struct {
	Generation uint64
	Slot       Slot
}

// ReclaimFunc receives surfaces the pool gives up so they can be released
// on the thread that created them. A pool without one closes them on the
// calling thread.
type ReclaimFunc func(producing, completed surface.Surface, producingThread, completedThread uint32)

// Info records what went into a cache image.
type Info struct {
	ProcessedSurfaceCount int
	ProcessedNodeCount    int
	Alpha                 float64
	SubSurfaceIDs         map[uifirst.NodeID]struct{}
}

// NewInfo returns an Info with every counter unset.
func NewInfo() Info {
	return Info{ProcessedSurfaceCount: -1, ProcessedNodeCount: -1, Alpha: -1}
}

// Covers reports whether the image included every node in ids.
func (i Info) Covers(ids []uifirst.NodeID) bool {
	for _, id := range ids {
		if _, ok := i.SubSurfaceIDs[id]; !ok {
			return false
		}
	}
	return true
}

// Buffer is one side of the double buffer.
type Buffer struct {
	Surface surface.Surface
	Texture surface.BackendTexture

	// Requested is the info passed to Init. Backends may allocate a
	// different pixel format than requested.
	Requested surface.ImageInfo

	ThreadIndex  uint32
	Info         Info
	BehindWindow *surface.BehindWindowData
	Generation   uint64

	// Drawn is set once a frame has been produced into the surface, so
	// later frames may redraw only their damage.
	Drawn bool
}

// Pool is the double buffer of one cache.
//
// The producing buffer is touched only by the worker that draws it, and by
// the render thread once the task has finished. The completed buffer and the
// validity flags are guarded by mu because teardown may run on any thread.
type Pool struct {
	mu sync.Mutex

	producing Buffer
	completed Buffer

	valid          bool
	completedValid bool
	textureValid   bool

	generation atomic.Uint64
	reclaim    ReclaimFunc
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{
		producing: Buffer{Info: NewInfo(), ThreadIndex: uifirst.MainThreadIndex},
		completed: Buffer{Info: NewInfo(), ThreadIndex: uifirst.MainThreadIndex},
	}
}

// SetReclaimFunc installs the reclaim callback if none is set yet.
func (p *Pool) SetReclaimFunc(fn ReclaimFunc) {
	p.mu.Lock()
	if p.reclaim == nil {
		p.reclaim = fn
	}
	p.mu.Unlock()
}

// NeedInit reports whether the producing buffer must be (re)allocated for
// a width x height cache of the given color type.
func (p *Pool) NeedInit(width, height int, ct surface.ColorType) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.producing
	if b.Surface == nil {
		return true
	}
	return b.Surface.Width() != width || b.Surface.Height() != height || b.Requested.ColorType != ct
}

// Init allocates a new producing buffer on threadIndex. Any previous
// producing surface is handed to the reclaim callback. When alloc is nil or
// fails, both buffers are reclaimed and the pool is left empty.
func (p *Pool) Init(alloc surface.Allocator, info surface.ImageInfo, label string, threadIndex uint32) error {
	p.mu.Lock()
	old := p.producing
	p.producing = Buffer{Info: NewInfo(), ThreadIndex: threadIndex}
	p.valid = false
	reclaim := p.reclaim
	p.mu.Unlock()

	discard(reclaim, old.Surface, nil, old.ThreadIndex, uifirst.MainThreadIndex)

	if alloc == nil {
		p.ReleaseAll()
		return ErrNoAllocator
	}
	s, err := alloc.MakeRenderTarget(info, label)
	if err != nil {
		p.ReleaseAll()
		return fmt.Errorf("surfacepool: allocate %dx%d on %v: %w", info.Width, info.Height, alloc.API(), err)
	}

	p.mu.Lock()
	p.producing.Surface = s
	p.producing.Requested = info
	p.producing.Generation = p.generation.Add(1)
	p.mu.Unlock()
	return nil
}

// Producing returns the producing surface if it was allocated on
// threadIndex, and nil otherwise.
func (p *Pool) Producing(threadIndex uint32) surface.Surface {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.producing.ThreadIndex != threadIndex {
		return nil
	}
	return p.producing.Surface
}

// HasProducing reports whether a producing surface is allocated.
func (p *Pool) HasProducing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.producing.Surface != nil
}

// ProducingHandle returns the handle of the producing buffer.
func (p *Pool) ProducingHandle() Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Handle{Generation: p.producing.Generation, Slot: SlotProducing}
}

// CompletedHandle returns the handle of the completed buffer.
func (p *Pool) CompletedHandle() Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Handle{Generation: p.completed.Generation, Slot: SlotCompleted}
}

// Lookup returns a copy of the buffer h refers to, or ErrStaleHandle when
// the slot now holds a different generation.
func (p *Pool) Lookup(h Handle) (Buffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lookupLocked(h)
}

func (p *Pool) lookupLocked(h Handle) (Buffer, error) {
	b := p.producing
	if h.Slot == SlotCompleted {
		b = p.completed
	}
	if h.Generation == 0 || b.Generation != h.Generation || b.Surface == nil {
		return Buffer{}, fmt.Errorf("%w: %v generation %d", ErrStaleHandle, h.Slot, h.Generation)
	}
	return b, nil
}

// MarkProduced records the producing surface's texture and marks the
// producing buffer as holding a finished frame. h is the producing handle
// taken before drawing; if the buffer was reallocated, swapped or released
// since, nothing is marked and ErrStaleHandle is returned.
func (p *Pool) MarkProduced(h Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h.Slot != SlotProducing {
		return fmt.Errorf("%w: %v is not the producing slot", ErrStaleHandle, h.Slot)
	}
	if _, err := p.lookupLocked(h); err != nil {
		return err
	}
	p.producing.Texture = p.producing.Surface.BackendTexture()
	p.producing.Drawn = true
	p.valid = true
	return nil
}

// ProducingDrawn reports whether the producing surface holds an earlier
// frame that a partial redraw can build on.
func (p *Pool) ProducingDrawn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.producing.Surface != nil && p.producing.Drawn
}

// SetProducingInfo stores the diagnostics of the frame being produced.
func (p *Pool) SetProducingInfo(info Info) {
	p.mu.Lock()
	p.producing.Info = info
	p.mu.Unlock()
}

// SetProducingBehindWindow stores the behind-window effect of the frame
// being produced.
func (p *Pool) SetProducingBehindWindow(d *surface.BehindWindowData) {
	p.mu.Lock()
	p.producing.BehindWindow = d
	p.mu.Unlock()
}

// SetCompletedBehindWindow replaces the behind-window effect of the
// completed buffer.
func (p *Pool) SetCompletedBehindWindow(d *surface.BehindWindowData) {
	p.mu.Lock()
	p.completed.BehindWindow = d
	p.mu.Unlock()
}

// Swap publishes the producing buffer as completed. It does nothing and
// reports false unless the producing buffer holds a valid frame.
func (p *Pool) Swap() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.producing.Surface == nil || !p.valid {
		return false
	}
	p.producing, p.completed = p.completed, p.producing
	p.completedValid = p.valid
	p.valid = false
	p.textureValid = true
	return true
}

// Completed returns a copy of the completed buffer and whether it holds a
// valid frame.
func (p *Pool) Completed() (Buffer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed, p.completedValid && p.completed.Surface != nil
}

// HasCachedTexture reports whether a completed texture can be composited.
func (p *Pool) HasCachedTexture() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.textureValid && p.completed.Texture.IsValid()
}

// Valid reports whether the producing buffer holds a finished frame.
func (p *Pool) Valid() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.valid
}

// CompletedValid reports whether the completed buffer holds a frame.
func (p *Pool) CompletedValid() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completedValid
}

// ReleaseAll hands both buffers to the reclaim callback, or closes them
// without one, and clears the pool.
func (p *Pool) ReleaseAll() {
	p.mu.Lock()
	producing, completed := p.producing, p.completed
	reclaim := p.reclaim
	p.clearLocked(true)
	p.mu.Unlock()

	discard(reclaim, producing.Surface, completed.Surface, producing.ThreadIndex, completed.ThreadIndex)
}

// ReleaseProducing gives up only the producing buffer.
func (p *Pool) ReleaseProducing() {
	p.mu.Lock()
	producing := p.producing
	reclaim := p.reclaim
	p.clearLocked(false)
	p.mu.Unlock()

	discard(reclaim, producing.Surface, nil, producing.ThreadIndex, uifirst.MainThreadIndex)
}

// Clear forgets the buffers without reclaiming them.
func (p *Pool) Clear(includeCompleted bool) {
	p.mu.Lock()
	p.clearLocked(includeCompleted)
	p.mu.Unlock()
}

func (p *Pool) clearLocked(includeCompleted bool) {
	p.producing = Buffer{Info: NewInfo(), ThreadIndex: uifirst.MainThreadIndex}
	p.valid = false
	if includeCompleted {
		p.completed = Buffer{Info: NewInfo(), ThreadIndex: uifirst.MainThreadIndex}
		p.completedValid = false
		p.textureValid = false
	}
}

// discard hands surfaces to reclaim, or closes them when reclaim is nil.
func discard(reclaim ReclaimFunc, producing, completed surface.Surface, producingThread, completedThread uint32) {
	if producing == nil && completed == nil {
		return
	}
	if reclaim != nil {
		reclaim(producing, completed, producingThread, completedThread)
		return
	}
	for _, s := range [...]surface.Surface{producing, completed} {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil {
			uifirst.Logger().Warn("surfacepool: close cache surface", "err", err)
		}
	}
}
