// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"sort"
	"sync"
)

// AllocatorFactory creates the allocator used by one worker thread. Each
// worker gets its own allocator since GPU contexts are per thread.
type AllocatorFactory func(threadIndex uint32) (Allocator, error)

// RegistryEntry represents a registered allocator backend.
type RegistryEntry struct {
	// Name is the unique identifier for this backend.
	Name string

	// Priority determines selection order (higher = preferred).
	// Standard priorities:
	//   - 100: Vulkan-style GPU backends
	//   - 50: GL-style GPU backends
	//   - 10: raster
	Priority int

	// Factory creates allocator instances.
	Factory AllocatorFactory

	// Available reports if the backend can be used on this system.
	Available func() bool
}

// Registry maps backend names to allocator factories. A registry is built
// explicitly by the host and handed to the scheduler; there is no package
// level registration.
//
// Example:
//
//	reg := surface.NewRegistry()
//	reg.Register("raster", 10, surface.RasterFactory, nil)
//	reg.Register("vulkan", 100, vulkanFactory, vulkanAvailable)
//	alloc, err := reg.NewAllocator(workerIndex)
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*RegistryEntry
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*RegistryEntry),
	}
}

// RasterFactory is the AllocatorFactory of the raster backend.
func RasterFactory(uint32) (Allocator, error) { return RasterAllocator{}, nil }

// Register adds a backend. If available is nil the backend is assumed
// always available. Registering an existing name replaces it.
func (r *Registry) Register(name string, priority int, factory AllocatorFactory, available func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]*RegistryEntry)
	}

	if available == nil {
		available = func() bool { return true }
	}

	r.entries[name] = &RegistryEntry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// Unregister removes a backend.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, name)
}

// List returns all registered backend names sorted by priority.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(false)
}

// Available returns names of all available backends sorted by priority.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(true)
}

// Get returns a copy of the entry for name.
func (r *Registry) Get(name string) (*RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}

	entryCopy := *entry
	return &entryCopy, true
}

// NewAllocator creates an allocator from the best available backend,
// falling back in priority order when a factory fails.
func (r *Registry) NewAllocator(threadIndex uint32) (Allocator, error) {
	r.mu.RLock()
	available := r.sortedNames(true)
	r.mu.RUnlock()

	if len(available) == 0 {
		return nil, ErrNoBackendAvailable
	}

	var lastErr error
	for _, name := range available {
		a, err := r.NewAllocatorByName(name, threadIndex)
		if err == nil {
			return a, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// NewAllocatorByName creates an allocator from a specific backend.
func (r *Registry) NewAllocatorByName(name string, threadIndex uint32) (Allocator, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &BackendNotFoundError{Name: name}
	}

	if !entry.Available() {
		return nil, &BackendUnavailableError{Name: name}
	}

	return entry.Factory(threadIndex)
}

// sortedNames returns backend names sorted by priority (highest first),
// ties broken by name. Must be called with lock held.
func (r *Registry) sortedNames(onlyAvailable bool) []string {
	if len(r.entries) == 0 {
		return nil
	}

	type entry struct {
		name     string
		priority int
	}

	entries := make([]entry, 0, len(r.entries))
	for name, e := range r.entries {
		if onlyAvailable && !e.Available() {
			continue
		}
		entries = append(entries, entry{name: name, priority: e.Priority})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority > entries[j].priority
		}
		return entries[i].name < entries[j].name
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// Errors.
var (
	// ErrNoBackendAvailable is returned when no backends are registered or
	// available on the current system.
	ErrNoBackendAvailable = errors.New("surface: no backend available")
)

// BackendNotFoundError indicates a named backend is not registered.
type BackendNotFoundError struct {
	Name string
}

func (e *BackendNotFoundError) Error() string {
	return "surface: backend not found: " + e.Name
}

// BackendUnavailableError indicates a backend exists but is not available.
type BackendUnavailableError struct {
	Name string
}

func (e *BackendUnavailableError) Error() string {
	return "surface: backend unavailable: " + e.Name
}
