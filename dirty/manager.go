// Package dirty tracks per-surface damage across frames.
//
// A Manager accumulates the rectangles changed in the current frame, keeps a
// short ring of previous frames, and answers which pixels a cache buffer of a
// given age must redraw. Writers are the render thread; readers may be
// worker threads, so every method takes the manager's lock.
package dirty

import (
	"sync"

	"github.com/gogpu/uifirst"
)

// HistoryQueueMaxSize is the number of past frames remembered.
const HistoryQueueMaxSize = 5

// Manager accumulates dirty rectangles for one surface.
type Manager struct {
	mu sync.Mutex

	currentFrameDirty uifirst.RectI
	uifirstFrameDirty uifirst.RectI
	dirtyRegion       uifirst.RectI

	history     [HistoryQueueMaxSize]uifirst.RectI
	historyHead int // index of the next slot to write
	historySize int
	unconsumed  int

	bufferAge int
}

// NewManager returns an empty manager with a buffer age of one frame.
func NewManager() *Manager {
	return &Manager{bufferAge: 1}
}

// MergeDirtyRect adds r to the current frame's damage.
func (m *Manager) MergeDirtyRect(r uifirst.RectI) {
	if r.IsEmpty() {
		return
	}
	m.mu.Lock()
	m.currentFrameDirty = m.currentFrameDirty.JoinRect(r)
	m.mu.Unlock()
}

// MergeUifirstFrameDirtyRect adds r to the damage reported by the render
// thread for the current cache frame.
func (m *Manager) MergeUifirstFrameDirtyRect(r uifirst.RectI) {
	if r.IsEmpty() {
		return
	}
	m.mu.Lock()
	m.uifirstFrameDirty = m.uifirstFrameDirty.JoinRect(r)
	m.mu.Unlock()
}

// CurrentFrameDirtyRegion returns the damage accumulated this frame.
func (m *Manager) CurrentFrameDirtyRegion() uifirst.RectI {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentFrameDirty
}

// UifirstFrameDirtyRegion returns the render thread's cache frame damage.
func (m *Manager) UifirstFrameDirtyRegion() uifirst.RectI {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uifirstFrameDirty
}

// DirtyRegion returns the damage computed by the last UpdateDirty.
func (m *Manager) DirtyRegion() uifirst.RectI {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirtyRegion
}

// SetBufferAge sets how many frames old the target buffer is. Ages outside
// [1, HistoryQueueMaxSize] are rejected.
func (m *Manager) SetBufferAge(age int) bool {
	if age < 1 || age > HistoryQueueMaxSize {
		return false
	}
	m.mu.Lock()
	m.bufferAge = age
	m.mu.Unlock()
	return true
}

// UpdateDirty closes the current frame: its damage is pushed into history
// and the dirty region becomes the union of the last bufferAge frames.
func (m *Manager) UpdateDirty() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history[m.historyHead] = m.currentFrameDirty
	m.historyHead = (m.historyHead + 1) % HistoryQueueMaxSize
	m.historySize = min(m.historySize+1, HistoryQueueMaxSize)
	m.unconsumed = min(m.unconsumed+1, HistoryQueueMaxSize)

	m.dirtyRegion = m.latestLocked(m.bufferAge, m.historySize)
}

// GetUiLatestHistoryDirtyRegions returns the union of the last k history
// frames that no successful draw has consumed yet.
func (m *Manager) GetUiLatestHistoryDirtyRegions(k int) uifirst.RectI {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latestLocked(k, m.unconsumed)
}

// HistoryAge returns the number of unconsumed history frames.
func (m *Manager) HistoryAge() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unconsumed
}

// ResetHistoryAge marks history as consumed after a successful draw. The
// newest frame stays pending because the other buffer of the pair has not
// been drawn with it.
func (m *Manager) ResetHistoryAge() {
	m.mu.Lock()
	m.unconsumed = min(m.unconsumed, 1)
	m.mu.Unlock()
}

// Clear resets the per-frame state. History is kept.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.currentFrameDirty = uifirst.RectI{}
	m.uifirstFrameDirty = uifirst.RectI{}
	m.dirtyRegion = uifirst.RectI{}
	m.mu.Unlock()
}

// Reset drops all state including history.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.currentFrameDirty = uifirst.RectI{}
	m.uifirstFrameDirty = uifirst.RectI{}
	m.dirtyRegion = uifirst.RectI{}
	m.history = [HistoryQueueMaxSize]uifirst.RectI{}
	m.historyHead, m.historySize, m.unconsumed = 0, 0, 0
	m.bufferAge = 1
	m.mu.Unlock()
}

// latestLocked unions the newest min(k, limit) history entries.
func (m *Manager) latestLocked(k, limit int) uifirst.RectI {
	n := min(k, limit, m.historySize)
	var out uifirst.RectI
	for i := 1; i <= n; i++ {
		idx := (m.historyHead - i + HistoryQueueMaxSize) % HistoryQueueMaxSize
		out = out.JoinRect(m.history[idx])
	}
	return out
}
