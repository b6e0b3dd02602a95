package dirty

import (
	"sync"
	"testing"

	"github.com/gogpu/uifirst"
)

func rect(l, t, w, h int) uifirst.RectI {
	return uifirst.RectI{Left: l, Top: t, Width: w, Height: h}
}

func TestMergeDirtyRect(t *testing.T) {
	m := NewManager()
	m.MergeDirtyRect(rect(0, 0, 10, 10))
	m.MergeDirtyRect(rect(20, 20, 5, 5))
	m.MergeDirtyRect(uifirst.RectI{})

	if got, want := m.CurrentFrameDirtyRegion(), rect(0, 0, 25, 25); got != want {
		t.Errorf("CurrentFrameDirtyRegion() = %v, want %v", got, want)
	}
}

func TestUpdateDirtyBufferAge(t *testing.T) {
	m := NewManager()
	frames := []uifirst.RectI{rect(0, 0, 10, 10), rect(50, 50, 10, 10), rect(100, 0, 10, 10)}
	for _, f := range frames {
		m.Clear()
		m.MergeDirtyRect(f)
		m.UpdateDirty()
	}

	if got, want := m.DirtyRegion(), frames[2]; got != want {
		t.Errorf("age 1 DirtyRegion() = %v, want %v", got, want)
	}

	if !m.SetBufferAge(2) {
		t.Fatal("SetBufferAge(2) = false")
	}
	m.Clear()
	m.UpdateDirty()
	// Current frame is empty; age 2 reaches back one frame.
	if got, want := m.DirtyRegion(), frames[2]; got != want {
		t.Errorf("age 2 DirtyRegion() = %v, want %v", got, want)
	}

	if m.SetBufferAge(0) || m.SetBufferAge(HistoryQueueMaxSize+1) {
		t.Error("SetBufferAge() accepted an out of range age")
	}
}

func TestHistoryConsumption(t *testing.T) {
	m := NewManager()
	m.MergeDirtyRect(rect(0, 0, 10, 10))
	m.UpdateDirty()
	m.Clear()
	m.MergeDirtyRect(rect(20, 0, 10, 10))
	m.UpdateDirty()

	if got, want := m.GetUiLatestHistoryDirtyRegions(2), rect(0, 0, 30, 10); got != want {
		t.Errorf("GetUiLatestHistoryDirtyRegions(2) = %v, want %v", got, want)
	}
	if got, want := m.GetUiLatestHistoryDirtyRegions(1), rect(20, 0, 10, 10); got != want {
		t.Errorf("GetUiLatestHistoryDirtyRegions(1) = %v, want %v", got, want)
	}

	m.ResetHistoryAge()
	if got := m.HistoryAge(); got != 1 {
		t.Errorf("HistoryAge() after reset = %d, want 1", got)
	}
	if got, want := m.GetUiLatestHistoryDirtyRegions(2), rect(20, 0, 10, 10); got != want {
		t.Errorf("after reset GetUiLatestHistoryDirtyRegions(2) = %v, want %v", got, want)
	}

	// Reading twice yields the same answer.
	first := m.GetUiLatestHistoryDirtyRegions(2)
	if second := m.GetUiLatestHistoryDirtyRegions(2); first != second {
		t.Errorf("repeated read = %v, then %v", first, second)
	}
}

func TestHistoryRingWraps(t *testing.T) {
	m := NewManager()
	for i := 0; i < HistoryQueueMaxSize+3; i++ {
		m.Clear()
		m.MergeDirtyRect(rect(i*10, 0, 10, 10))
		m.UpdateDirty()
	}
	last := HistoryQueueMaxSize + 2
	want := rect((last-HistoryQueueMaxSize+1)*10, 0, HistoryQueueMaxSize*10, 10)
	if got := m.GetUiLatestHistoryDirtyRegions(100); got != want {
		t.Errorf("GetUiLatestHistoryDirtyRegions(100) = %v, want %v", got, want)
	}
}

func TestClearKeepsHistoryResetDrops(t *testing.T) {
	m := NewManager()
	m.MergeDirtyRect(rect(0, 0, 5, 5))
	m.MergeUifirstFrameDirtyRect(rect(1, 1, 1, 1))
	m.UpdateDirty()
	m.Clear()

	if !m.CurrentFrameDirtyRegion().IsEmpty() || !m.UifirstFrameDirtyRegion().IsEmpty() {
		t.Error("Clear() left frame state behind")
	}
	if m.GetUiLatestHistoryDirtyRegions(1).IsEmpty() {
		t.Error("Clear() dropped history")
	}

	m.Reset()
	if !m.GetUiLatestHistoryDirtyRegions(HistoryQueueMaxSize).IsEmpty() {
		t.Error("Reset() kept history")
	}
}

func TestConcurrentMerge(t *testing.T) {
	m := NewManager()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.MergeDirtyRect(rect(i, i, 1, 1))
			_ = m.GetUiLatestHistoryDirtyRegions(2)
		}(i)
	}
	wg.Wait()
	if got, want := m.CurrentFrameDirtyRegion(), rect(0, 0, 16, 16); got != want {
		t.Errorf("CurrentFrameDirtyRegion() = %v, want %v", got, want)
	}
}
