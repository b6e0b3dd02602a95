// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package scheduler runs sub-thread cache tasks on a fixed pool of workers.
//
// A frame on the render thread looks like this:
//
//	m.BeginFrame()
//	for _, id := range leashWindows {
//		m.ScheduleRenderNodeDrawable(id)
//	}
//	// composite; caches call m.WaitNodeTask when they must have a result
//	res := m.ProcessDoneNodes()
//
// Each worker owns the allocator its cache surfaces come from. A window
// stays on the worker that drew it last, and surfaces given up by a cache
// are released on the worker that allocated them.
package scheduler
