package uifirst

import "math"

// NodeID identifies a render node. Zero is never a valid node.
type NodeID uint64

// InvalidNodeID is the zero NodeID.
const InvalidNodeID NodeID = 0

// MainThreadIndex tags buffers owned by the render thread rather than a
// worker.
const MainThreadIndex uint32 = math.MaxUint32

// CacheProcessStatus is the state of the asynchronous cache production for
// one surface.
//
//	UNKNOWN -> WAITING -> DOING -> DONE | SKIPPED
type CacheProcessStatus int32

const (
	StatusUnknown CacheProcessStatus = iota
	StatusWaiting
	StatusDoing
	StatusDone
	StatusSkipped
)

func (s CacheProcessStatus) String() string {
	switch s {
	case StatusUnknown:
		return "UNKNOWN"
	case StatusWaiting:
		return "WAITING"
	case StatusDoing:
		return "DOING"
	case StatusDone:
		return "DONE"
	case StatusSkipped:
		return "SKIPPED"
	default:
		return "INVALID"
	}
}

// IsTerminal reports whether s ends a production cycle. Only terminal
// transitions wake waiters.
func (s CacheProcessStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusSkipped
}

// InFlight reports whether a task has been posted and not yet finished.
func (s CacheProcessStatus) InFlight() bool {
	return s == StatusWaiting || s == StatusDoing
}

// MultiThreadCacheType selects how a surface takes part in sub-thread
// caching.
type MultiThreadCacheType uint8

const (
	CacheTypeNone MultiThreadCacheType = iota
	CacheTypeLeashWindow
	CacheTypeArkTSCard
	CacheTypeNonFocusWindow
)

func (t MultiThreadCacheType) String() string {
	switch t {
	case CacheTypeNone:
		return "NONE"
	case CacheTypeLeashWindow:
		return "LEASH_WINDOW"
	case CacheTypeArkTSCard:
		return "ARKTS_CARD"
	case CacheTypeNonFocusWindow:
		return "NONFOCUS_WINDOW"
	default:
		return "INVALID"
	}
}

// DrawSkipType records why the compositor dropped a surface's content.
type DrawSkipType uint8

const (
	DrawSkipNone DrawSkipType = iota
	DrawSkipUIFirstCacheFail
	DrawSkipDealWithCachedWindow
)
