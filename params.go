package uifirst

// ColorGamut is the target gamut of the screen a surface is shown on.
type ColorGamut uint8

const (
	GamutSRGB ColorGamut = iota
	GamutDisplayP3
	GamutBT2020
)

func (g ColorGamut) String() string {
	switch g {
	case GamutSRGB:
		return "sRGB"
	case GamutDisplayP3:
		return "DisplayP3"
	case GamutBT2020:
		return "BT2020"
	default:
		return "unknown"
	}
}

// InvalidStencilVal marks a surface without an occlusion stencil value.
const InvalidStencilVal int64 = -1

// SurfaceParams is the render-thread snapshot of a surface node's state.
// The sub thread reads a separate copy synced before the task is posted.
type SurfaceParams struct {
	ID   NodeID
	Name string

	// Bounds is the content rectangle in the node's own space.
	Bounds RectF
	// Matrix maps content space to the parent canvas.
	Matrix Matrix
	// AbsDrawRect is the node's draw rectangle in screen space.
	AbsDrawRect RectI
	// ScreenRect is the screen the node was registered on.
	ScreenRect RectI
	// DirtyRegionMatrix maps cache space to screen space for dirty mapping.
	DirtyRegionMatrix Matrix
	// CacheWidth and CacheHeight are the pixel size of the cache surface.
	CacheWidth, CacheHeight float64

	Alpha       float64
	GlobalAlpha float64

	GlobalPositionEnabled bool
	// OffsetX and OffsetY are the screen offset used with global positioning.
	OffsetX, OffsetY float64

	IsLeashWindow bool
	EnableType    MultiThreadCacheType
	Gravity       Gravity

	StartingWindowID NodeID
	StencilVal       int64

	SubSurfaceIDs     []NodeID
	VisibleFilterRect RectI

	IsCrossNode       bool
	NeedCacheSurface  bool
	ClonedSourceID    NodeID
	RelatedSourceID   NodeID
	FirstLevelNodeID  NodeID
	UifirstRootNodeID NodeID

	HDRPresent  bool
	TargetGamut ColorGamut
	ScreenID    uint64

	// HighPostPriority sends a window without a worker to the least loaded
	// one instead of the next in turn.
	HighPostPriority bool
}

// CacheSize returns the cache surface size rounded to whole pixels.
func (p *SurfaceParams) CacheSize() (int, int) {
	return int(p.CacheWidth + 0.5), int(p.CacheHeight + 0.5)
}

// IsStencilValid reports whether a stencil value is set and below limit.
func (p *SurfaceParams) IsStencilValid(limit int64) bool {
	return p.StencilVal > InvalidStencilVal && p.StencilVal < limit
}

// CaptureParams describe a capture pass.
type CaptureParams struct {
	IsSnapshot      bool
	IsMirror        bool
	VirtualScreenID uint64
}

// RenderThreadParams is the per-frame state of the render thread.
type RenderThreadParams struct {
	Capture CaptureParams

	IsMirrorScreen             bool
	FirstVisitCrossNodeDisplay bool
	HasDisplayHdrOn            bool
	UIFirstDebugEnabled        bool
	StencilCullingEnabled      bool
	OpDropped                  bool
	FrameCount                 uint64
}
