package uifirst

import "math"

// Gravity describes how content of one size is placed into a frame of
// another size.
type Gravity uint8

const (
	GravityCenter Gravity = iota
	GravityTop
	GravityBottom
	GravityLeft
	GravityRight
	GravityTopLeft
	GravityTopRight
	GravityBottomLeft
	GravityBottomRight
	// GravityResize stretches content to fill the frame.
	GravityResize
	// GravityResizeAspect scales uniformly to fit inside the frame, centered.
	GravityResizeAspect
	// GravityResizeAspectFill scales uniformly to cover the frame, centered.
	GravityResizeAspectFill
)

var gravityNames = [...]string{
	"center", "top", "bottom", "left", "right",
	"top-left", "top-right", "bottom-left", "bottom-right",
	"resize", "resize-aspect", "resize-aspect-fill",
}

func (g Gravity) String() string {
	if int(g) < len(gravityNames) {
		return gravityNames[g]
	}
	return "unknown"
}

// GravityMatrix returns the transform that places content of size w x h
// into frame according to g. It reports false for empty content or frame.
func GravityMatrix(g Gravity, frame RectF, w, h float64) (Matrix, bool) {
	fw, fh := frame.Width(), frame.Height()
	if w <= 0 || h <= 0 || fw <= 0 || fh <= 0 {
		return Identity(), false
	}

	sx, sy := 1.0, 1.0
	switch g {
	case GravityResize:
		sx, sy = fw/w, fh/h
	case GravityResizeAspect:
		s := math.Min(fw/w, fh/h)
		sx, sy = s, s
	case GravityResizeAspectFill:
		s := math.Max(fw/w, fh/h)
		sx, sy = s, s
	}
	cw, ch := w*sx, h*sy

	var tx, ty float64
	switch g {
	case GravityTopLeft:
	case GravityTop:
		tx = (fw - cw) / 2
	case GravityBottom:
		tx, ty = (fw-cw)/2, fh-ch
	case GravityLeft:
		ty = (fh - ch) / 2
	case GravityRight:
		tx, ty = fw-cw, (fh-ch)/2
	case GravityTopRight:
		tx = fw - cw
	case GravityBottomLeft:
		ty = fh - ch
	case GravityBottomRight:
		tx, ty = fw-cw, fh-ch
	default:
		tx, ty = (fw-cw)/2, (fh-ch)/2
	}
	return Matrix{
		A: sx, B: 0, C: frame.Left + tx,
		D: 0, E: sy, F: frame.Top + ty,
	}, true
}

// DefaultScaleTolerance is the aspect difference below which a cached image
// is scaled by its plain size ratio instead of the gravity matrix.
const DefaultScaleTolerance = 0.01

// CacheScale picks the scale and translation used to draw an imgW x imgH
// cache image into a boundW x boundH destination. When both axis ratios
// agree within tolerance the plain ratios are used with no translation;
// otherwise the components of the gravity matrix apply.
func CacheScale(imgW, imgH, boundW, boundH float64, gravity Matrix, tolerance float64) (sx, sy, tx, ty float64) {
	if imgW <= 0 || imgH <= 0 {
		return 1, 1, 0, 0
	}
	rw, rh := boundW/imgW, boundH/imgH
	if math.Abs(rw-rh) < tolerance {
		return rw, rh, 0, 0
	}
	return gravity.ScaleX(), gravity.ScaleY(), gravity.TransX(), gravity.TransY()
}
