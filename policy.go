package uifirst

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidPolicy is returned when a loaded policy fails validation.
var ErrInvalidPolicy = errors.New("uifirst: invalid policy")

// Policy holds the tunable heuristics of the sub-thread cache.
type Policy struct {
	// WaitTimeoutMS bounds how long the render thread blocks on a worker.
	WaitTimeoutMS int64 `toml:"wait_timeout_ms"`
	// ScaleTolerance is the aspect ratio difference under which cache images
	// are scaled uniformly instead of through the gravity matrix.
	ScaleTolerance float64 `toml:"scale_tolerance"`
	// HistoryWindow is how many unconsumed history frames feed a sub draw.
	HistoryWindow int `toml:"history_window"`
	// DirtyEnabled turns on partial redraw of cache surfaces.
	DirtyEnabled bool `toml:"dirty_enabled"`
	// DebugEnabled draws diagnostic overlays over cached content.
	DebugEnabled bool `toml:"debug_enabled"`
	// WaitOnTranslucentStarting makes the render thread wait for the cache
	// while a starting window is still fading in.
	WaitOnTranslucentStarting bool `toml:"wait_on_translucent_starting"`
	// OpaqueAlpha is the alpha at which a starting window counts as opaque.
	OpaqueAlpha float64 `toml:"opaque_alpha"`
	// Workers is the number of sub threads.
	Workers int `toml:"workers"`
	// ClearResThreshold is the number of idle frames before a worker
	// releases reclaimed surfaces.
	ClearResThreshold int `toml:"clear_res_threshold"`
	// StencilCulling enables stencil-masked composition of cache images.
	StencilCulling bool `toml:"stencil_culling"`
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() Policy {
	return Policy{
		WaitTimeoutMS:             500,
		ScaleTolerance:            DefaultScaleTolerance,
		HistoryWindow:             2,
		DirtyEnabled:              true,
		WaitOnTranslucentStarting: true,
		OpaqueAlpha:               1.0,
		Workers:                   3,
		ClearResThreshold:         3,
	}
}

// WaitTimeout returns WaitTimeoutMS as a duration.
func (p Policy) WaitTimeout() time.Duration {
	return time.Duration(p.WaitTimeoutMS) * time.Millisecond
}

// Validate checks that every field is in range.
func (p Policy) Validate() error {
	switch {
	case p.WaitTimeoutMS <= 0:
		return fmt.Errorf("%w: wait_timeout_ms=%d", ErrInvalidPolicy, p.WaitTimeoutMS)
	case p.ScaleTolerance < 0:
		return fmt.Errorf("%w: scale_tolerance=%g", ErrInvalidPolicy, p.ScaleTolerance)
	case p.HistoryWindow < 1:
		return fmt.Errorf("%w: history_window=%d", ErrInvalidPolicy, p.HistoryWindow)
	case p.OpaqueAlpha <= 0 || p.OpaqueAlpha > 1:
		return fmt.Errorf("%w: opaque_alpha=%g", ErrInvalidPolicy, p.OpaqueAlpha)
	case p.Workers < 1:
		return fmt.Errorf("%w: workers=%d", ErrInvalidPolicy, p.Workers)
	case p.ClearResThreshold < 0:
		return fmt.Errorf("%w: clear_res_threshold=%d", ErrInvalidPolicy, p.ClearResThreshold)
	}
	return nil
}

// LoadPolicy reads a TOML policy from r. Keys that are absent keep their
// default value; unknown keys are rejected.
func LoadPolicy(r io.Reader) (Policy, error) {
	p := DefaultPolicy()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Policy{}, fmt.Errorf("uifirst: decode policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}
