// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import "sync/atomic"

// Releaser is a reference-counted cleanup helper for a native image.
// It starts with one reference; the release function runs exactly once,
// when the last reference is dropped.
type Releaser struct {
	refs    atomic.Int32
	release func()
}

// NewReleaser returns a Releaser holding one reference.
func NewReleaser(release func()) *Releaser {
	r := &Releaser{release: release}
	r.refs.Store(1)
	return r
}

// Ref adds a reference and returns r. Ref on a released helper is a no-op
// and returns nil.
func (r *Releaser) Ref() *Releaser {
	if r == nil {
		return nil
	}
	for {
		n := r.refs.Load()
		if n <= 0 {
			return nil
		}
		if r.refs.CompareAndSwap(n, n+1) {
			return r
		}
	}
}

// Unref drops a reference, running the release function on the last one.
func (r *Releaser) Unref() {
	if r == nil {
		return
	}
	if r.refs.Add(-1) == 0 && r.release != nil {
		r.release()
	}
}

// Released reports whether the release function has run.
func (r *Releaser) Released() bool {
	return r == nil || r.refs.Load() <= 0
}
