// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package subthread

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Notifier wakes render-thread waiters when a cache task finishes.
//
// Status changes that end a task are applied under the notifier's lock and
// followed by a broadcast. WAITING -> DOING is stored without notifying:
// waiters only care about terminal states.
type Notifier struct {
	mu sync.Mutex
	ch chan struct{}
}

// NewNotifier returns a notifier with no waiters.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{})}
}

// NotifyAll runs update under the lock and wakes every waiter.
func (n *Notifier) NotifyAll(update func()) {
	n.mu.Lock()
	if update != nil {
		update()
	}
	close(n.ch)
	n.ch = make(chan struct{})
	n.mu.Unlock()
}

// Wait blocks until done reports true, the timeout passes on clk, or ctx is
// cancelled. It returns done's final answer. done is evaluated under the
// lock, so it observes every update applied by NotifyAll.
func (n *Notifier) Wait(ctx context.Context, clk clock.Clock, timeout time.Duration, done func() bool) bool {
	n.mu.Lock()
	if done() {
		n.mu.Unlock()
		return true
	}
	ch := n.ch
	n.mu.Unlock()

	timer := clk.Timer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ch:
		case <-timer.C:
			return n.check(done)
		case <-ctx.Done():
			return n.check(done)
		}
		n.mu.Lock()
		if done() {
			n.mu.Unlock()
			return true
		}
		ch = n.ch
		n.mu.Unlock()
	}
}

func (n *Notifier) check(done func() bool) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return done()
}
