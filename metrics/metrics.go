// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package metrics instruments the sub-thread cache with Prometheus
// counters and histograms.
//
// Every method of *Collector is safe on a nil receiver, so components can
// take an optional collector without guarding each call.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Label values for Collector methods.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultFail  = "fail"
	ResultOK    = "ok"
	ResultError = "error"

	WaitSkipped   = "skipped"
	WaitCompleted = "completed"
	WaitTimedOut  = "timeout"
	WaitNoTask    = "no_task"
)

const namespace = "uifirst"

// Collector holds the cache metrics.
type Collector struct {
	cacheDraws  *prometheus.CounterVec
	subDraws    *prometheus.CounterVec
	waits       *prometheus.CounterVec
	allocations *prometheus.CounterVec
	waitSeconds prometheus.Histogram
}

// NewCollector creates the metrics and registers them with reg. A nil reg
// leaves them unregistered.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		cacheDraws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_draws_total",
			Help:      "Composites of a surface from its cache by result",
		}, []string{"result"}),
		subDraws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subdraws_total",
			Help:      "Finished worker tasks by terminal status",
		}, []string{"status"}),
		waits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waits_total",
			Help:      "Render thread waits on worker tasks by outcome",
		}, []string{"outcome"}),
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocations_total",
			Help:      "Cache surface allocations by backend and result",
		}, []string{"backend", "result"}),
		waitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wait_seconds",
			Help:      "Time the render thread spent blocked on a worker task",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms ~ 1s
		}),
	}
	if reg == nil {
		return c, nil
	}
	for _, m := range []prometheus.Collector{c.cacheDraws, c.subDraws, c.waits, c.allocations, c.waitSeconds} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// CacheDraw counts a composite from cache.
func (c *Collector) CacheDraw(result string) {
	if c == nil {
		return
	}
	c.cacheDraws.WithLabelValues(result).Inc()
}

// SubDraw counts a worker task reaching status.
func (c *Collector) SubDraw(status string) {
	if c == nil {
		return
	}
	c.subDraws.WithLabelValues(status).Inc()
}

// Wait records a render-thread wait and how long it blocked.
func (c *Collector) Wait(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.waits.WithLabelValues(outcome).Inc()
	if outcome != WaitSkipped {
		c.waitSeconds.Observe(d.Seconds())
	}
}

// Allocation counts a cache surface allocation.
func (c *Collector) Allocation(backend, result string) {
	if c == nil {
		return
	}
	c.allocations.WithLabelValues(backend, result).Inc()
}
