// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// counterValue returns the value of the named metric whose labels match.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if matchLabels(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matchLabels(m *dto.Metric, want map[string]string) bool {
	if len(m.GetLabel()) != len(want) {
		return false
	}
	for _, l := range m.GetLabel() {
		if want[l.GetName()] != l.GetValue() {
			return false
		}
	}
	return true
}

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	c.CacheDraw(ResultHit)
	c.CacheDraw(ResultHit)
	c.CacheDraw(ResultMiss)
	c.SubDraw("DONE")
	c.Allocation("vulkan", ResultOK)

	tests := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"uifirst_cache_draws_total", map[string]string{"result": ResultHit}, 2},
		{"uifirst_cache_draws_total", map[string]string{"result": ResultMiss}, 1},
		{"uifirst_subdraws_total", map[string]string{"status": "DONE"}, 1},
		{"uifirst_allocations_total", map[string]string{"backend": "vulkan", "result": ResultOK}, 1},
	}
	for _, tt := range tests {
		if got := counterValue(t, reg, tt.name, tt.labels); got != tt.want {
			t.Errorf("%s%v = %v, want %v", tt.name, tt.labels, got, tt.want)
		}
	}
}

func TestCollectorWaitHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	c.Wait(WaitCompleted, 3*time.Millisecond)
	c.Wait(WaitSkipped, 0)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var samples uint64
	for _, f := range families {
		if f.GetName() == "uifirst_wait_seconds" {
			samples = f.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	if samples != 1 {
		t.Errorf("wait_seconds samples = %d, want 1", samples)
	}
	if got := counterValue(t, reg, "uifirst_waits_total", map[string]string{"outcome": WaitSkipped}); got != 1 {
		t.Errorf("skipped waits = %v, want 1", got)
	}
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.CacheDraw(ResultHit)
	c.SubDraw("DONE")
	c.Wait(WaitTimedOut, time.Second)
	c.Allocation("gl", ResultError)
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewCollector(reg); err != nil {
		t.Fatalf("first NewCollector: %v", err)
	}
	if _, err := NewCollector(reg); err == nil {
		t.Error("second NewCollector on the same registry = nil error")
	}
}
