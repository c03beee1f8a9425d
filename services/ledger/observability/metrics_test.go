// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// newTestMetrics creates a LedgerMetrics instance with a custom registry.
// This avoids conflicts with the global Prometheus registry.
func newTestMetrics(t *testing.T) *LedgerMetrics {
	t.Helper()

	reg := prometheus.NewRegistry()

	mutationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: ledgerSubsystem,
			Name:      "mutations_total",
			Help:      "Total number of mutation requests by operation and status",
		},
		[]string{"operation", "status"},
	)

	mutationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: ledgerSubsystem,
			Name:      "mutation_duration_seconds",
			Help:      "Latency of mutation handlers in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	rosterSize := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: ledgerSubsystem,
			Name:      "roster_size",
			Help:      "Number of roster members by role",
		},
		[]string{"role"},
	)

	assignmentsActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: ledgerSubsystem,
			Name:      "assignments_active",
			Help:      "Number of active master/apprentice pairs",
		},
	)

	eventSubscribers := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: ledgerSubsystem,
			Name:      "event_subscribers",
			Help:      "Number of connected websocket event subscribers",
		},
	)

	reg.MustRegister(mutationsTotal, mutationDuration, rosterSize,
		assignmentsActive, eventSubscribers)

	return &LedgerMetrics{
		MutationsTotal:          mutationsTotal,
		MutationDurationSeconds: mutationDuration,
		RosterSize:              rosterSize,
		AssignmentsActive:       assignmentsActive,
		EventSubscribers:        eventSubscribers,
	}
}

func TestMutationsTotalLabels(t *testing.T) {
	m := newTestMetrics(t)

	m.MutationsTotal.WithLabelValues("assign", "success").Inc()
	m.MutationsTotal.WithLabelValues("assign", "success").Inc()
	m.MutationsTotal.WithLabelValues("promote", "error").Inc()

	got := testutil.ToFloat64(m.MutationsTotal.WithLabelValues("assign", "success"))
	if got != 2 {
		t.Errorf("assign success = %v, want 2", got)
	}
	got = testutil.ToFloat64(m.MutationsTotal.WithLabelValues("promote", "error"))
	if got != 1 {
		t.Errorf("promote error = %v, want 1", got)
	}
}

func TestGaugesTrackState(t *testing.T) {
	m := newTestMetrics(t)

	m.RosterSize.WithLabelValues("master").Set(4)
	m.RosterSize.WithLabelValues("apprentice").Set(12)
	m.AssignmentsActive.Set(3)
	m.EventSubscribers.Inc()
	m.EventSubscribers.Inc()
	m.EventSubscribers.Dec()

	if got := testutil.ToFloat64(m.RosterSize.WithLabelValues("master")); got != 4 {
		t.Errorf("master roster size = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.AssignmentsActive); got != 3 {
		t.Errorf("assignments active = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.EventSubscribers); got != 1 {
		t.Errorf("event subscribers = %v, want 1", got)
	}
}

func TestInitMetricsIdempotent(t *testing.T) {
	first := InitMetrics()
	second := InitMetrics()
	if first != second {
		t.Error("InitMetrics returned different instances")
	}
}
