// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the ledger
// service.
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting. All metric operations are
// thread-safe via Prometheus's internal locking.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "holoroster"

// Subsystem for ledger metrics
const ledgerSubsystem = "ledger"

// LedgerMetrics holds all Prometheus metrics for roster operations.
//
// Initialize once at startup via InitMetrics().
type LedgerMetrics struct {
	// MutationsTotal counts mutation requests by operation and outcome.
	// Labels: operation (assign, unassign, promote), status (success, error)
	MutationsTotal *prometheus.CounterVec

	// MutationDurationSeconds measures mutation handler latency.
	// Labels: operation (assign, unassign, promote)
	MutationDurationSeconds *prometheus.HistogramVec

	// RosterSize tracks the number of members by role.
	// Labels: role (master, apprentice)
	RosterSize *prometheus.GaugeVec

	// AssignmentsActive tracks the number of active master/apprentice
	// pairs.
	AssignmentsActive prometheus.Gauge

	// EventSubscribers tracks connected websocket subscribers.
	EventSubscribers prometheus.Gauge
}

// DefaultMetrics is the singleton instance of LedgerMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *LedgerMetrics

var initOnce sync.Once

// InitMetrics initializes the default metrics instance. Safe to call
// more than once; registration happens on the first call only.
func InitMetrics() *LedgerMetrics {
	initOnce.Do(func() {
		DefaultMetrics = &LedgerMetrics{
			MutationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: ledgerSubsystem,
					Name:      "mutations_total",
					Help:      "Total number of mutation requests by operation and status",
				},
				[]string{"operation", "status"},
			),
			MutationDurationSeconds: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: metricsNamespace,
					Subsystem: ledgerSubsystem,
					Name:      "mutation_duration_seconds",
					Help:      "Latency of mutation handlers in seconds",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"operation"},
			),
			RosterSize: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: metricsNamespace,
					Subsystem: ledgerSubsystem,
					Name:      "roster_size",
					Help:      "Number of roster members by role",
				},
				[]string{"role"},
			),
			AssignmentsActive: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: metricsNamespace,
					Subsystem: ledgerSubsystem,
					Name:      "assignments_active",
					Help:      "Number of active master/apprentice pairs",
				},
			),
			EventSubscribers: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: metricsNamespace,
					Subsystem: ledgerSubsystem,
					Name:      "event_subscribers",
					Help:      "Number of connected websocket event subscribers",
				},
			),
		}
	})
	return DefaultMetrics
}
