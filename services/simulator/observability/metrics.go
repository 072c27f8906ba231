// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the simulator service.
//
// # Description
//
// Metrics include:
//   - Request counters (by endpoint and status)
//   - Simulation latency
//   - Risk and resonance score distributions
//   - Breach counts by kind
//   - Override de-escalations and drift alerts
//   - Collaborator failures
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
// Every Record method is a no-op on a nil *GhostMetrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

const (
	metricsNamespace = "aleutian"
	ghostSubsystem   = "ghost"
)

var scoreBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

// GhostMetrics holds all Prometheus metrics for the simulator.
type GhostMetrics struct {
	// RequestsTotal counts requests by endpoint and status.
	// Labels: endpoint (simulate, breaches, stress), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// SimulationDurationSeconds measures end-to-end Simulate latency,
	// including both stress readings.
	SimulationDurationSeconds prometheus.Histogram

	// RiskScore and ResonanceScore record the distribution of returned scores.
	RiskScore      prometheus.Histogram
	ResonanceScore prometheus.Histogram

	// BreachesTotal counts detected breaches.
	// Labels: kind
	BreachesTotal *prometheus.CounterVec

	// OverridesTotal counts simulations forced to the Secure persona.
	OverridesTotal prometheus.Counter

	// DriftAlertsTotal counts closed sessions whose delta raised an alert.
	DriftAlertsTotal prometheus.Counter

	// CollaboratorErrorsTotal counts collaborator failures.
	// Labels: collaborator, op
	CollaboratorErrorsTotal *prometheus.CounterVec
}

// NewGhostMetrics creates and registers all metrics on reg. A nil reg means
// the default Prometheus registerer.
//
// # Limitations
//
//   - Panics on duplicate registration, like promauto.
func NewGhostMetrics(reg prometheus.Registerer) *GhostMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &GhostMetrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: ghostSubsystem,
				Name:      "requests_total",
				Help:      "Total number of ghost requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		SimulationDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: ghostSubsystem,
				Name:      "simulation_duration_seconds",
				Help:      "Simulation latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),

		RiskScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: ghostSubsystem,
				Name:      "risk_score",
				Help:      "Distribution of returned risk scores",
				Buckets:   scoreBuckets,
			},
		),

		ResonanceScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: ghostSubsystem,
				Name:      "resonance_score",
				Help:      "Distribution of returned resonance scores",
				Buckets:   scoreBuckets,
			},
		),

		BreachesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: ghostSubsystem,
				Name:      "breaches_total",
				Help:      "Total communication breaches detected by kind",
			},
			[]string{"kind"},
		),

		OverridesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: ghostSubsystem,
				Name:      "override_deescalations_total",
				Help:      "Simulations forced to the Secure persona by high system load",
			},
		),

		DriftAlertsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: ghostSubsystem,
				Name:      "drift_alerts_total",
				Help:      "Drift sessions whose load delta raised an alert",
			},
		),

		CollaboratorErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: ghostSubsystem,
				Name:      "collaborator_errors_total",
				Help:      "Collaborator failures by collaborator and operation",
			},
			[]string{"collaborator", "op"},
		),
	}
}

// =============================================================================
// Endpoint Names
// =============================================================================

// Endpoint labels a request counter.
type Endpoint string

const (
	EndpointSimulate Endpoint = "simulate"
	EndpointBreaches Endpoint = "breaches"
	EndpointStress   Endpoint = "stress"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRequest records a completed request.
func (m *GhostMetrics) RecordRequest(endpoint Endpoint, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(string(endpoint), status).Inc()
}

// SimulationOutcome is the subset of a simulation result that is measured.
type SimulationOutcome struct {
	DurationSeconds float64
	RiskScore       int
	ResonanceScore  int
	BreachKinds     []string
	Override        bool
	DriftAlert      bool
}

// RecordSimulation records one successful simulation.
func (m *GhostMetrics) RecordSimulation(o SimulationOutcome) {
	if m == nil {
		return
	}
	m.SimulationDurationSeconds.Observe(o.DurationSeconds)
	m.RiskScore.Observe(float64(o.RiskScore))
	m.ResonanceScore.Observe(float64(o.ResonanceScore))
	m.RecordBreaches(o.BreachKinds)
	if o.Override {
		m.OverridesTotal.Inc()
	}
	if o.DriftAlert {
		m.DriftAlertsTotal.Inc()
	}
}

// RecordBreaches increments the breach counter once per kind occurrence.
func (m *GhostMetrics) RecordBreaches(kinds []string) {
	if m == nil {
		return
	}
	for _, k := range kinds {
		m.BreachesTotal.WithLabelValues(k).Inc()
	}
}

// RecordCollaboratorError records a collaborator failure.
func (m *GhostMetrics) RecordCollaboratorError(collaborator, op string) {
	if m == nil {
		return
	}
	m.CollaboratorErrorsTotal.WithLabelValues(collaborator, op).Inc()
}
