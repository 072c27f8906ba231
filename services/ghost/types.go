// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ghost implements the Relational Ghost: a deterministic conversation
// simulator that answers a user's message in the voice of an attachment persona.
//
// # Description
//
// A single simulation detects communication-style breaches in the script,
// asks a ResonanceAnalyzer how well the script aligns with a non-violent
// communication pattern, derives a bounded risk score, picks a scripted reply
// from a fixed persona decision table and correlates the call with a live
// stress signal. When the sampled stress is already high the requested persona
// is overridden with Secure.
//
// # Collaborators
//
// Everything with side effects is injected:
//   - StressSampler: coarse CPU / temperature snapshot
//   - ResonanceAnalyzer: alignment score plus flags and suggestions
//   - DriftTracker: opens and closes a stress drift session
//
// # Thread Safety
//
// The pure functions (ClassifyPersona, DetectBreaches, EstimateRisk,
// ShouldOverride, SelectReply) share no mutable state. A Simulator is safe
// for concurrent use as long as its collaborators are.
package ghost

// SimulationRequest is one simulation call as supplied by the caller.
//
// Script may be empty or carry surrounding whitespace. IntensityLevel is not
// range checked by the caller and is clamped by the Simulator. A nil
// SystemLoad means the Simulator samples live telemetry instead.
type SimulationRequest struct {
	Script         string
	PersonaType    string
	IntensityLevel int
	SystemLoad     *int
}

// Breach is one matched communication-style violation.
type Breach struct {
	Kind    string `json:"kind"`
	Needle  string `json:"needle"`
	Message string `json:"message"`
}

// StressSnapshot is a coarse reading of environmental stress.
type StressSnapshot struct {
	// CPUUsagePercent is in [0,100].
	CPUUsagePercent int `json:"cpuUsagePercent"`

	// TemperatureC is best-effort and nil when the platform exposes no sensors.
	TemperatureC *float64 `json:"temperatureC,omitempty"`
}

// Analysis is the ResonanceAnalyzer result for one script.
type Analysis struct {
	ResonanceScore int
	Flags          []string
	Suggestions    []string
}

// DriftRecord is the closed drift session returned by a DriftTracker.
type DriftRecord struct {
	SessionID string
	StartLoad int
	EndLoad   int
	Delta     int
	Alert     bool
}

// SimulationResponse is the fully populated result of a simulation.
type SimulationResponse struct {
	Success            bool
	Persona            string
	IntensityLevel     int
	ResonanceScore     int
	GhostReply         string
	Flags              []string
	Suggestions        []string
	Breaches           []Breach
	RiskScore          int
	SessionID          string
	SystemLoadStart    int
	SystemLoadEnd      int
	DriftDelta         int
	DriftAlert         bool
	OverrideDeescalate bool
}

// ClampPercent bounds v to [0,100].
func ClampPercent(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
