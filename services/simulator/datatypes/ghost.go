// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the wire types of the simulator HTTP API.
package datatypes

import (
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
)

// MaxScriptBytes caps the script size accepted over HTTP.
const MaxScriptBytes = 32 * 1024

// =============================================================================
// Shared Validator Instance
// =============================================================================

var ghostValidate *validator.Validate

func init() {
	ghostValidate = validator.New()
	_ = ghostValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes checks byte length, not rune count.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxScriptBytes
}

// =============================================================================
// Simulate
// =============================================================================

// SimulateRequest is the body of POST /v1/ghost/simulate.
//
// # Validation
//
// Only sizes are checked. An empty script, an unknown persona and an
// out-of-range intensity or load are all accepted; the engine falls back or
// clamps.
type SimulateRequest struct {
	Script         string `json:"script" validate:"maxbytes" jsonschema:"description=Message to simulate. May be empty."`
	PersonaType    string `json:"personaType" validate:"max=64" jsonschema:"description=Attachment persona label; unknown labels fall back to secure,example=avoidant"`
	IntensityLevel int    `json:"intensityLevel" jsonschema:"description=Emotional intensity; clamped to 0..100"`
	SystemLoad     *int   `json:"systemLoad,omitempty" jsonschema:"description=Caller-supplied load 0..100; sampled live when absent"`
}

// Validate applies the validator tags.
func (r *SimulateRequest) Validate() error {
	return ghostValidate.Struct(r)
}

// ToCore converts the wire request to the engine request.
func (r *SimulateRequest) ToCore() ghost.SimulationRequest {
	return ghost.SimulationRequest{
		Script:         r.Script,
		PersonaType:    r.PersonaType,
		IntensityLevel: r.IntensityLevel,
		SystemLoad:     r.SystemLoad,
	}
}

// SimulateResponse is the body returned by POST /v1/ghost/simulate.
type SimulateResponse struct {
	Success            bool           `json:"success"`
	Persona            string         `json:"persona"`
	IntensityLevel     int            `json:"intensityLevel"`
	ResonanceScore     int            `json:"resonanceScore"`
	GhostReply         string         `json:"ghostReply"`
	Flags              []string       `json:"flags"`
	Suggestions        []string       `json:"suggestions"`
	Breaches           []ghost.Breach `json:"breaches"`
	RiskScore          int            `json:"riskScore"`
	SessionID          string         `json:"sessionId"`
	SystemLoadStart    int            `json:"systemLoadStart"`
	SystemLoadEnd      int            `json:"systemLoadEnd"`
	DriftDelta         int            `json:"driftDelta"`
	DriftAlert         bool           `json:"driftAlert"`
	OverrideDeescalate bool           `json:"overrideDeescalate"`
}

// NewSimulateResponse converts an engine response. Nil slices become empty
// so the JSON carries [] rather than null.
func NewSimulateResponse(r *ghost.SimulationResponse) *SimulateResponse {
	return &SimulateResponse{
		Success:            r.Success,
		Persona:            r.Persona,
		IntensityLevel:     r.IntensityLevel,
		ResonanceScore:     r.ResonanceScore,
		GhostReply:         r.GhostReply,
		Flags:              nonNil(r.Flags),
		Suggestions:        nonNil(r.Suggestions),
		Breaches:           nonNilBreaches(r.Breaches),
		RiskScore:          r.RiskScore,
		SessionID:          r.SessionID,
		SystemLoadStart:    r.SystemLoadStart,
		SystemLoadEnd:      r.SystemLoadEnd,
		DriftDelta:         r.DriftDelta,
		DriftAlert:         r.DriftAlert,
		OverrideDeescalate: r.OverrideDeescalate,
	}
}

// =============================================================================
// Breaches
// =============================================================================

// BreachesRequest is the body of POST /v1/ghost/breaches.
type BreachesRequest struct {
	Script string `json:"script" validate:"maxbytes"`
}

// Validate applies the validator tags.
func (r *BreachesRequest) Validate() error {
	return ghostValidate.Struct(r)
}

// BreachesResponse lists breaches in taxonomy order.
type BreachesResponse struct {
	Breaches []ghost.Breach `json:"breaches"`
}

// =============================================================================
// Errors
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error        string `json:"error"`
	Details      string `json:"details,omitempty"`
	Collaborator string `json:"collaborator,omitempty"`
	Op           string `json:"op,omitempty"`
}

// =============================================================================
// Schema
// =============================================================================

// SimulateRequestSchema returns the JSON schema of SimulateRequest.
func SimulateRequestSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
	}
	s := r.Reflect(&SimulateRequest{})
	s.Title = "SimulateRequest"
	return s
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilBreaches(v []ghost.Breach) []ghost.Breach {
	if v == nil {
		return []ghost.Breach{}
	}
	return v
}
