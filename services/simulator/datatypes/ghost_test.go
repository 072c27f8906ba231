// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
)

func TestSimulateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     SimulateRequest
		wantErr bool
	}{
		{"empty is allowed", SimulateRequest{}, false},
		{"out of range numbers are allowed", SimulateRequest{Script: "hi", IntensityLevel: 900}, false},
		{"script at limit", SimulateRequest{Script: strings.Repeat("a", MaxScriptBytes)}, false},
		{"script over limit", SimulateRequest{Script: strings.Repeat("a", MaxScriptBytes+1)}, true},
		{"persona too long", SimulateRequest{PersonaType: strings.Repeat("x", 65)}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSimulateRequest_DecodesCamelCase(t *testing.T) {
	body := `{"script":"You always ignore me","personaType":"avoidant","intensityLevel":75,"systemLoad":50}`
	var req SimulateRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	core := req.ToCore()
	assert.Equal(t, "You always ignore me", core.Script)
	assert.Equal(t, "avoidant", core.PersonaType)
	assert.Equal(t, 75, core.IntensityLevel)
	require.NotNil(t, core.SystemLoad)
	assert.Equal(t, 50, *core.SystemLoad)

	var noLoad SimulateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"script":"x"}`), &noLoad))
	assert.Nil(t, noLoad.ToCore().SystemLoad)
}

func TestNewSimulateResponse_WireKeys(t *testing.T) {
	resp := NewSimulateResponse(&ghost.SimulationResponse{
		Success:  true,
		Persona:  "Secure",
		Breaches: nil,
	})
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{
		"success", "persona", "intensityLevel", "resonanceScore", "ghostReply",
		"flags", "suggestions", "breaches", "riskScore", "sessionId",
		"systemLoadStart", "systemLoadEnd", "driftDelta", "driftAlert", "overrideDeescalate",
	} {
		assert.Contains(t, m, key)
	}
	assert.Len(t, m, 15)
	assert.Equal(t, []any{}, m["breaches"])
	assert.Equal(t, []any{}, m["flags"])
}

func TestSimulateRequestSchema(t *testing.T) {
	s := SimulateRequestSchema()
	require.NotNil(t, s)
	assert.Equal(t, "SimulateRequest", s.Title)

	for _, name := range []string{"script", "personaType", "intensityLevel", "systemLoad"} {
		_, ok := s.Properties.Get(name)
		assert.True(t, ok, "schema missing %s", name)
	}
	assert.NotContains(t, s.Required, "systemLoad")
	assert.Contains(t, s.Required, "script")

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "clamped to 0..100")
}
