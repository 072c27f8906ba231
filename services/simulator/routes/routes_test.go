// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
	"github.com/AleutianAI/AleutianGhost/services/simulator/observability"
)

// ============================================================================
// Test Setup
// ============================================================================

func init() {
	gin.SetMode(gin.TestMode)
}

type mockEngine struct{}

func (mockEngine) Simulate(_ context.Context, _ ghost.SimulationRequest) (*ghost.SimulationResponse, error) {
	return &ghost.SimulationResponse{Success: true, Persona: "Secure"}, nil
}

func (mockEngine) Scan(string) []ghost.Breach { return []ghost.Breach{} }

func (mockEngine) Sample(context.Context) (ghost.StressSnapshot, error) {
	return ghost.StressSnapshot{CPUUsagePercent: 3}, nil
}

// ============================================================================
// SetupRoutes Tests
// ============================================================================

func TestSetupRoutes_RegistersAll(t *testing.T) {
	router := gin.New()
	reg := prometheus.NewRegistry()
	SetupRoutes(router, mockEngine{}, observability.NewGhostMetrics(reg), reg)

	expected := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"POST", "/v1/ghost/simulate"},
		{"POST", "/v1/ghost/breaches"},
		{"GET", "/v1/ghost/stress"},
		{"GET", "/v1/ghost/schema"},
	}

	registered := router.Routes()
	for _, want := range expected {
		found := false
		for _, r := range registered {
			if r.Method == want.method && r.Path == want.path {
				found = true
				break
			}
		}
		assert.True(t, found, "route %s %s not registered", want.method, want.path)
	}
}

func TestSetupRoutes_WithoutGatherer(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, mockEngine{}, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetupRoutes_MetricsExposeGhostCounters(t *testing.T) {
	router := gin.New()
	reg := prometheus.NewRegistry()
	SetupRoutes(router, mockEngine{}, observability.NewGhostMetrics(reg), reg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/ghost/simulate", strings.NewReader(`{"script":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `aleutian_ghost_requests_total{endpoint="simulate",status="success"} 1`)
}
