// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the gin handlers of the simulator service.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
	"github.com/AleutianAI/AleutianGhost/services/simulator/datatypes"
	"github.com/AleutianAI/AleutianGhost/services/simulator/observability"
)

var ghostTracer = otel.Tracer("aleutian.simulator.handlers")

// Engine is the part of *ghost.Simulator the handlers need.
type Engine interface {
	Simulate(ctx context.Context, req ghost.SimulationRequest) (*ghost.SimulationResponse, error)
	Scan(script string) []ghost.Breach
	Sample(ctx context.Context) (ghost.StressSnapshot, error)
}

// HandleSimulate serves POST /v1/ghost/simulate.
//
// # Description
//
// Binds and validates the body, runs one simulation and returns the full
// response. Collaborator failures map to 503, malformed input to 400.
//
// # Inputs
//
//   - engine: simulation engine
//   - metrics: may be nil
func HandleSimulate(engine Engine, metrics *observability.GhostMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := ghostTracer.Start(c.Request.Context(), "HandleSimulate")
		defer span.End()

		var req datatypes.SimulateRequest
		if !bindAndValidate(c, span, &req, req.Validate) {
			metrics.RecordRequest(observability.EndpointSimulate, false)
			return
		}

		start := time.Now()
		resp, err := engine.Simulate(ctx, req.ToCore())
		if err != nil {
			metrics.RecordRequest(observability.EndpointSimulate, false)
			writeEngineError(c, span, metrics, err)
			return
		}

		metrics.RecordRequest(observability.EndpointSimulate, true)
		metrics.RecordSimulation(observability.SimulationOutcome{
			DurationSeconds: time.Since(start).Seconds(),
			RiskScore:       resp.RiskScore,
			ResonanceScore:  resp.ResonanceScore,
			BreachKinds:     breachKinds(resp.Breaches),
			Override:        resp.OverrideDeescalate,
			DriftAlert:      resp.DriftAlert,
		})
		span.SetAttributes(attribute.String("ghost.session_id", resp.SessionID))

		c.JSON(http.StatusOK, datatypes.NewSimulateResponse(resp))
	}
}

// HandleBreaches serves POST /v1/ghost/breaches.
func HandleBreaches(engine Engine, metrics *observability.GhostMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := ghostTracer.Start(c.Request.Context(), "HandleBreaches")
		defer span.End()

		var req datatypes.BreachesRequest
		if !bindAndValidate(c, span, &req, req.Validate) {
			metrics.RecordRequest(observability.EndpointBreaches, false)
			return
		}

		breaches := engine.Scan(req.Script)
		metrics.RecordRequest(observability.EndpointBreaches, true)
		metrics.RecordBreaches(breachKinds(breaches))
		c.JSON(http.StatusOK, datatypes.BreachesResponse{Breaches: breaches})
	}
}

// HandleStress serves GET /v1/ghost/stress.
func HandleStress(engine Engine, metrics *observability.GhostMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := ghostTracer.Start(c.Request.Context(), "HandleStress")
		defer span.End()

		snap, err := engine.Sample(ctx)
		if err != nil {
			metrics.RecordRequest(observability.EndpointStress, false)
			writeEngineError(c, span, metrics, err)
			return
		}
		metrics.RecordRequest(observability.EndpointStress, true)
		c.JSON(http.StatusOK, snap)
	}
}

// HandleSchema serves GET /v1/ghost/schema.
func HandleSchema() gin.HandlerFunc {
	schema := datatypes.SimulateRequestSchema()
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, schema)
	}
}

// HealthCheck serves GET /health.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bindAndValidate writes a 400 and returns false when the body is not
// acceptable. validate runs after binding, so it sees the bound value.
func bindAndValidate(c *gin.Context, span trace.Span, dst any, validate func() error) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("Failed to parse the ghost request", "error", err)
		c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body"})
		return false
	}
	if err := validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "validation failed", Details: err.Error()})
		return false
	}
	return true
}

func writeEngineError(c *gin.Context, span trace.Span, metrics *observability.GhostMetrics, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var ce *ghost.CollaboratorError
	if errors.As(err, &ce) {
		metrics.RecordCollaboratorError(ce.Collaborator, ce.Op)
		slog.Error("Ghost collaborator unavailable",
			"collaborator", ce.Collaborator,
			"op", ce.Op,
			"error", ce.Err)
		c.JSON(http.StatusServiceUnavailable, datatypes.ErrorResponse{
			Error:        ghost.ErrCollaboratorUnavailable.Error(),
			Collaborator: ce.Collaborator,
			Op:           ce.Op,
		})
		return
	}

	slog.Error("Ghost request failed", "error", err)
	c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: "internal error"})
}

func breachKinds(breaches []ghost.Breach) []string {
	kinds := make([]string, len(breaches))
	for i, b := range breaches {
		kinds[i] = b.Kind
	}
	return kinds
}

var _ Engine = (*ghost.Simulator)(nil)
