// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ghost

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianGhost/pkg/logging"
)

const tracerName = "aleutian.ghost"

// Simulator sequences one request/response cycle across the collaborators.
//
// # Description
//
// A Simulator holds no per-call state. Each Simulate call takes two stress
// readings (unless the caller supplies the first) and one open/close pair on
// the DriftTracker; nothing else is mutated.
//
// # Thread Safety
//
// Safe for concurrent use when the injected collaborators are.
type Simulator struct {
	sampler  StressSampler
	analyzer ResonanceAnalyzer
	tracker  DriftTracker
	detector *BreachDetector
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer sets the tracer. The default comes from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Simulator) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithBreachDetector replaces the embedded-taxonomy detector.
func WithBreachDetector(d *BreachDetector) Option {
	return func(s *Simulator) {
		if d != nil {
			s.detector = d
		}
	}
}

// NewSimulator wires the collaborators into a Simulator.
//
// # Inputs
//
//   - sampler: live stress source, also used for the end-of-call reading
//   - analyzer: resonance scorer
//   - tracker: drift session store
//   - opts: optional logger, tracer and detector overrides
//
// # Outputs
//
//   - *Simulator: ready for concurrent use
//   - error: non-nil if any collaborator is nil
func NewSimulator(sampler StressSampler, analyzer ResonanceAnalyzer, tracker DriftTracker, opts ...Option) (*Simulator, error) {
	if sampler == nil {
		return nil, errors.New("ghost: stress sampler is required")
	}
	if analyzer == nil {
		return nil, errors.New("ghost: resonance analyzer is required")
	}
	if tracker == nil {
		return nil, errors.New("ghost: drift tracker is required")
	}
	s := &Simulator{
		sampler:  sampler,
		analyzer: analyzer,
		tracker:  tracker,
		detector: defaultDetector,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Simulate runs one simulation.
//
// # Description
//
// Steps, in order:
//  1. Clamp intensity to [0,100].
//  2. Use the caller's SystemLoad or take a stress reading, clamped.
//  3. Evaluate the override gate on that load.
//  4. Resolve the effective persona (Secure when overridden).
//  5. Analyze the script for the effective persona.
//  6. Detect breaches in the raw script.
//  7. Estimate risk.
//  8. Open a drift session at the load sample.
//  9. Take a second stress reading as the end load.
//  10. Close the drift session.
//  11. Select the scripted reply.
//  12. Assemble the response.
//
// # Outputs
//
//   - *SimulationResponse: fully populated on success
//   - error: a *CollaboratorError matching ErrCollaboratorUnavailable when a
//     collaborator fails; no partial response is returned
//
// # Limitations
//
//   - A drift session opened before a failing end reading is left to the
//     tracker's own expiry.
func (s *Simulator) Simulate(ctx context.Context, req SimulationRequest) (*SimulationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ghost.Simulate")
	defer span.End()
	logger := logging.LoggerWithTrace(ctx, s.logger)

	intensity := ClampPercent(req.IntensityLevel)

	var startLoad int
	if req.SystemLoad != nil {
		startLoad = ClampPercent(*req.SystemLoad)
	} else {
		snap, err := s.sampler.Sample(ctx)
		if err != nil {
			return nil, s.fail(span, logger, collaboratorErr(CollaboratorStressSampler, "sample_start", err))
		}
		startLoad = ClampPercent(snap.CPUUsagePercent)
	}

	override := ShouldOverride(startLoad)
	persona := PersonaSecure
	if !override {
		persona = ClassifyPersona(req.PersonaType)
	}

	analysis, err := s.analyzer.Analyze(ctx, req.Script, persona, nil)
	if err != nil {
		return nil, s.fail(span, logger, collaboratorErr(CollaboratorAnalyzer, "analyze", err))
	}
	score := ClampPercent(analysis.ResonanceScore)

	breaches := s.detector.Detect(req.Script)
	risk := EstimateRisk(score, intensity, len(breaches))

	sessionID, err := s.tracker.OpenSession(ctx, startLoad)
	if err != nil {
		return nil, s.fail(span, logger, collaboratorErr(CollaboratorDriftTracker, "open_session", err))
	}

	endSnap, err := s.sampler.Sample(ctx)
	if err != nil {
		return nil, s.fail(span, logger, collaboratorErr(CollaboratorStressSampler, "sample_end", err))
	}

	drift, err := s.tracker.CloseSession(ctx, sessionID, ClampPercent(endSnap.CPUUsagePercent))
	if err != nil {
		return nil, s.fail(span, logger, collaboratorErr(CollaboratorDriftTracker, "close_session", err))
	}

	reply := SelectReply(persona, score, intensity)

	span.SetAttributes(
		attribute.String("ghost.persona", persona.Key()),
		attribute.Bool("ghost.override", override),
		attribute.Int("ghost.resonance_score", score),
		attribute.Int("ghost.risk_score", risk),
		attribute.Int("ghost.breaches", len(breaches)),
		attribute.Int("ghost.drift_delta", drift.Delta),
	)

	if override {
		logger.Info("override de-escalation applied",
			"requested_persona", req.PersonaType,
			"system_load", startLoad)
	}
	logger.Debug("simulation complete",
		"session_id", drift.SessionID,
		"persona", persona.Label(),
		"resonance_score", score,
		"risk_score", risk,
		"breaches", len(breaches),
		"drift_delta", drift.Delta,
		"drift_alert", drift.Alert)

	return &SimulationResponse{
		Success:            true,
		Persona:            persona.Label(),
		IntensityLevel:     intensity,
		ResonanceScore:     score,
		GhostReply:         reply,
		Flags:              analysis.Flags,
		Suggestions:        analysis.Suggestions,
		Breaches:           breaches,
		RiskScore:          risk,
		SessionID:          drift.SessionID,
		SystemLoadStart:    ClampPercent(drift.StartLoad),
		SystemLoadEnd:      ClampPercent(drift.EndLoad),
		DriftDelta:         drift.Delta,
		DriftAlert:         drift.Alert,
		OverrideDeescalate: override,
	}, nil
}

// Scan runs only the breach detector, for callers that highlight text.
func (s *Simulator) Scan(script string) []Breach {
	return s.detector.Detect(script)
}

// Sample returns one stress snapshot with the CPU figure clamped.
func (s *Simulator) Sample(ctx context.Context) (StressSnapshot, error) {
	snap, err := s.sampler.Sample(ctx)
	if err != nil {
		return StressSnapshot{}, collaboratorErr(CollaboratorStressSampler, "sample", err)
	}
	snap.CPUUsagePercent = ClampPercent(snap.CPUUsagePercent)
	return snap, nil
}

func (s *Simulator) fail(span trace.Span, logger *slog.Logger, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	logger.Error("simulation failed", "error", err)
	return err
}
