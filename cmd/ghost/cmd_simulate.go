// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AleutianAI/AleutianGhost/pkg/ux"
	"github.com/AleutianAI/AleutianGhost/services/ghost"
	"github.com/AleutianAI/AleutianGhost/services/ghost/drift"
	"github.com/AleutianAI/AleutianGhost/services/ghost/resonance"
	"github.com/AleutianAI/AleutianGhost/services/ghost/telemetry"
	"github.com/AleutianAI/AleutianGhost/services/simulator/datatypes"
)

type simulateFlags struct {
	file        string
	persona     string
	intensity   int
	load        int
	sampledLoad int
	asJSON      bool
	trace       bool
	interactive bool
}

func newSimulateCmd(a *app) *cobra.Command {
	var f simulateFlags

	cmd := &cobra.Command{
		Use:   "simulate [script...]",
		Short: "Run one simulation against the local engine",
		Long: `Scores the script, detects boundary breaches, estimates risk and
prints the persona's reply. System load is sampled from this machine unless
--load is given.`,
		Example: `  ghost simulate --persona avoidant --intensity 80 "You never listen to me"
  ghost simulate --file draft.txt --json
  ghost simulate -i`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSimulate(cmd, args, f)
		},
	}

	cmd.Flags().StringVarP(&f.file, "file", "f", "", `Read the script from a file ("-" for stdin)`)
	cmd.Flags().StringVarP(&f.persona, "persona", "p", "secure",
		"Persona: secure, avoidant, anxious or fearful-avoidant")
	cmd.Flags().IntVar(&f.intensity, "intensity", 50, "Emotional intensity, 0 to 100")
	cmd.Flags().IntVar(&f.load, "load", 0, "Use this start load instead of sampling, 0 to 100")
	cmd.Flags().IntVar(&f.sampledLoad, "sampled-load", -1,
		"Replace the host sampler with a fixed reading (negative keeps the host sampler)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print the API response body as JSON")
	cmd.Flags().BoolVar(&f.trace, "trace", false, "Print OpenTelemetry spans to stderr")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "Fill in the request with a form")

	return cmd
}

func (a *app) runSimulate(cmd *cobra.Command, args []string, f simulateFlags) error {
	script, err := readScript(cmd, f.file, args)
	if err != nil {
		return a.fail(cmd, err)
	}

	req := ghost.SimulationRequest{
		Script:         script,
		PersonaType:    f.persona,
		IntensityLevel: f.intensity,
	}
	if cmd.Flags().Changed("load") {
		load := f.load
		req.SystemLoad = &load
	}

	if f.interactive {
		if !ux.IsInteractive() {
			return a.fail(cmd, errors.New("--interactive needs a terminal"))
		}
		req, err = a.prompter.PromptSimulation(req)
		if err != nil {
			return a.fail(cmd, err)
		}
	}

	wire := datatypes.SimulateRequest{
		Script:         req.Script,
		PersonaType:    req.PersonaType,
		IntensityLevel: req.IntensityLevel,
		SystemLoad:     req.SystemLoad,
	}
	if err := wire.Validate(); err != nil {
		return a.fail(cmd, fmt.Errorf("invalid request: %w", err))
	}

	opts := []ghost.Option{ghost.WithLogger(slog.Default())}
	if f.trace {
		tp, err := newStdoutTracerProvider(cmd.ErrOrStderr())
		if err != nil {
			return a.fail(cmd, err)
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()
		opts = append(opts, ghost.WithTracer(tp.Tracer("aleutian.ghost")))
	}

	engine, err := a.localEngine(f.sampledLoad, opts...)
	if err != nil {
		return a.fail(cmd, err)
	}

	resp, err := engine.Simulate(cmd.Context(), wire.ToCore())
	if err != nil {
		return a.fail(cmd, err)
	}

	if f.asJSON {
		return writeJSON(cmd.OutOrStdout(), datatypes.NewSimulateResponse(resp))
	}
	a.printer(cmd).Simulation(resp)
	return nil
}

// localEngine wires the engine with the host (or fixed) sampler, the
// lexical analyzer and an in-memory drift tracker.
func (a *app) localEngine(sampledLoad int, opts ...ghost.Option) (*ghost.Simulator, error) {
	var sampler ghost.StressSampler
	if sampledLoad >= 0 {
		sampler = telemetry.NewFixedSampler(sampledLoad)
	} else {
		sampler = a.newSampler(a.cfg)
	}
	tracker := drift.NewMemoryTracker(drift.AlertPolicy{Threshold: a.cfg.Drift.AlertThreshold})
	return ghost.NewSimulator(sampler, resonance.NewLexicalAnalyzer(), tracker, opts...)
}

func newStdoutTracerProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)), nil
}
