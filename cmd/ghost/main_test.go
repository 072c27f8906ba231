// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianGhost/pkg/logging"
	"github.com/AleutianAI/AleutianGhost/services/ghost"
	"github.com/AleutianAI/AleutianGhost/services/ghost/telemetry"
	"github.com/AleutianAI/AleutianGhost/services/simulator/datatypes"
)

// ============================================================================
// Test Harness
// ============================================================================

const hostileScript = "You always ignore me and you should apologize"

func newTestApp(load int) *app {
	a := newApp()
	a.newSampler = func(ghostConfig) ghost.StressSampler {
		return telemetry.NewFixedSampler(load)
	}
	return a
}

func execute(t *testing.T, a *app, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(a)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// ============================================================================
// simulate
// ============================================================================

func TestSimulate_MachineOutput(t *testing.T) {
	out, _, err := execute(t, newTestApp(30), nil,
		"--personality", "machine", "simulate",
		"--persona", "avoidant", "--intensity", "80", hostileScript)
	require.NoError(t, err)

	assert.Contains(t, out, "persona=Dismissive-Avoidant\n")
	assert.Contains(t, out, "risk=100\n")
	assert.Contains(t, out, "breaches=absolute,directive\n")
	assert.Contains(t, out, "load_start=30\n")
	assert.Contains(t, out, "drift=0\n")
	assert.Contains(t, out, "override=false\n")
}

func TestSimulate_JSON(t *testing.T) {
	out, _, err := execute(t, newTestApp(30), nil,
		"simulate", "--json", "--persona", "anxious", "--intensity", "20",
		"I feel lonely when we skip dinner because I need connection. Would you be willing to eat together tonight?")
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Anxious-Preoccupied", body["persona"])
	assert.Equal(t, []any{}, body["breaches"])
	assert.EqualValues(t, 30, body["systemLoadStart"])
	assert.NotEmpty(t, body["sessionId"])
	assert.NotEmpty(t, body["ghostReply"])
}

func TestSimulate_LoadFlagTriggersOverride(t *testing.T) {
	out, _, err := execute(t, newTestApp(10), nil,
		"--personality", "machine", "simulate",
		"--persona", "fearful-avoidant", "--load", "90", "hello")
	require.NoError(t, err)

	assert.Contains(t, out, "persona=Secure\n")
	assert.Contains(t, out, "override=true\n")
	assert.Contains(t, out, "load_start=90\n")
	assert.Contains(t, out, "load_end=10\n")
	assert.Contains(t, out, "drift=-80\n")
}

func TestSimulate_SampledLoadFlag(t *testing.T) {
	out, _, err := execute(t, newTestApp(10), nil,
		"--personality", "machine", "simulate", "--sampled-load", "95", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "override=true\n")
}

func TestSimulate_ScriptFromStdin(t *testing.T) {
	out, _, err := execute(t, newTestApp(30), strings.NewReader("you never call"),
		"--personality", "machine", "simulate", "--file", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "breaches=absolute\n")
}

func TestSimulate_ScriptFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.txt")
	require.NoError(t, os.WriteFile(path, []byte("it is your fault"), 0600))

	out, _, err := execute(t, newTestApp(30), nil,
		"--personality", "machine", "simulate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "breaches=blame\n")
}

func TestSimulate_FileAndArgsConflict(t *testing.T) {
	_, stderr, err := execute(t, newTestApp(30), nil,
		"--personality", "machine", "simulate", "--file", "-", "extra")
	require.Error(t, err)
	assert.Contains(t, stderr, "not both")
}

func TestSimulate_OversizedScript(t *testing.T) {
	big := strings.Repeat("a", datatypes.MaxScriptBytes+10)
	_, _, err := execute(t, newTestApp(30), strings.NewReader(big),
		"--personality", "machine", "simulate", "--file", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid request")
}

func TestSimulate_TraceWritesSpans(t *testing.T) {
	_, stderr, err := execute(t, newTestApp(30), nil,
		"--personality", "machine", "simulate", "--trace", "hello")
	require.NoError(t, err)
	assert.Contains(t, stderr, "ghost.Simulate")
}

func TestSimulate_InteractiveNeedsTerminal(t *testing.T) {
	_, _, err := execute(t, newTestApp(30), nil,
		"--personality", "machine", "simulate", "-i")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a terminal")
}

// ============================================================================
// scan / stress / schema
// ============================================================================

func TestScan_JSON(t *testing.T) {
	out, _, err := execute(t, newTestApp(0), nil, "scan", "--json", hostileScript)
	require.NoError(t, err)

	var body datatypes.BreachesResponse
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	require.Len(t, body.Breaches, 2)
	assert.Equal(t, "absolute", body.Breaches[0].Kind)
	assert.Equal(t, "directive", body.Breaches[1].Kind)
}

func TestScan_EmptyJSON(t *testing.T) {
	out, _, err := execute(t, newTestApp(0), nil, "scan", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"breaches":[]}`, out)
}

func TestScan_Machine(t *testing.T) {
	out, _, err := execute(t, newTestApp(0), nil, "--personality", "machine", "scan", "you never")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "absolute\tnever\t"), out)
}

func TestStress_Machine(t *testing.T) {
	out, _, err := execute(t, newTestApp(42), nil, "--personality", "machine", "stress")
	require.NoError(t, err)
	assert.Equal(t, "cpu=42\n", out)
}

func TestStress_JSON(t *testing.T) {
	out, _, err := execute(t, newTestApp(42), nil, "stress", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"cpuUsagePercent":42}`, out)
}

func TestSchema(t *testing.T) {
	out, _, err := execute(t, newTestApp(0), nil, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "SimulateRequest"`)
	assert.Contains(t, out, `"personaType"`)
}

// ============================================================================
// Configuration
// ============================================================================

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ghost.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
server:
  port: 9000
  cors_origins: ["http://localhost:3000"]
drift:
  backend: badger
  alert_threshold: 5
  session_ttl: 2m
  badger:
    path: /tmp/ghost-drift
`)
	t.Setenv("GHOST_SERVER_RATE_LIMIT_PER_MINUTE", "7")

	v, err := newViper(path)
	require.NoError(t, err)
	cfg, err := loadConfig(v)
	require.NoError(t, err)

	svc := cfg.serviceConfig()
	assert.Equal(t, 9000, svc.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, svc.CORSOrigins)
	assert.Equal(t, 7, svc.RateLimitPerMinute)
	assert.Equal(t, 20, svc.RateLimitBurst)
	assert.Equal(t, "badger", svc.Drift.Backend)
	assert.Equal(t, 5, svc.Drift.AlertThreshold)
	assert.Equal(t, "2m0s", svc.Drift.SessionTTL.String())
	assert.Equal(t, "/tmp/ghost-drift", svc.Drift.BadgerPath)
	require.NotNil(t, svc.SamplerWarmup)
	assert.Equal(t, "200ms", svc.SamplerWarmup.String())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_ZeroWarmupDisablesIt(t *testing.T) {
	v, err := newViper(writeConfig(t, "sampler:\n  warmup: 0s\n"))
	require.NoError(t, err)
	cfg, err := loadConfig(v)
	require.NoError(t, err)

	svc := cfg.serviceConfig()
	require.NotNil(t, svc.SamplerWarmup)
	assert.Zero(t, *svc.SamplerWarmup)
}

func TestLoadConfig_InvalidLevel(t *testing.T) {
	v, err := newViper(writeConfig(t, "log:\n  level: loud\n"))
	require.NoError(t, err)
	_, err = loadConfig(v)
	require.Error(t, err)
}

func TestNewViper_MissingExplicitFile(t *testing.T) {
	_, err := newViper(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestRoot_BadConfigFails(t *testing.T) {
	_, _, err := execute(t, newTestApp(0), nil,
		"--config", filepath.Join(t.TempDir(), "absent.yaml"), "stress")
	require.Error(t, err)
}

func TestApplyLogLevel(t *testing.T) {
	v, err := newViper(writeConfig(t, "log:\n  level: warn\n"))
	require.NoError(t, err)
	logger := logging.New(logging.Config{Output: io.Discard})

	applyLogLevel(v, logger, "ghost.yaml")
	assert.Equal(t, logging.LevelWarn, logger.Level())

	v.Set("log.level", "nonsense")
	applyLogLevel(v, logger, "ghost.yaml")
	assert.Equal(t, logging.LevelWarn, logger.Level())
}
