// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package telemetry provides StressSampler implementations.

  - HostSampler reads the local CPU load and component temperatures.
  - FixedSampler returns a constant snapshot.

CPU usage is a coarse stress signal: the mean busy percentage across all
logical CPUs since the previous read. Temperature is best effort and only
reported when at least one sensor gives a finite positive value.
*/
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/sensors"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
)

// DefaultWarmup is how long the first read of a fresh HostSampler measures.
const DefaultWarmup = 200 * time.Millisecond

// -----------------------------------------------------------------------------
// HostSampler
// -----------------------------------------------------------------------------

type cpuTimesFunc func(ctx context.Context, percpu bool) ([]cpu.TimesStat, error)
type temperaturesFunc func(ctx context.Context) ([]sensors.TemperatureStat, error)
type sleepFunc func(ctx context.Context, d time.Duration) error

// HostSampler samples the machine it runs on.
//
// # Description
//
// CPU busy percentage is the change in per-CPU times between two reads.
// Each sampler keeps its own previous read, so samplers never disturb each
// other. A fresh sampler has no previous read: its first Sample takes a
// baseline, waits out the warm-up window and measures across it. Later
// reads are non-blocking and cover the time since the previous read.
//
// # Thread Safety
//
// Safe for concurrent use. Reads are serialised so each delta covers a
// well-defined window.
type HostSampler struct {
	warmup time.Duration
	logger *slog.Logger

	cpuTimes     cpuTimesFunc
	temperatures temperaturesFunc
	sleep        sleepFunc

	mu   sync.Mutex
	last []cpu.TimesStat
}

// HostOption customises a HostSampler.
type HostOption func(*HostSampler)

// WithWarmup overrides DefaultWarmup. Zero disables the warm-up.
func WithWarmup(d time.Duration) HostOption {
	return func(h *HostSampler) {
		if d >= 0 {
			h.warmup = d
		}
	}
}

// WithHostLogger sets the logger used for sensor warnings.
func WithHostLogger(logger *slog.Logger) HostOption {
	return func(h *HostSampler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHostSampler creates a sampler backed by gopsutil.
func NewHostSampler(opts ...HostOption) *HostSampler {
	h := &HostSampler{
		warmup:       DefaultWarmup,
		logger:       slog.Default(),
		cpuTimes:     cpu.TimesWithContext,
		temperatures: sensors.TemperaturesWithContext,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Sample returns the current stress snapshot.
//
// # Outputs
//
//   - ghost.StressSnapshot: CPU in [0,100], TemperatureC nil when unknown
//   - error: non-nil when CPU times cannot be read or ctx ends during warm-up
//
// # Limitations
//
//   - Sensor failures only drop the temperature.
//   - A failed read keeps the previous baseline; a failed first read
//     repeats the warm-up on the next call.
func (h *HostSampler) Sample(ctx context.Context) (ghost.StressSnapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev := h.last
	if prev == nil {
		base, err := h.cpuTimes(ctx, true)
		if err != nil {
			return ghost.StressSnapshot{}, fmt.Errorf("read cpu times: %w", err)
		}
		if err := h.sleep(ctx, h.warmup); err != nil {
			return ghost.StressSnapshot{}, fmt.Errorf("cpu warm-up: %w", err)
		}
		prev = base
	}

	cur, err := h.cpuTimes(ctx, true)
	if err != nil {
		return ghost.StressSnapshot{}, fmt.Errorf("read cpu times: %w", err)
	}
	h.last = cur

	snap := ghost.StressSnapshot{CPUUsagePercent: meanPercent(busyPercents(prev, cur))}
	snap.TemperatureC = h.maxTemperature(ctx)
	return snap, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// busyPercents pairs CPUs by position. CPUs present in only one read are
// skipped.
func busyPercents(prev, cur []cpu.TimesStat) []float64 {
	n := min(len(prev), len(cur))
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, busyPercent(prev[i], cur[i]))
	}
	return out
}

// busyPercent is the share of elapsed CPU time not spent idle or waiting on
// I/O. Guest time is already counted in user and nice on Linux.
func busyPercent(prev, cur cpu.TimesStat) float64 {
	prevBusy, prevTotal := cpuBusy(prev)
	curBusy, curTotal := cpuBusy(cur)
	elapsed := curTotal - prevTotal
	if elapsed <= 0 {
		return 0
	}
	busy := curBusy - prevBusy
	if busy <= 0 {
		return 0
	}
	return math.Min(100, busy/elapsed*100)
}

func cpuBusy(t cpu.TimesStat) (busy, total float64) {
	total = t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq + t.Softirq + t.Steal
	return total - t.Idle - t.Iowait, total
}

func (h *HostSampler) maxTemperature(ctx context.Context) *float64 {
	stats, err := h.temperatures(ctx)
	if err != nil {
		// gopsutil returns partial readings alongside warnings.
		h.logger.Debug("temperature sensors reported an error", "error", err, "readings", len(stats))
	}
	var hottest *float64
	for _, s := range stats {
		t := s.Temperature
		if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
			continue
		}
		if hottest == nil || t > *hottest {
			v := t
			hottest = &v
		}
	}
	return hottest
}

func meanPercent(values []float64) int {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return ghost.ClampPercent(int(math.Round(sum / float64(len(values)))))
}

// -----------------------------------------------------------------------------
// FixedSampler
// -----------------------------------------------------------------------------

// FixedSampler always returns the same snapshot.
type FixedSampler struct {
	Snapshot ghost.StressSnapshot
}

// NewFixedSampler returns a sampler that always reports load percent CPU.
func NewFixedSampler(load int) *FixedSampler {
	return &FixedSampler{Snapshot: ghost.StressSnapshot{CPUUsagePercent: ghost.ClampPercent(load)}}
}

func (f *FixedSampler) Sample(context.Context) (ghost.StressSnapshot, error) {
	return f.Snapshot, nil
}

var (
	_ ghost.StressSampler = (*HostSampler)(nil)
	_ ghost.StressSampler = (*FixedSampler)(nil)
)
