// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/sensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	reads   [][]cpu.TimesStat
	calls   int
	cpuErr  error
	sleeps  []time.Duration
	temps   []sensors.TemperatureStat
	tempErr error
}

func (f *fakeHost) cpuTimes(_ context.Context, percpu bool) ([]cpu.TimesStat, error) {
	if !percpu {
		return nil, errors.New("expected per-cpu read")
	}
	if f.cpuErr != nil {
		return nil, f.cpuErr
	}
	read := f.reads[min(f.calls, len(f.reads)-1)]
	f.calls++
	return read, nil
}

func (f *fakeHost) sleep(_ context.Context, d time.Duration) error {
	f.sleeps = append(f.sleeps, d)
	return nil
}

func (f *fakeHost) temperatures(context.Context) ([]sensors.TemperatureStat, error) {
	return f.temps, f.tempErr
}

func newFakeSampler(f *fakeHost, opts ...HostOption) *HostSampler {
	h := NewHostSampler(opts...)
	h.cpuTimes = f.cpuTimes
	h.temperatures = f.temperatures
	h.sleep = f.sleep
	return h
}

// times builds one per-CPU read where each CPU has the given busy and idle
// seconds.
func times(busyIdle ...[2]float64) []cpu.TimesStat {
	out := make([]cpu.TimesStat, len(busyIdle))
	for i, bi := range busyIdle {
		out[i] = cpu.TimesStat{User: bi[0], Idle: bi[1]}
	}
	return out
}

func TestHostSampler_WarmsUpOnFirstReadOnly(t *testing.T) {
	f := &fakeHost{reads: [][]cpu.TimesStat{
		times([2]float64{100, 100}),
		times([2]float64{101, 103}), // warm-up window: 1 busy of 4
		times([2]float64{104, 104}), // next window: 3 busy of 4
	}}
	h := newFakeSampler(f)

	first, err := h.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, first.CPUUsagePercent)
	assert.Equal(t, []time.Duration{DefaultWarmup}, f.sleeps)

	second, err := h.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 75, second.CPUUsagePercent)
	assert.Equal(t, []time.Duration{DefaultWarmup}, f.sleeps, "later reads must not block")
	assert.Equal(t, 3, f.calls)
}

func TestHostSampler_LaterReadsCoverOnlyTheLastWindow(t *testing.T) {
	f := &fakeHost{reads: [][]cpu.TimesStat{
		times([2]float64{0, 0}),
		times([2]float64{1000, 0}),  // fully busy warm-up
		times([2]float64{1000, 10}), // idle window
		times([2]float64{1000, 20}), // idle window
	}}
	h := newFakeSampler(f)

	snap, err := h.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, snap.CPUUsagePercent)

	for i := 0; i < 2; i++ {
		snap, err = h.Sample(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, snap.CPUUsagePercent)
	}
}

func TestHostSampler_FailedReadDoesNotConsumeWarmup(t *testing.T) {
	f := &fakeHost{cpuErr: errors.New("procfs unavailable")}
	h := newFakeSampler(f, WithWarmup(50*time.Millisecond))

	_, err := h.Sample(context.Background())
	require.Error(t, err)

	f.cpuErr = nil
	f.reads = [][]cpu.TimesStat{times([2]float64{0, 0}), times([2]float64{1, 1})}
	snap, err := h.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, snap.CPUUsagePercent)
	assert.Equal(t, []time.Duration{50 * time.Millisecond}, f.sleeps)
}

func TestHostSampler_WarmupHonoursContext(t *testing.T) {
	f := &fakeHost{reads: [][]cpu.TimesStat{times([2]float64{0, 0})}}
	h := newFakeSampler(f, WithWarmup(time.Hour))
	h.sleep = sleepContext
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Sample(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBusyPercent(t *testing.T) {
	tests := []struct {
		name      string
		prev, cur cpu.TimesStat
		want      float64
	}{
		{"no elapsed time", cpu.TimesStat{User: 5, Idle: 5}, cpu.TimesStat{User: 5, Idle: 5}, 0},
		{"iowait counts as idle", cpu.TimesStat{}, cpu.TimesStat{System: 1, Iowait: 1, Idle: 2}, 25},
		{"counter reset", cpu.TimesStat{User: 50, Idle: 50}, cpu.TimesStat{User: 10, Idle: 60}, 0},
		{"fully busy", cpu.TimesStat{}, cpu.TimesStat{User: 2, Irq: 1, Steal: 1}, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, busyPercent(tc.prev, tc.cur), 1e-9)
		})
	}
}

func TestBusyPercents_SkipsUnpairedCPUs(t *testing.T) {
	prev := times([2]float64{0, 0})
	cur := times([2]float64{1, 1}, [2]float64{9, 9})
	assert.Equal(t, []float64{50}, busyPercents(prev, cur))
}

func TestMeanPercent_RoundedAndClamped(t *testing.T) {
	tests := []struct {
		name     string
		percents []float64
		want     int
	}{
		{"empty", nil, 0},
		{"single", []float64{42.4}, 42},
		{"rounds half up", []float64{10, 11}, 11},
		{"mean", []float64{20, 40, 60, 80}, 50},
		{"over range", []float64{130, 150}, 100},
		{"under range", []float64{-5}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, meanPercent(tc.percents))
		})
	}
}

// TestHostSampler_RealHostIgnoresEarlierLoad runs against gopsutil. Busy time
// spent before the sampler's first read must not leak into any later read.
func TestHostSampler_RealHostIgnoresEarlierLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("burns every CPU for a second")
	}
	if _, err := cpu.Times(true); err != nil {
		t.Skipf("cpu times unavailable: %v", err)
	}

	var stop atomic.Bool
	var wg sync.WaitGroup
	for i := 0; i < runtime.NumCPU(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
			}
		}()
	}
	time.Sleep(time.Second)
	stop.Store(true)
	wg.Wait()

	h := NewHostSampler(WithWarmup(200 * time.Millisecond))
	_, err := h.Sample(context.Background())
	require.NoError(t, err)

	time.Sleep(300 * time.Millisecond)
	snap, err := h.Sample(context.Background())
	require.NoError(t, err)
	assert.Less(t, snap.CPUUsagePercent, 50,
		"an idle window reported load from before the previous read")
}

func TestHostSampler_Temperature(t *testing.T) {
	t.Run("max finite positive", func(t *testing.T) {
		h := newFakeSampler(&fakeHost{
			reads: [][]cpu.TimesStat{times([2]float64{1, 1})},
			temps: []sensors.TemperatureStat{
				{SensorKey: "a", Temperature: 0},
				{SensorKey: "b", Temperature: 61.5},
				{SensorKey: "c", Temperature: math.NaN()},
				{SensorKey: "d", Temperature: math.Inf(1)},
				{SensorKey: "e", Temperature: 48},
			},
		})
		snap, err := h.Sample(context.Background())
		require.NoError(t, err)
		require.NotNil(t, snap.TemperatureC)
		assert.InDelta(t, 61.5, *snap.TemperatureC, 1e-9)
	})

	t.Run("no usable sensors", func(t *testing.T) {
		h := newFakeSampler(&fakeHost{
			reads: [][]cpu.TimesStat{times([2]float64{1, 1})},
			temps: []sensors.TemperatureStat{{SensorKey: "a", Temperature: -1}},
		})
		snap, err := h.Sample(context.Background())
		require.NoError(t, err)
		assert.Nil(t, snap.TemperatureC)
	})

	t.Run("sensor error keeps partial readings", func(t *testing.T) {
		h := newFakeSampler(&fakeHost{
			reads:   [][]cpu.TimesStat{times([2]float64{1, 1})},
			temps:   []sensors.TemperatureStat{{SensorKey: "a", Temperature: 55}},
			tempErr: errors.New("some sensors unreadable"),
		})
		snap, err := h.Sample(context.Background())
		require.NoError(t, err)
		require.NotNil(t, snap.TemperatureC)
		assert.InDelta(t, 55.0, *snap.TemperatureC, 1e-9)
	})

	t.Run("sensor error goes to the host logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		h := newFakeSampler(&fakeHost{
			reads:   [][]cpu.TimesStat{times([2]float64{1, 1})},
			tempErr: errors.New("some sensors unreadable"),
		}, WithHostLogger(logger))

		_, err := h.Sample(context.Background())
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "some sensors unreadable")
	})
}

func TestFixedSampler(t *testing.T) {
	snap, err := NewFixedSampler(140).Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, snap.CPUUsagePercent)
	assert.Nil(t, snap.TemperatureC)
}
