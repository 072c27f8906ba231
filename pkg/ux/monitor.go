// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
)

// SampleFunc takes one stress reading.
type SampleFunc func(ctx context.Context) (ghost.StressSnapshot, error)

type sampleMsg struct {
	snap ghost.StressSnapshot
	err  error
}

type tickMsg struct{}

// MonitorModel is a bubbletea model that polls a SampleFunc and draws the
// load as a bar, with the override gate state underneath.
type MonitorModel struct {
	ctx      context.Context
	sample   SampleFunc
	interval time.Duration

	bar     progress.Model
	snap    ghost.StressSnapshot
	err     error
	samples int
	peak    int
	done    bool
}

// NewMonitorModel builds the model. interval <= 0 means one second.
func NewMonitorModel(ctx context.Context, sample SampleFunc, interval time.Duration) MonitorModel {
	if interval <= 0 {
		interval = time.Second
	}
	return MonitorModel{
		ctx:      ctx,
		sample:   sample,
		interval: interval,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// Init takes the first reading.
func (m MonitorModel) Init() tea.Cmd {
	return m.sampleCmd()
}

func (m MonitorModel) sampleCmd() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.sample(m.ctx)
		return sampleMsg{snap: snap, err: err}
	}
}

func (m MonitorModel) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{} })
}

// Update handles key presses, resizes, readings and ticks.
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.done = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-24, 10), 60)
	case sampleMsg:
		m.err = msg.err
		if msg.err == nil {
			m.snap = msg.snap
			m.snap.CPUUsagePercent = ghost.ClampPercent(msg.snap.CPUUsagePercent)
			m.samples++
			m.peak = max(m.peak, m.snap.CPUUsagePercent)
		}
		return m, m.tickCmd()
	case tickMsg:
		return m, m.sampleCmd()
	}
	return m, nil
}

// View draws the current reading.
func (m MonitorModel) View() string {
	var sb strings.Builder
	sb.WriteString(Styles.Title.Render("System stress") + "\n\n")

	if m.samples == 0 && m.err == nil {
		sb.WriteString(Styles.Muted.Render("  sampling...") + "\n")
	} else {
		fmt.Fprintf(&sb, "  CPU  %s %3d%%\n", m.bar.ViewAs(float64(m.snap.CPUUsagePercent)/100), m.snap.CPUUsagePercent)
		if m.snap.TemperatureC != nil {
			fmt.Fprintf(&sb, "  Temp %.1f°C\n", *m.snap.TemperatureC)
		}
		fmt.Fprintf(&sb, "  Peak %d%% over %d samples\n", m.peak, m.samples)
		if ghost.ShouldOverride(m.snap.CPUUsagePercent) {
			sb.WriteString("\n  " + IconWarning.Render() + " " +
				Styles.Warning.Render("override active: replies de-escalate as Secure") + "\n")
		}
	}
	if m.err != nil {
		sb.WriteString("\n  " + IconError.Render() + " " + Styles.Error.Render(m.err.Error()) + "\n")
	}
	if !m.done {
		sb.WriteString("\n" + Styles.Muted.Render("  q to quit") + "\n")
	}
	return sb.String()
}

// Peak returns the highest CPU reading seen.
func (m MonitorModel) Peak() int {
	return m.peak
}

// RunMonitor shows the live monitor until the user quits or ctx ends.
func RunMonitor(ctx context.Context, sample SampleFunc, interval time.Duration) error {
	p := tea.NewProgram(NewMonitorModel(ctx, sample, interval), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
