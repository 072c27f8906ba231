// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
)

// Risk bands used for colouring.
const (
	riskElevated = 40
	riskHigh     = 70
)

// RiskStyle picks the colour for a risk score.
func RiskStyle(risk int) lipgloss.Style {
	switch {
	case risk >= riskHigh:
		return Styles.Error
	case risk >= riskElevated:
		return Styles.Warning
	default:
		return Styles.Success
	}
}

// ResonanceStyle picks the colour for a resonance score. High is good.
func ResonanceStyle(score int) lipgloss.Style {
	return RiskStyle(100 - score)
}

// Simulation renders one simulation result.
//
// # Description
//
// Full mode draws the ghost reply in a box, followed by score bars,
// breaches, flags, suggestions and drift. Minimal mode prints one line
// per field. Machine mode prints key=value lines with comma-joined lists.
func (p *Printer) Simulation(resp *ghost.SimulationResponse) {
	if resp == nil {
		return
	}
	switch p.level {
	case PersonalityMachine:
		p.simulationMachine(resp)
	case PersonalityMinimal:
		p.simulationMinimal(resp)
	default:
		p.simulationFull(resp)
	}
}

func (p *Printer) simulationMachine(resp *ghost.SimulationResponse) {
	kinds := make([]string, 0, len(resp.Breaches))
	for _, b := range resp.Breaches {
		kinds = append(kinds, b.Kind)
	}
	fmt.Fprintf(p.w, "persona=%s\n", resp.Persona)
	fmt.Fprintf(p.w, "intensity=%d\n", resp.IntensityLevel)
	fmt.Fprintf(p.w, "resonance=%d\n", resp.ResonanceScore)
	fmt.Fprintf(p.w, "risk=%d\n", resp.RiskScore)
	fmt.Fprintf(p.w, "reply=%s\n", resp.GhostReply)
	fmt.Fprintf(p.w, "breaches=%s\n", strings.Join(kinds, ","))
	fmt.Fprintf(p.w, "flags=%s\n", strings.Join(resp.Flags, ","))
	fmt.Fprintf(p.w, "session=%s\n", resp.SessionID)
	fmt.Fprintf(p.w, "load_start=%d\n", resp.SystemLoadStart)
	fmt.Fprintf(p.w, "load_end=%d\n", resp.SystemLoadEnd)
	fmt.Fprintf(p.w, "drift=%d\n", resp.DriftDelta)
	fmt.Fprintf(p.w, "drift_alert=%t\n", resp.DriftAlert)
	fmt.Fprintf(p.w, "override=%t\n", resp.OverrideDeescalate)
}

func (p *Printer) simulationMinimal(resp *ghost.SimulationResponse) {
	fmt.Fprintf(p.w, "%s %s: %s\n", IconGhost, resp.Persona, resp.GhostReply)
	fmt.Fprintf(p.w, "resonance %d  risk %d  drift %+d\n", resp.ResonanceScore, resp.RiskScore, resp.DriftDelta)
	for _, b := range resp.Breaches {
		fmt.Fprintf(p.w, "%s %s %q\n", IconError, b.Kind, b.Needle)
	}
	if resp.OverrideDeescalate {
		fmt.Fprintf(p.w, "%s override: system load %d\n", IconWarning, resp.SystemLoadStart)
	}
}

func (p *Printer) simulationFull(resp *ghost.SimulationResponse) {
	if resp.OverrideDeescalate {
		p.WarningBox("De-escalation override",
			fmt.Sprintf("System load %d%% crossed the override threshold. Responding as %s.",
				resp.SystemLoadStart, resp.Persona))
	}

	p.Box(fmt.Sprintf("%s %s", IconGhost, resp.Persona), resp.GhostReply)

	fmt.Fprintf(p.w, "  %-10s %s\n", "Resonance", ProgressBar(resp.ResonanceScore, 30, ResonanceStyle(resp.ResonanceScore)))
	fmt.Fprintf(p.w, "  %-10s %s\n", "Risk", ProgressBar(resp.RiskScore, 30, RiskStyle(resp.RiskScore)))
	fmt.Fprintf(p.w, "  %-10s %s\n", "Intensity", ProgressBar(resp.IntensityLevel, 30, Styles.Subtitle))

	if len(resp.Breaches) > 0 {
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, Styles.Bold.Render("Breaches"))
		for _, b := range resp.Breaches {
			fmt.Fprintf(p.w, "  %s %s %s\n", IconError.Render(), Styles.Error.Render(b.Kind),
				Styles.Muted.Render(fmt.Sprintf("%q: %s", b.Needle, b.Message)))
		}
	}

	if len(resp.Flags) > 0 {
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, Styles.Bold.Render("Flags"))
		for _, f := range resp.Flags {
			fmt.Fprintf(p.w, "  %s %s\n", IconBullet, f)
		}
	}

	if len(resp.Suggestions) > 0 {
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, Styles.Bold.Render("Suggestions"))
		for _, s := range resp.Suggestions {
			fmt.Fprintf(p.w, "  %s %s\n", IconArrow, s)
		}
	}

	fmt.Fprintln(p.w)
	drift := fmt.Sprintf("Drift %d%% → %d%% (%+d)", resp.SystemLoadStart, resp.SystemLoadEnd, resp.DriftDelta)
	if resp.DriftAlert {
		fmt.Fprintf(p.w, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(drift+" alert"))
	} else {
		fmt.Fprintln(p.w, Styles.Muted.Render(drift))
	}
	fmt.Fprintln(p.w, Styles.Muted.Render("session "+resp.SessionID))
}

// Breaches renders a breach scan of script. Full mode highlights every
// matched phrase in the script text.
func (p *Printer) Breaches(script string, breaches []ghost.Breach) {
	if p.Machine() {
		for _, b := range breaches {
			fmt.Fprintf(p.w, "%s\t%s\t%s\n", b.Kind, b.Needle, b.Message)
		}
		return
	}
	if len(breaches) == 0 {
		p.Success("No boundary breaches found")
		return
	}
	if p.level == PersonalityFull {
		p.Box("Script", HighlightBreaches(script, breaches))
	}
	for _, b := range breaches {
		fmt.Fprintf(p.w, "%s %s %s\n", IconError.Render(), Styles.Error.Render(b.Kind),
			Styles.Muted.Render(fmt.Sprintf("%q: %s", b.Needle, b.Message)))
	}
}

// Stress renders one stress snapshot.
func (p *Printer) Stress(snap ghost.StressSnapshot) {
	if p.Machine() {
		fmt.Fprintf(p.w, "cpu=%d\n", snap.CPUUsagePercent)
		if snap.TemperatureC != nil {
			fmt.Fprintf(p.w, "temperature_c=%.1f\n", *snap.TemperatureC)
		}
		return
	}
	fmt.Fprintf(p.w, "  %-12s %s\n", "CPU", ProgressBar(snap.CPUUsagePercent, 30, RiskStyle(snap.CPUUsagePercent)))
	if snap.TemperatureC != nil {
		fmt.Fprintf(p.w, "  %-12s %.1f°C\n", "Temperature", *snap.TemperatureC)
	} else {
		fmt.Fprintf(p.w, "  %-12s %s\n", "Temperature", Styles.Muted.Render("unavailable"))
	}
}

// HighlightBreaches styles every occurrence of each breach needle in
// script, folding case the way the detector does. Overlapping matches merge.
func HighlightBreaches(script string, breaches []ghost.Breach) string {
	lower := ghost.FoldASCII(script)
	if len(breaches) == 0 {
		return script
	}

	type span struct{ start, end int }
	var spans []span
	for _, b := range breaches {
		if b.Needle == "" {
			continue
		}
		for from := 0; ; {
			i := strings.Index(lower[from:], b.Needle)
			if i < 0 {
				break
			}
			start := from + i
			spans = append(spans, span{start, start + len(b.Needle)})
			from = start + len(b.Needle)
		}
	}
	if len(spans) == 0 {
		return script
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.start <= last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}

	var sb strings.Builder
	pos := 0
	for _, s := range merged {
		sb.WriteString(script[pos:s.start])
		sb.WriteString(Styles.Breach.Render(script[s.start:s.end]))
		pos = s.end
	}
	sb.WriteString(script[pos:])
	return sb.String()
}
