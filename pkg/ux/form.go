// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
)

// ErrPromptAborted is returned when the user cancels the simulation form.
var ErrPromptAborted = errors.New("prompt aborted")

// SimulationPrompter collects a simulation request interactively.
type SimulationPrompter interface {
	PromptSimulation(defaults ghost.SimulationRequest) (ghost.SimulationRequest, error)
}

// FormPrompter asks for the script, persona and intensity with a huh form.
type FormPrompter struct {
	// CharLimit caps the script field. Zero means unlimited.
	CharLimit int
}

// PromptSimulation runs the form pre-filled with defaults. SystemLoad is
// carried through unchanged.
//
// # Outputs
//
//   - ghost.SimulationRequest: the edited request
//   - error: ErrPromptAborted on Ctrl-C, or the form's own error
func (f FormPrompter) PromptSimulation(defaults ghost.SimulationRequest) (ghost.SimulationRequest, error) {
	script := defaults.Script
	persona := ghost.ClassifyPersona(defaults.PersonaType).Key()
	intensity := strconv.Itoa(ghost.ClampPercent(defaults.IntensityLevel))

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Message").
				Description("What would you say to them?").
				CharLimit(f.CharLimit).
				Value(&script),
			huh.NewSelect[string]().
				Title("Persona").
				Options(PersonaOptions()...).
				Value(&persona),
			huh.NewInput().
				Title("Intensity").
				Description("How heated is the moment, 0 to 100").
				Validate(ValidateIntensity).
				Value(&intensity),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ghost.SimulationRequest{}, ErrPromptAborted
		}
		return ghost.SimulationRequest{}, err
	}

	level, _ := strconv.Atoi(strings.TrimSpace(intensity))
	return ghost.SimulationRequest{
		Script:         script,
		PersonaType:    persona,
		IntensityLevel: level,
		SystemLoad:     defaults.SystemLoad,
	}, nil
}

// PersonaOptions lists every persona as a select option keyed by its label.
func PersonaOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(ghost.Personas))
	for _, p := range ghost.Personas {
		opts = append(opts, huh.NewOption(p.Label(), p.Key()))
	}
	return opts
}

// ValidateIntensity accepts whole numbers from 0 to 100.
func ValidateIntensity(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("intensity must be a whole number")
	}
	if n < 0 || n > 100 {
		return errors.New("intensity must be between 0 and 100")
	}
	return nil
}
