// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
)

func TestValidateIntensity(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"0", false},
		{" 55 ", false},
		{"100", false},
		{"101", true},
		{"-1", true},
		{"hot", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := ValidateIntensity(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPersonaOptions_RoundTrip(t *testing.T) {
	opts := PersonaOptions()
	assert.Len(t, opts, len(ghost.Personas))
	for i, opt := range opts {
		assert.Equal(t, ghost.Personas[i].Label(), opt.Key)
		assert.Equal(t, ghost.Personas[i], ghost.ClassifyPersona(opt.Value))
	}
}

func TestParsePersonalityLevel(t *testing.T) {
	assert.Equal(t, PersonalityMachine, ParsePersonalityLevel("quiet"))
	assert.Equal(t, PersonalityMinimal, ParsePersonalityLevel(" MIN "))
	assert.Equal(t, PersonalityFull, ParsePersonalityLevel("anything"))
}

func TestSetPersonalityLevel(t *testing.T) {
	orig := GetPersonality().Level
	defer SetPersonalityLevel(orig)

	SetPersonalityLevel(PersonalityMinimal)
	assert.Equal(t, PersonalityMinimal, GetPersonality().Level)
}

func TestIsTerminal_Nil(t *testing.T) {
	assert.False(t, IsTerminal(nil))
}
