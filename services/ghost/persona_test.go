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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPersona(t *testing.T) {
	tests := []struct {
		label string
		want  Persona
	}{
		{"secure", PersonaSecure},
		{"Secure", PersonaSecure},
		{"avoidant", PersonaAvoidantDismissive},
		{"AVOIDANT-DISMISSIVE", PersonaAvoidantDismissive},
		{"Dismissive-Avoidant", PersonaAvoidantDismissive},
		{"anxious", PersonaAnxiousPreoccupied},
		{"Anxious-Preoccupied", PersonaAnxiousPreoccupied},
		{"fearful-avoidant", PersonaFearfulAvoidant},
		{"  fearful-avoidant\n", PersonaFearfulAvoidant},
		{"", PersonaSecure},
		{"disorganized", PersonaSecure},
		{"fearful avoidant", PersonaSecure},
	}

	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyPersona(tc.label))
		})
	}
}

func TestPersonaLabels(t *testing.T) {
	assert.Equal(t, "Secure", PersonaSecure.Label())
	assert.Equal(t, "Dismissive-Avoidant", PersonaAvoidantDismissive.Label())
	assert.Equal(t, "Anxious-Preoccupied", PersonaAnxiousPreoccupied.Label())
	assert.Equal(t, "Fearful-Avoidant", PersonaFearfulAvoidant.Label())
	assert.Equal(t, "dismissive-avoidant", PersonaAvoidantDismissive.Key())
}

func TestPersonaLabelRoundTrips(t *testing.T) {
	for _, p := range Personas {
		assert.Equal(t, p, ClassifyPersona(p.Label()), "label %q should classify back", p.Label())
	}
}
