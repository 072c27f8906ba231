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

import "strings"

// Persona is the attachment style the simulated counterpart adopts.
type Persona int

const (
	// PersonaSecure seeks clarification and de-escalates.
	PersonaSecure Persona = iota

	// PersonaAvoidantDismissive asks for brevity and space, and withdraws
	// under heavy pressure.
	PersonaAvoidantDismissive

	// PersonaAnxiousPreoccupied seeks reassurance and connection.
	PersonaAnxiousPreoccupied

	// PersonaFearfulAvoidant oscillates between approach and withdrawal.
	PersonaFearfulAvoidant
)

// DefaultPersona is used for any label the classifier does not recognise.
const DefaultPersona = PersonaSecure

// Personas lists every persona in declaration order.
var Personas = []Persona{
	PersonaSecure,
	PersonaAvoidantDismissive,
	PersonaAnxiousPreoccupied,
	PersonaFearfulAvoidant,
}

// personaAliases maps lower-cased labels to personas. The canonical output
// labels are accepted too so a response label can be fed back in.
var personaAliases = map[string]Persona{
	"secure":              PersonaSecure,
	"avoidant":            PersonaAvoidantDismissive,
	"avoidant-dismissive": PersonaAvoidantDismissive,
	"dismissive-avoidant": PersonaAvoidantDismissive,
	"anxious":             PersonaAnxiousPreoccupied,
	"anxious-preoccupied": PersonaAnxiousPreoccupied,
	"fearful-avoidant":    PersonaFearfulAvoidant,
}

// ClassifyPersona normalises a free-text persona label.
//
// # Description
//
// Matching is case-insensitive and ignores surrounding whitespace. Unknown or
// empty labels resolve to DefaultPersona; classification never fails.
//
// # Examples
//
//	ClassifyPersona("Avoidant")        // PersonaAvoidantDismissive
//	ClassifyPersona("  ANXIOUS ")      // PersonaAnxiousPreoccupied
//	ClassifyPersona("disorganized")    // PersonaSecure
func ClassifyPersona(label string) Persona {
	if p, ok := personaAliases[strings.ToLower(strings.TrimSpace(label))]; ok {
		return p
	}
	return DefaultPersona
}

// Label returns the canonical display label used in responses.
func (p Persona) Label() string {
	switch p {
	case PersonaAvoidantDismissive:
		return "Dismissive-Avoidant"
	case PersonaAnxiousPreoccupied:
		return "Anxious-Preoccupied"
	case PersonaFearfulAvoidant:
		return "Fearful-Avoidant"
	default:
		return "Secure"
	}
}

// Key returns the lower-case label used for metrics and analyzer lookups.
func (p Persona) Key() string {
	return strings.ToLower(p.Label())
}

func (p Persona) String() string {
	return p.Label()
}
