// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resonance provides the default ResonanceAnalyzer: a deterministic
// lexical heuristic that scores how closely a message follows the
// observation / feeling / need / request pattern.
package resonance

import (
	"context"
	"strings"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
)

const (
	baseScore = 50

	FlagEmptyScript    = "empty_script"
	FlagNoFeeling      = "missing_feeling"
	FlagNoNeed         = "missing_need"
	FlagNoRequest      = "missing_request"
	FlagEvaluative     = "evaluative_language"
	FlagAbsolute       = "absolute_language"
	FlagBlame          = "blame"
	FlagDemand         = "demand"
	emptySuggestion    = "Write the message you actually want to send."
	feelingSuggestion  = "Name the feeling: “I feel …”."
	needSuggestion     = "Say what you need or value underneath the feeling."
	requestSuggestion  = "End with one doable request: “Would you be willing to …?”"
)

// markerGroup is one lexical category. A group contributes its weight at
// most once per script, on the first phrase found.
type markerGroup struct {
	name       string
	weight     int
	phrases    []string
	flag       string // set when a negative group matches
	suggestion string
}

var positiveGroups = []markerGroup{
	{name: "observation", weight: 8, phrases: []string{"when i saw", "when i heard", "when i noticed", "i noticed", "i observed", "i saw that"}},
	{name: "feeling", weight: 10, phrases: []string{"i feel", "i felt", "i'm feeling", "i am feeling", "i was feeling"}},
	{name: "need", weight: 10, phrases: []string{"i need", "i value", "it matters to me", "important to me", "i'm needing"}},
	{name: "request", weight: 10, phrases: []string{"would you be willing", "would you", "could you", "are you willing", "can we"}},
}

var negativeGroups = []markerGroup{
	{
		name: "evaluative", weight: -10, flag: FlagEvaluative,
		phrases:    []string{"you are", "you're", "lazy", "selfish", "careless", "stupid"},
		suggestion: "Swap the label for what you saw or heard.",
	},
	{
		name: "absolute", weight: -8, flag: FlagAbsolute,
		phrases:    []string{"always", "never", "every time", "nothing ever"},
		suggestion: "Replace absolutes with one specific, recent instance.",
	},
	{
		name: "blame", weight: -12, flag: FlagBlame,
		phrases:    []string{"your fault", "because you", "you make me feel", "you made me"},
		suggestion: "Own the feeling instead of assigning its cause.",
	},
	{
		name: "demand", weight: -8, flag: FlagDemand,
		phrases:    []string{"you should", "you need to", "you have to", "you must"},
		suggestion: "Turn the demand into a request the other person can decline.",
	},
}

var personaSuggestions = map[ghost.Persona]string{
	ghost.PersonaSecure:             "A secure partner responds to clarity; keep it direct.",
	ghost.PersonaAvoidantDismissive: "Keep it short and make a single, specific request.",
	ghost.PersonaAnxiousPreoccupied: "Open with reassurance so the request isn't heard as rejection.",
	ghost.PersonaFearfulAvoidant:    "Lead with safety, then one observation and one feeling.",
}

// LexicalAnalyzer implements ghost.ResonanceAnalyzer.
//
// # Description
//
// Scoring starts at 50. Each positive group found adds its weight; each
// negative group found subtracts its weight and raises a flag. Missing
// feeling, need or request components raise their own flags. The score is
// clamped to [0,100]. Output depends only on the script and persona.
//
// # Limitations
//
//   - Substring matching only; no negation or sarcasm handling.
//   - The optional analysis context is accepted but not scored.
type LexicalAnalyzer struct{}

// NewLexicalAnalyzer returns the default analyzer.
func NewLexicalAnalyzer() *LexicalAnalyzer {
	return &LexicalAnalyzer{}
}

// Analyze never returns an error.
func (a *LexicalAnalyzer) Analyze(_ context.Context, script string, persona ghost.Persona, _ *string) (ghost.Analysis, error) {
	return analyze(script, persona), nil
}

func analyze(script string, persona ghost.Persona) ghost.Analysis {
	text := strings.ToLower(strings.TrimSpace(script))
	if text == "" {
		return ghost.Analysis{
			ResonanceScore: 0,
			Flags:          []string{FlagEmptyScript},
			Suggestions:    []string{emptySuggestion},
		}
	}

	out := newCollector()
	score := baseScore

	found := map[string]bool{}
	for _, g := range positiveGroups {
		if containsAny(text, g.phrases) {
			score += g.weight
			found[g.name] = true
		}
	}
	for _, g := range negativeGroups {
		if containsAny(text, g.phrases) {
			score += g.weight
			out.add(g.flag, g.suggestion)
		}
	}

	if !found["feeling"] {
		out.add(FlagNoFeeling, feelingSuggestion)
	}
	if !found["need"] {
		out.add(FlagNoNeed, needSuggestion)
	}
	if !found["request"] {
		out.add(FlagNoRequest, requestSuggestion)
	}
	if s, ok := personaSuggestions[persona]; ok {
		out.add("", s)
	}

	return ghost.Analysis{
		ResonanceScore: ghost.ClampPercent(score),
		Flags:          out.flags,
		Suggestions:    out.suggestions,
	}
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// collector keeps flags and suggestions unique and in first-seen order.
type collector struct {
	flags       []string
	suggestions []string
	seen        map[string]struct{}
}

func newCollector() *collector {
	return &collector{flags: []string{}, suggestions: []string{}, seen: map[string]struct{}{}}
}

func (c *collector) add(flag, suggestion string) {
	if flag != "" {
		if _, dup := c.seen["f:"+flag]; !dup {
			c.seen["f:"+flag] = struct{}{}
			c.flags = append(c.flags, flag)
		}
	}
	if suggestion != "" {
		if _, dup := c.seen["s:"+suggestion]; !dup {
			c.seen["s:"+suggestion] = struct{}{}
			c.suggestions = append(c.suggestions, suggestion)
		}
	}
}

var _ ghost.ResonanceAnalyzer = (*LexicalAnalyzer)(nil)
