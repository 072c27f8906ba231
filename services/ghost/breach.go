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
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/AleutianGhost/services/ghost/taxonomy"
	"gopkg.in/yaml.v3"
)

// Breach kinds, in taxonomy order.
const (
	BreachAbsolute     = "absolute"
	BreachDirective    = "directive"
	BreachBlame        = "blame"
	BreachYouStatement = "you_statement"
)

// TaxonomyFile is the document shape of the embedded breach taxonomy.
type TaxonomyFile struct {
	Categories []BreachCategory `yaml:"categories"`
}

// BreachCategory is one violation category with its needles and the coaching
// message every matched needle reports.
type BreachCategory struct {
	Kind        string   `yaml:"kind"`
	Description string   `yaml:"description"`
	Message     string   `yaml:"message"`
	Needles     []string `yaml:"needles"`
}

// Validate rejects taxonomies the detector could not scan deterministically.
func (f *TaxonomyFile) Validate() error {
	if len(f.Categories) == 0 {
		return errors.New("taxonomy has no categories")
	}
	seen := make(map[string]bool, len(f.Categories))
	for i, c := range f.Categories {
		if c.Kind == "" {
			return fmt.Errorf("category %d has no kind", i)
		}
		if seen[c.Kind] {
			return fmt.Errorf("duplicate category kind %q", c.Kind)
		}
		seen[c.Kind] = true
		if c.Message == "" {
			return fmt.Errorf("category %q has no message", c.Kind)
		}
		if len(c.Needles) == 0 {
			return fmt.Errorf("category %q has no needles", c.Kind)
		}
		for _, n := range c.Needles {
			if n == "" || n != FoldASCII(n) {
				return fmt.Errorf("category %q: needle %q must be non-empty lower case", c.Kind, n)
			}
		}
	}
	return nil
}

// BreachDetector scans scripts against an ordered breach taxonomy.
//
// # Description
//
// The category list is fixed at construction and never mutated, so a single
// detector can be shared by any number of goroutines.
type BreachDetector struct {
	categories []BreachCategory
}

// NewBreachDetector builds a detector from the embedded taxonomy.
//
// # Outputs
//
//   - *BreachDetector: ready to scan
//   - error: non-nil if the embedded YAML is malformed or fails validation
func NewBreachDetector() (*BreachDetector, error) {
	return NewBreachDetectorFromYAML(taxonomy.BreachTaxonomy)
}

// NewBreachDetectorFromYAML builds a detector from a taxonomy document.
func NewBreachDetectorFromYAML(data []byte) (*BreachDetector, error) {
	var file TaxonomyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the breach taxonomy: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("invalid breach taxonomy: %w", err)
	}
	return &BreachDetector{categories: file.Categories}, nil
}

// Categories returns a copy of the detector's category list.
func (d *BreachDetector) Categories() []BreachCategory {
	out := make([]BreachCategory, len(d.categories))
	for i, c := range d.categories {
		c.Needles = append([]string(nil), c.Needles...)
		out[i] = c
	}
	return out
}

// Detect reports every needle contained in the lower-cased script.
//
// # Description
//
// Matching is plain substring containment with no tokenisation or word
// boundaries, so overlapping needles are each reported. The result follows
// taxonomy order (category, then needle) regardless of where the needle sits
// in the text. Each needle is reported at most once.
//
// # Outputs
//
//   - []Breach: zero or more breaches, never nil
func (d *BreachDetector) Detect(script string) []Breach {
	text := FoldASCII(script)
	out := make([]Breach, 0)
	for _, c := range d.categories {
		for _, needle := range c.Needles {
			if strings.Contains(text, needle) {
				out = append(out, Breach{Kind: c.Kind, Needle: needle, Message: c.Message})
			}
		}
	}
	return out
}

// FoldASCII lower-cases A-Z and leaves every other rune untouched. Breach
// matching folds this way only, so look-alike runes such as the Kelvin sign
// never match an ASCII needle. The result has the same byte length as s.
func FoldASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

var defaultDetector = mustDefaultDetector()

func mustDefaultDetector() *BreachDetector {
	d, err := NewBreachDetector()
	if err != nil {
		panic(fmt.Sprintf("ghost: embedded breach taxonomy: %v", err))
	}
	return d
}

// DetectBreaches scans script with the embedded taxonomy.
func DetectBreaches(script string) []Breach {
	return defaultDetector.Detect(script)
}
