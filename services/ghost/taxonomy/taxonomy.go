// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package taxonomy embeds the breach taxonomy consumed by the ghost breach
// detector. Baking the YAML into the binary keeps the category order and the
// coaching messages fixed for a given build.
package taxonomy

import (
	_ "embed"
)

// BreachTaxonomy holds the raw bytes of breach_taxonomy.yaml.
//
// Usage:
//
//	var doc ghost.TaxonomyFile
//	err := yaml.Unmarshal(taxonomy.BreachTaxonomy, &doc)
//
//go:embed breach_taxonomy.yaml
var BreachTaxonomy []byte
