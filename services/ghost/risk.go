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

const (
	riskFloor           = 20
	riskIntensityPivot  = 40
	riskPerBreach       = 8
	riskSafeAlignment   = 70
	overrideLoadTrigger = 85
)

// EstimateRisk combines alignment, intensity and breach count into a score in
// [0,100]:
//
//	clamp(20 + max(intensity-40, 0) + breaches*8 + max(70-alignment, 0))
//
// Intensity at or below 40 and alignment at or above 70 add nothing.
func EstimateRisk(alignmentScore, intensity, breachCount int) int {
	risk := riskFloor
	risk += max(intensity-riskIntensityPivot, 0)
	risk += breachCount * riskPerBreach
	risk += max(riskSafeAlignment-alignmentScore, 0)
	return ClampPercent(risk)
}

// ShouldOverride reports whether the sampled load is high enough to force the
// Secure persona.
func ShouldOverride(sampledLoad int) bool {
	return sampledLoad >= overrideLoadTrigger
}
