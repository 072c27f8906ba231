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

import "context"

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// StressSampler reads a coarse environmental stress snapshot.
//
// # Description
//
// Implementations read live OS counters. A CPU figure is only meaningful as a
// delta between two reads, so implementations may block on their first call
// to take a warm-up reading. That is a timing caveat of the sampler, not a
// correctness requirement of the Simulator.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type StressSampler interface {
	Sample(ctx context.Context) (StressSnapshot, error)
}

// ResonanceAnalyzer scores how well a script aligns with the target
// relational communication pattern.
//
// # Description
//
// The returned ResonanceScore is expected in [0,100]; the Simulator clamps it
// regardless. Flags and Suggestions are passed through to the caller
// untouched. analysisContext is optional free text and may be nil.
type ResonanceAnalyzer interface {
	Analyze(ctx context.Context, script string, persona Persona, analysisContext *string) (Analysis, error)
}

// DriftTracker records the stress reading at the start of a simulation and
// reports the drift when the simulation completes.
//
// # Description
//
// Session ids are opaque to callers. The tracker owns the session store and
// the alert rule, and must keep concurrent sessions from interfering with
// each other's start and end pairing.
type DriftTracker interface {
	// OpenSession stores startLoad and returns a new session id.
	OpenSession(ctx context.Context, startLoad int) (string, error)

	// CloseSession consumes the session and returns the full drift record.
	CloseSession(ctx context.Context, sessionID string, endLoad int) (DriftRecord, error)
}
