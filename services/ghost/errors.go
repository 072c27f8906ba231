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
)

// ErrCollaboratorUnavailable is the single error kind a simulation reports.
// Malformed input never fails; only sampler, analyzer and tracker failures do.
var ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

// Collaborator names used in CollaboratorError.
const (
	CollaboratorStressSampler = "stress_sampler"
	CollaboratorAnalyzer      = "resonance_analyzer"
	CollaboratorDriftTracker  = "drift_tracker"
)

// CollaboratorError wraps a failure from an injected collaborator.
//
// errors.Is(err, ErrCollaboratorUnavailable) holds for every CollaboratorError,
// and the underlying cause stays reachable through Unwrap.
type CollaboratorError struct {
	Collaborator string
	Op           string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrCollaboratorUnavailable, e.Collaborator, e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Is matches ErrCollaboratorUnavailable.
func (e *CollaboratorError) Is(target error) bool {
	return target == ErrCollaboratorUnavailable
}

func collaboratorErr(collaborator, op string, err error) error {
	return &CollaboratorError{Collaborator: collaborator, Op: op, Err: err}
}
