// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package drift provides DriftTracker implementations.

A drift session is opened with the system load seen before a simulation and
closed with the load seen after it. Closing yields a ghost.DriftRecord whose
Delta is end minus start (signed) and whose Alert is decided by an
AlertPolicy.

Backends:

  - MemoryTracker: process-local map, with a sweeper for abandoned sessions.
  - BadgerTracker: embedded BadgerDB, sessions expire through entry TTLs.
  - RedisTracker: shared Redis, sessions expire through key TTLs.

ArchivingTracker wraps any of them and writes each closed record to InfluxDB.

Closing an unknown, expired or already-closed session returns
ErrSessionNotFound.
*/
package drift

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
)

// ErrSessionNotFound is returned when closing a session the tracker does
// not hold.
var ErrSessionNotFound = errors.New("drift session not found")

const (
	// DefaultAlertThreshold flags a rise of 20 load points within one
	// simulation.
	DefaultAlertThreshold = 20

	// DefaultSessionTTL bounds how long an unclosed session is kept.
	DefaultSessionTTL = 10 * time.Minute
)

// AlertPolicy decides whether a drift delta is alarming.
type AlertPolicy struct {
	// Threshold is the minimum delta that raises an alert. Zero means
	// DefaultAlertThreshold.
	Threshold int
}

// DefaultAlertPolicy returns the policy used when none is configured.
func DefaultAlertPolicy() AlertPolicy {
	return AlertPolicy{Threshold: DefaultAlertThreshold}
}

func (p AlertPolicy) threshold() int {
	if p.Threshold <= 0 {
		return DefaultAlertThreshold
	}
	return p.Threshold
}

// Alert reports whether delta meets the threshold.
func (p AlertPolicy) Alert(delta int) bool {
	return delta >= p.threshold()
}

// Record builds the closed DriftRecord for a session.
func (p AlertPolicy) Record(sessionID string, startLoad, endLoad int) ghost.DriftRecord {
	start := ghost.ClampPercent(startLoad)
	end := ghost.ClampPercent(endLoad)
	delta := end - start
	return ghost.DriftRecord{
		SessionID: sessionID,
		StartLoad: start,
		EndLoad:   end,
		Delta:     delta,
		Alert:     p.Alert(delta),
	}
}

// openSession is the state stored between OpenSession and CloseSession.
type openSession struct {
	StartLoad int       `json:"startLoad"`
	OpenedAt  time.Time `json:"openedAt"`
}

func newSessionID() string {
	return uuid.NewString()
}

func encodeSession(s openSession) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode drift session: %w", err)
	}
	return b, nil
}

func decodeSession(b []byte) (openSession, error) {
	var s openSession
	if err := json.Unmarshal(b, &s); err != nil {
		return openSession{}, fmt.Errorf("decode drift session: %w", err)
	}
	return s, nil
}
