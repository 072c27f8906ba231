// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package drift

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
)

// MemoryTracker keeps open sessions in a process-local map.
//
// # Description
//
// Sessions that are opened but never closed (a failed end reading, a
// cancelled request) stay in the map until Sweep removes them. Run
// RunSweeper alongside a long-lived tracker.
//
// # Thread Safety
//
// Safe for concurrent use.
type MemoryTracker struct {
	policy AlertPolicy
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]openSession
}

// NewMemoryTracker creates an empty tracker.
func NewMemoryTracker(policy AlertPolicy) *MemoryTracker {
	return &MemoryTracker{
		policy:   policy,
		now:      time.Now,
		sessions: make(map[string]openSession),
	}
}

func (m *MemoryTracker) OpenSession(_ context.Context, startLoad int) (string, error) {
	id := newSessionID()
	m.mu.Lock()
	m.sessions[id] = openSession{StartLoad: ghost.ClampPercent(startLoad), OpenedAt: m.now()}
	m.mu.Unlock()
	return id, nil
}

func (m *MemoryTracker) CloseSession(_ context.Context, sessionID string, endLoad int) (ghost.DriftRecord, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	if !ok {
		return ghost.DriftRecord{}, ErrSessionNotFound
	}
	return m.policy.Record(sessionID, s.StartLoad, endLoad), nil
}

// Open returns the number of sessions currently held.
func (m *MemoryTracker) Open() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions opened more than maxAge ago and returns how many
// were dropped.
func (m *MemoryTracker) Sweep(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.OpenedAt.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done. It always
// returns nil so it can run inside an errgroup next to the server.
func (m *MemoryTracker) RunSweeper(ctx context.Context, interval, maxAge time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("drift sweeper stopped")
			return nil
		case <-ticker.C:
			if n := m.Sweep(maxAge); n > 0 {
				slog.Info("swept abandoned drift sessions", "count", n, "max_age", maxAge.String())
			}
		}
	}
}

var _ ghost.DriftTracker = (*MemoryTracker)(nil)
