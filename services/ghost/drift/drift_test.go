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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
)

func TestAlertPolicy(t *testing.T) {
	p := DefaultAlertPolicy()
	assert.False(t, p.Alert(19))
	assert.True(t, p.Alert(20))
	assert.False(t, p.Alert(-40))

	assert.True(t, AlertPolicy{}.Alert(DefaultAlertThreshold), "zero value uses default")
	assert.True(t, AlertPolicy{Threshold: 5}.Alert(5))

	rec := p.Record("s", 50, 75)
	assert.Equal(t, ghost.DriftRecord{SessionID: "s", StartLoad: 50, EndLoad: 75, Delta: 25, Alert: true}, rec)

	rec = p.Record("s", 120, -3)
	assert.Equal(t, 100, rec.StartLoad)
	assert.Equal(t, 0, rec.EndLoad)
	assert.Equal(t, -100, rec.Delta)
}

// trackerContract runs the behaviour every backend shares.
func trackerContract(t *testing.T, tr ghost.DriftTracker) {
	t.Helper()
	ctx := context.Background()

	t.Run("open then close", func(t *testing.T) {
		id, err := tr.OpenSession(ctx, 40)
		require.NoError(t, err)
		_, err = uuid.Parse(id)
		require.NoError(t, err, "session ids are uuids")

		rec, err := tr.CloseSession(ctx, id, 65)
		require.NoError(t, err)
		assert.Equal(t, id, rec.SessionID)
		assert.Equal(t, 40, rec.StartLoad)
		assert.Equal(t, 65, rec.EndLoad)
		assert.Equal(t, 25, rec.Delta)
		assert.True(t, rec.Alert)
	})

	t.Run("negative delta", func(t *testing.T) {
		id, err := tr.OpenSession(ctx, 70)
		require.NoError(t, err)
		rec, err := tr.CloseSession(ctx, id, 30)
		require.NoError(t, err)
		assert.Equal(t, -40, rec.Delta)
		assert.False(t, rec.Alert)
	})

	t.Run("close twice", func(t *testing.T) {
		id, err := tr.OpenSession(ctx, 10)
		require.NoError(t, err)
		_, err = tr.CloseSession(ctx, id, 10)
		require.NoError(t, err)
		_, err = tr.CloseSession(ctx, id, 10)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := tr.CloseSession(ctx, "does-not-exist", 10)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("interleaved sessions stay isolated", func(t *testing.T) {
		a, err := tr.OpenSession(ctx, 10)
		require.NoError(t, err)
		b, err := tr.OpenSession(ctx, 90)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)

		recB, err := tr.CloseSession(ctx, b, 95)
		require.NoError(t, err)
		recA, err := tr.CloseSession(ctx, a, 15)
		require.NoError(t, err)
		assert.Equal(t, 5, recA.Delta)
		assert.Equal(t, 5, recB.Delta)
	})

	t.Run("concurrent opens and closes", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 50)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(start int) {
				defer wg.Done()
				id, err := tr.OpenSession(ctx, start)
				if err != nil {
					errs <- err
					return
				}
				rec, err := tr.CloseSession(ctx, id, start+1)
				if err != nil {
					errs <- err
					return
				}
				if rec.StartLoad != start || rec.Delta != 1 {
					errs <- errors.New("session state crossed between goroutines")
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Error(err)
		}
	})
}

func TestMemoryTracker_Contract(t *testing.T) {
	trackerContract(t, NewMemoryTracker(DefaultAlertPolicy()))
}

func TestMemoryTracker_Sweep(t *testing.T) {
	m := NewMemoryTracker(DefaultAlertPolicy())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	old, err := m.OpenSession(context.Background(), 10)
	require.NoError(t, err)
	now = now.Add(10 * time.Minute)
	fresh, err := m.OpenSession(context.Background(), 20)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Sweep(5*time.Minute))
	assert.Equal(t, 1, m.Open())

	_, err = m.CloseSession(context.Background(), old, 10)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.CloseSession(context.Background(), fresh, 20)
	assert.NoError(t, err)
}

func TestMemoryTracker_RunSweeperStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	m := NewMemoryTracker(DefaultAlertPolicy())
	_, err := m.OpenSession(context.Background(), 10)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.RunSweeper(ctx, 5*time.Millisecond, 0) }()

	require.Eventually(t, func() bool { return m.Open() == 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
