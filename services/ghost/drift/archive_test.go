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
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWriteAPI struct {
	mu             sync.Mutex
	WritePointFunc func(ctx context.Context, point ...*write.Point) error
	WrittenPoints  []*write.Point
}

func (m *mockWriteAPI) WritePoint(ctx context.Context, point ...*write.Point) error {
	m.mu.Lock()
	m.WrittenPoints = append(m.WrittenPoints, point...)
	m.mu.Unlock()
	if m.WritePointFunc != nil {
		return m.WritePointFunc(ctx, point...)
	}
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestArchivingTracker_WritesClosedRecords(t *testing.T) {
	w := &mockWriteAPI{}
	tr := NewArchivingTracker(NewMemoryTracker(DefaultAlertPolicy()), w, quietLogger())
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return at }

	id, err := tr.OpenSession(context.Background(), 50)
	require.NoError(t, err)
	rec, err := tr.CloseSession(context.Background(), id, 75)
	require.NoError(t, err)
	assert.True(t, rec.Alert)

	require.Len(t, w.WrittenPoints, 1)
	line := write.PointToLineProtocol(w.WrittenPoints[0], time.Nanosecond)
	assert.Contains(t, line, Measurement+",alert=true ")
	assert.Contains(t, line, "delta=25i")
	assert.Contains(t, line, "start_load=50i")
	assert.Contains(t, line, "end_load=75i")
	assert.Contains(t, line, `session_id="`+id+`"`)
	assert.Equal(t, at, w.WrittenPoints[0].Time())
}

func TestArchivingTracker_WriteFailureDoesNotFailClose(t *testing.T) {
	w := &mockWriteAPI{WritePointFunc: func(context.Context, ...*write.Point) error {
		return errors.New("influx down")
	}}
	tr := NewArchivingTracker(NewMemoryTracker(DefaultAlertPolicy()), w, quietLogger())

	id, err := tr.OpenSession(context.Background(), 10)
	require.NoError(t, err)
	rec, err := tr.CloseSession(context.Background(), id, 12)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Delta)
}

func TestArchivingTracker_SlowArchiveIsBounded(t *testing.T) {
	var hadDeadline bool
	w := &mockWriteAPI{WritePointFunc: func(ctx context.Context, _ ...*write.Point) error {
		_, hadDeadline = ctx.Deadline()
		<-ctx.Done()
		return ctx.Err()
	}}
	tr := NewArchivingTracker(NewMemoryTracker(DefaultAlertPolicy()), w, quietLogger(),
		WithWriteTimeout(20*time.Millisecond))

	id, err := tr.OpenSession(context.Background(), 10)
	require.NoError(t, err)

	start := time.Now()
	rec, err := tr.CloseSession(context.Background(), id, 40)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, hadDeadline)
	assert.Equal(t, 30, rec.Delta)
}

func TestNewArchivingTracker_DefaultWriteTimeout(t *testing.T) {
	tr := NewArchivingTracker(NewMemoryTracker(DefaultAlertPolicy()), &mockWriteAPI{}, nil,
		WithWriteTimeout(0))
	assert.Equal(t, DefaultWriteTimeout, tr.timeout)
}

func TestArchivingTracker_SkipsFailedCloses(t *testing.T) {
	w := &mockWriteAPI{}
	tr := NewArchivingTracker(NewMemoryTracker(DefaultAlertPolicy()), w, quietLogger())

	_, err := tr.CloseSession(context.Background(), "missing", 12)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Empty(t, w.WrittenPoints)
}

func TestNewInfluxArchive_RequiresLocation(t *testing.T) {
	_, err := NewInfluxArchive(InfluxConfig{URL: "http://localhost:8086"})
	assert.Error(t, err)

	a, err := NewInfluxArchive(InfluxConfig{URL: "http://localhost:8086", Org: "aleutian", Bucket: "ghost"})
	require.NoError(t, err)
	assert.NotNil(t, a.Writer)
	a.Close()
}
