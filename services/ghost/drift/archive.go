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
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
)

// Measurement is the InfluxDB measurement closed drift records are written to.
const Measurement = "ghost_drift"

// DefaultWriteTimeout bounds each archive write.
const DefaultWriteTimeout = 500 * time.Millisecond

// PointWriter is satisfied by api.WriteAPIBlocking.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxConfig locates the archive bucket.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string

	// WriteTimeout bounds each point write. Default: DefaultWriteTimeout
	WriteTimeout time.Duration
}

// InfluxArchive owns the InfluxDB client behind an ArchivingTracker.
type InfluxArchive struct {
	client influxdb2.Client
	Writer PointWriter
}

// NewInfluxArchive creates a blocking writer for cfg.Bucket. No connection
// is made until the first write.
func NewInfluxArchive(cfg InfluxConfig) (*InfluxArchive, error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, errors.New("influx url, org and bucket are required")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxArchive{
		client: client,
		Writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

// Close releases the client.
func (a *InfluxArchive) Close() {
	a.client.Close()
}

// ArchivingTracker decorates a DriftTracker and writes every successfully
// closed record to InfluxDB. Archive failures are logged and never fail the
// close.
//
// The write runs inline with the close, so each write is bounded by a short
// timeout: a slow archive costs at most that much per simulation.
type ArchivingTracker struct {
	ghost.DriftTracker
	writer  PointWriter
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// ArchiveOption customises an ArchivingTracker.
type ArchiveOption func(*ArchivingTracker)

// WithWriteTimeout overrides DefaultWriteTimeout. Non-positive values are
// ignored.
func WithWriteTimeout(d time.Duration) ArchiveOption {
	return func(a *ArchivingTracker) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewArchivingTracker wraps inner. A nil logger means slog.Default().
func NewArchivingTracker(inner ghost.DriftTracker, writer PointWriter, logger *slog.Logger, opts ...ArchiveOption) *ArchivingTracker {
	if logger == nil {
		logger = slog.Default()
	}
	a := &ArchivingTracker{
		DriftTracker: inner,
		writer:       writer,
		logger:       logger,
		timeout:      DefaultWriteTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *ArchivingTracker) CloseSession(ctx context.Context, sessionID string, endLoad int) (ghost.DriftRecord, error) {
	rec, err := a.DriftTracker.CloseSession(ctx, sessionID, endLoad)
	if err != nil {
		return rec, err
	}
	wctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	if werr := a.writer.WritePoint(wctx, recordPoint(rec, a.now())); werr != nil {
		a.logger.Warn("failed to archive drift record",
			"session_id", rec.SessionID,
			"error", werr)
	}
	return rec, nil
}

func recordPoint(rec ghost.DriftRecord, at time.Time) *write.Point {
	alert := "false"
	if rec.Alert {
		alert = "true"
	}
	return influxdb2.NewPointWithMeasurement(Measurement).
		AddTag("alert", alert).
		AddField("session_id", rec.SessionID).
		AddField("start_load", rec.StartLoad).
		AddField("end_load", rec.EndLoad).
		AddField("delta", rec.Delta).
		SetTime(at)
}

var _ ghost.DriftTracker = (*ArchivingTracker)(nil)
