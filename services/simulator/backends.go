// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
	"github.com/AleutianAI/AleutianGhost/services/ghost/drift"
)

// Drift backends.
const (
	DriftBackendMemory = "memory"
	DriftBackendBadger = "badger"
	DriftBackendRedis  = "redis"
)

// DriftConfig selects the drift tracker.
type DriftConfig struct {
	// Backend is memory, badger or redis. Default: memory
	Backend string

	// AlertThreshold is the delta that raises an alert. Default: 20
	AlertThreshold int

	// SessionTTL bounds unclosed sessions in every backend. Default: 10m
	SessionTTL time.Duration

	// SweepInterval is how often the memory backend sweeps. Default: 1m
	SweepInterval time.Duration

	// BadgerPath is the badger data directory. Default: ./data/drift
	BadgerPath string

	// BadgerGCInterval is the value-log GC period. Default: 5m
	BadgerGCInterval time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Influx enables drift archival when Influx.URL is set.
	Influx drift.InfluxConfig
}

func applyDriftDefaults(cfg DriftConfig) DriftConfig {
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if cfg.Backend == "" {
		cfg.Backend = DriftBackendMemory
	}
	if cfg.AlertThreshold == 0 {
		cfg.AlertThreshold = drift.DefaultAlertThreshold
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = drift.DefaultSessionTTL
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.BadgerPath == "" {
		cfg.BadgerPath = "./data/drift"
	}
	if cfg.BadgerGCInterval == 0 {
		cfg.BadgerGCInterval = 5 * time.Minute
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	return cfg
}

// driftBackend is an opened tracker plus the goroutines and closers it needs.
type driftBackend struct {
	tracker ghost.DriftTracker
	runners []func(context.Context) error
	closers []func()
}

func (b *driftBackend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

// openDriftBackend opens the configured tracker, wrapped for archival when
// an InfluxDB URL is configured.
func openDriftBackend(ctx context.Context, cfg DriftConfig) (*driftBackend, error) {
	policy := drift.AlertPolicy{Threshold: cfg.AlertThreshold}
	b := &driftBackend{}

	switch cfg.Backend {
	case DriftBackendMemory:
		m := drift.NewMemoryTracker(policy)
		b.tracker = m
		b.runners = append(b.runners, func(ctx context.Context) error {
			return m.RunSweeper(ctx, cfg.SweepInterval, cfg.SessionTTL)
		})

	case DriftBackendBadger:
		db, err := drift.OpenBadger(drift.BadgerConfig{
			Path:       cfg.BadgerPath,
			SyncWrites: true,
			Logger:     slog.Default().With("component", "badger"),
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() {
			if err := db.Close(); err != nil {
				slog.Warn("badger close error", "error", err)
			}
		})
		t, err := drift.NewBadgerTracker(db, policy, cfg.SessionTTL)
		if err != nil {
			b.close()
			return nil, err
		}
		b.tracker = t
		b.runners = append(b.runners, func(ctx context.Context) error {
			return t.RunGC(ctx, cfg.BadgerGCInterval, 0.5)
		})

	case DriftBackendRedis:
		rdb, err := drift.DialRedis(ctx, drift.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = rdb.Close() })
		t, err := drift.NewRedisTracker(rdb, policy, cfg.SessionTTL)
		if err != nil {
			b.close()
			return nil, err
		}
		b.tracker = t

	default:
		return nil, fmt.Errorf("unknown drift backend %q", cfg.Backend)
	}

	if cfg.Influx.URL != "" {
		archive, err := drift.NewInfluxArchive(cfg.Influx)
		if err != nil {
			b.close()
			return nil, err
		}
		b.closers = append(b.closers, archive.Close)
		b.tracker = drift.NewArchivingTracker(b.tracker, archive.Writer, slog.Default(),
			drift.WithWriteTimeout(cfg.Influx.WriteTimeout))
		slog.Info("Drift archival enabled", "url", cfg.Influx.URL, "bucket", cfg.Influx.Bucket)
	}

	slog.Info("Drift tracker ready", "backend", cfg.Backend, "alert_threshold", cfg.AlertThreshold)
	return b, nil
}
