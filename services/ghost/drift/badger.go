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
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
)

const badgerKeyPrefix = "drift/session/"

// BadgerConfig holds configuration for the embedded drift store.
type BadgerConfig struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	InMemory bool

	// SyncWrites enables synchronous writes.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. Nil disables it.
	Logger *slog.Logger
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenBadger opens the BadgerDB instance backing a BadgerTracker.
//
// # Inputs
//
//   - cfg: Path is required unless InMemory is true; the directory is
//     created if missing.
//
// # Outputs
//
//   - *badger.DB: caller must Close it
//   - error: non-nil if the path is invalid or the database cannot open
func OpenBadger(cfg BadgerConfig) (*badger.DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent drift store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create drift store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger drift store: %w", err)
	}
	return db, nil
}

// BadgerTracker stores open sessions in BadgerDB with an entry TTL, so
// abandoned sessions expire without a sweeper.
//
// # Thread Safety
//
// Safe for concurrent use. Close is a single read-and-delete transaction;
// when two callers race to close one session, the loser gets
// ErrSessionNotFound.
type BadgerTracker struct {
	db     *badger.DB
	policy AlertPolicy
	ttl    time.Duration
}

// NewBadgerTracker wraps an open database. The tracker does not own db.
func NewBadgerTracker(db *badger.DB, policy AlertPolicy, ttl time.Duration) (*BadgerTracker, error) {
	if db == nil {
		return nil, errors.New("badger db must not be nil")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &BadgerTracker{db: db, policy: policy, ttl: ttl}, nil
}

func badgerKey(id string) []byte {
	return []byte(badgerKeyPrefix + id)
}

func (b *BadgerTracker) OpenSession(_ context.Context, startLoad int) (string, error) {
	id := newSessionID()
	val, err := encodeSession(openSession{StartLoad: ghost.ClampPercent(startLoad), OpenedAt: time.Now()})
	if err != nil {
		return "", err
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(badgerKey(id), val).WithTTL(b.ttl))
	})
	if err != nil {
		return "", fmt.Errorf("store drift session: %w", err)
	}
	return id, nil
}

func (b *BadgerTracker) CloseSession(_ context.Context, sessionID string, endLoad int) (ghost.DriftRecord, error) {
	var s openSession
	err := b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(sessionID))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if s, err = decodeSession(raw); err != nil {
			return err
		}
		return txn.Delete(badgerKey(sessionID))
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound), errors.Is(err, badger.ErrConflict):
		return ghost.DriftRecord{}, ErrSessionNotFound
	case err != nil:
		return ghost.DriftRecord{}, fmt.Errorf("close drift session: %w", err)
	}
	return b.policy.Record(sessionID, s.StartLoad, endLoad), nil
}

// RunGC triggers value-log garbage collection every interval until ctx is
// done. Expired sessions only release disk space through this.
func (b *BadgerTracker) RunGC(ctx context.Context, interval time.Duration, ratio float64) error {
	if interval <= 0 || b.db.Opts().InMemory {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := b.db.RunValueLogGC(ratio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				slog.Warn("badger value log GC error", "error", err)
			}
		}
	}
}

var _ ghost.DriftTracker = (*BadgerTracker)(nil)
