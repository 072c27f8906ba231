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
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
)

const redisKeyPrefix = "drift:session:"

// RedisConfig holds the connection settings for a RedisTracker.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// redisStore is the subset of redis.Cmdable the tracker uses.
type redisStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

// RedisTracker shares drift sessions across service instances. Keys carry
// a TTL; GETDEL makes close atomic, so a session closes exactly once.
type RedisTracker struct {
	rdb    redisStore
	policy AlertPolicy
	ttl    time.Duration
}

// DialRedis connects and pings within five seconds.
func DialRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// NewRedisTracker wraps a client. The tracker does not own rdb.
func NewRedisTracker(rdb redisStore, policy AlertPolicy, ttl time.Duration) (*RedisTracker, error) {
	if rdb == nil {
		return nil, errors.New("redis client must not be nil")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisTracker{rdb: rdb, policy: policy, ttl: ttl}, nil
}

func (r *RedisTracker) OpenSession(ctx context.Context, startLoad int) (string, error) {
	id := newSessionID()
	val, err := encodeSession(openSession{StartLoad: ghost.ClampPercent(startLoad), OpenedAt: time.Now()})
	if err != nil {
		return "", err
	}
	if err := r.rdb.Set(ctx, redisKeyPrefix+id, val, r.ttl).Err(); err != nil {
		return "", fmt.Errorf("redis set drift session: %w", err)
	}
	return id, nil
}

func (r *RedisTracker) CloseSession(ctx context.Context, sessionID string, endLoad int) (ghost.DriftRecord, error) {
	raw, err := r.rdb.GetDel(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return ghost.DriftRecord{}, ErrSessionNotFound
	}
	if err != nil {
		return ghost.DriftRecord{}, fmt.Errorf("redis getdel drift session: %w", err)
	}
	s, err := decodeSession(raw)
	if err != nil {
		return ghost.DriftRecord{}, err
	}
	return r.policy.Record(sessionID, s.StartLoad, endLoad), nil
}

var _ ghost.DriftTracker = (*RedisTracker)(nil)
