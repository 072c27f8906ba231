// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/AleutianAI/AleutianGhost/pkg/logging"
	"github.com/AleutianAI/AleutianGhost/services/ghost/drift"
	"github.com/AleutianAI/AleutianGhost/services/simulator"
)

// ghostConfig mirrors ghost.yaml. Every key can be overridden by an
// environment variable: server.port -> GHOST_SERVER_PORT.
type ghostConfig struct {
	Log     logConfig     `mapstructure:"log"`
	Server  serverConfig  `mapstructure:"server"`
	OTel    otelConfig    `mapstructure:"otel"`
	Sampler samplerConfig `mapstructure:"sampler"`
	Drift   driftConfig   `mapstructure:"drift"`
}

type logConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
	Dir   string `mapstructure:"dir"`
}

type serverConfig struct {
	Port               int      `mapstructure:"port"`
	GinMode            string   `mapstructure:"gin_mode"`
	CORSOrigins        []string `mapstructure:"cors_origins"`
	RateLimitPerMinute int      `mapstructure:"rate_limit_per_minute"`
	RateLimitBurst     int      `mapstructure:"rate_limit_burst"`
}

type otelConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

type samplerConfig struct {
	Warmup time.Duration `mapstructure:"warmup"`
}

type driftConfig struct {
	Backend        string        `mapstructure:"backend"`
	AlertThreshold int           `mapstructure:"alert_threshold"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	Badger         struct {
		Path       string        `mapstructure:"path"`
		GCInterval time.Duration `mapstructure:"gc_interval"`
	} `mapstructure:"badger"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Influx struct {
		URL          string        `mapstructure:"url"`
		Token        string        `mapstructure:"token"`
		Org          string        `mapstructure:"org"`
		Bucket       string        `mapstructure:"bucket"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"influx"`
}

// setConfigDefaults registers every key so AutomaticEnv can see it.
func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.dir", "")

	v.SetDefault("server.port", 12340)
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.rate_limit_per_minute", 120)
	v.SetDefault("server.rate_limit_burst", 20)

	v.SetDefault("otel.endpoint", "")

	v.SetDefault("sampler.warmup", "200ms")

	v.SetDefault("drift.backend", simulator.DriftBackendMemory)
	v.SetDefault("drift.alert_threshold", drift.DefaultAlertThreshold)
	v.SetDefault("drift.session_ttl", drift.DefaultSessionTTL)
	v.SetDefault("drift.sweep_interval", time.Minute)
	v.SetDefault("drift.badger.path", "./data/drift")
	v.SetDefault("drift.badger.gc_interval", 5*time.Minute)
	v.SetDefault("drift.redis.addr", "localhost:6379")
	v.SetDefault("drift.redis.password", "")
	v.SetDefault("drift.redis.db", 0)
	v.SetDefault("drift.influx.url", "")
	v.SetDefault("drift.influx.token", "")
	v.SetDefault("drift.influx.org", "")
	v.SetDefault("drift.influx.bucket", "")
	v.SetDefault("drift.influx.write_timeout", drift.DefaultWriteTimeout)
}

// newViper builds the config reader. An explicit path must exist; without
// one, ghost.yaml is looked up in . and ~/.ghost and may be absent.
func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setConfigDefaults(v)

	v.SetEnvPrefix("GHOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName("ghost")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.ghost")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return v, nil
}

func loadConfig(v *viper.Viper) (ghostConfig, error) {
	var cfg ghostConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// serviceConfig maps the file layout onto simulator.Config.
func (c ghostConfig) serviceConfig() simulator.Config {
	warmup := c.Sampler.Warmup
	return simulator.Config{
		Port:               c.Server.Port,
		GinMode:            c.Server.GinMode,
		OTelEndpoint:       c.OTel.Endpoint,
		CORSOrigins:        c.Server.CORSOrigins,
		RateLimitPerMinute: c.Server.RateLimitPerMinute,
		RateLimitBurst:     c.Server.RateLimitBurst,
		SamplerWarmup:      &warmup,
		Drift: simulator.DriftConfig{
			Backend:          c.Drift.Backend,
			AlertThreshold:   c.Drift.AlertThreshold,
			SessionTTL:       c.Drift.SessionTTL,
			SweepInterval:    c.Drift.SweepInterval,
			BadgerPath:       c.Drift.Badger.Path,
			BadgerGCInterval: c.Drift.Badger.GCInterval,
			RedisAddr:        c.Drift.Redis.Addr,
			RedisPassword:    c.Drift.Redis.Password,
			RedisDB:          c.Drift.Redis.DB,
			Influx: drift.InfluxConfig{
				URL:          c.Drift.Influx.URL,
				Token:        c.Drift.Influx.Token,
				Org:          c.Drift.Influx.Org,
				Bucket:       c.Drift.Influx.Bucket,
				WriteTimeout: c.Drift.Influx.WriteTimeout,
			},
		},
	}
}

// watchLogLevel re-applies log.level whenever the config file changes.
// Other keys need a restart.
func watchLogLevel(v *viper.Viper, logger *logging.Logger) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		applyLogLevel(v, logger, e.Name)
	})
	v.WatchConfig()
}

func applyLogLevel(v *viper.Viper, logger *logging.Logger, file string) {
	level, err := logging.ParseLevel(v.GetString("log.level"))
	if err != nil {
		slog.Warn("ignoring invalid log level in reloaded config", "file", file, "error", err)
		return
	}
	if level == logger.Level() {
		return
	}
	logger.SetLevel(level)
	slog.Info("log level changed", "file", file, "level", level.String())
}
