// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package simulator provides the HTTP service around the ghost engine.
//
// This package wires the engine's collaborators (host stress sampler,
// lexical resonance analyzer, configured drift tracker), tracing, metrics
// and the gin router, and owns their lifecycle.
//
// # Usage
//
//	cfg := simulator.Config{Port: 12340}
//	svc, err := simulator.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	return svc.Run(ctx)
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
	"github.com/AleutianAI/AleutianGhost/services/ghost/resonance"
	"github.com/AleutianAI/AleutianGhost/services/ghost/telemetry"
	"github.com/AleutianAI/AleutianGhost/services/simulator/middleware"
	"github.com/AleutianAI/AleutianGhost/services/simulator/observability"
	"github.com/AleutianAI/AleutianGhost/services/simulator/routes"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the simulator service.
//
// # Thread Safety
//
// Run blocks and should only be called once per instance.
type Service interface {
	// Run serves HTTP until ctx is cancelled or the server fails, then
	// shuts down gracefully and releases every backend.
	Run(ctx context.Context) error

	// Router returns the configured gin engine for testing.
	Router() *gin.Engine

	// Engine returns the simulation engine.
	Engine() *ghost.Simulator
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds simulator configuration.
//
// # Description
//
// All fields are optional; applyConfigDefaults fills the gaps. Values come
// from viper in cmd/ghost or are set directly in tests.
type Config struct {
	// Port is the HTTP server port. Default: 12340
	Port int

	// GinMode is passed to gin.SetMode when set.
	GinMode string

	// ServiceName is reported to the tracer and otelgin. Default: ghost-simulator
	ServiceName string

	// OTelEndpoint is the OTLP gRPC collector. Empty disables trace export.
	OTelEndpoint string

	// CORSOrigins lists origins allowed to call the API. Empty disables CORS.
	CORSOrigins []string

	// RateLimitPerMinute is the per-client request rate. Zero disables limiting.
	RateLimitPerMinute int

	// RateLimitBurst is the per-client burst. Default: RateLimitPerMinute
	RateLimitBurst int

	// SamplerWarmup is the first-read window of the host sampler. Nil means
	// 200ms; zero disables the warm-up.
	SamplerWarmup *time.Duration

	// ShutdownTimeout bounds graceful shutdown. Default: 10s
	ShutdownTimeout time.Duration

	// Drift selects and configures the drift tracker backend.
	Drift DriftConfig
}

// Option customises New.
type Option func(*service)

// WithSampler replaces the host stress sampler.
func WithSampler(s ghost.StressSampler) Option {
	return func(svc *service) { svc.sampler = s }
}

// WithAnalyzer replaces the lexical resonance analyzer.
func WithAnalyzer(a ghost.ResonanceAnalyzer) Option {
	return func(svc *service) { svc.analyzer = a }
}

// =============================================================================
// Service Implementation
// =============================================================================

type service struct {
	config   Config
	router   *gin.Engine
	engine   *ghost.Simulator
	registry *prometheus.Registry

	sampler  ghost.StressSampler
	analyzer ghost.ResonanceAnalyzer
	backend  *driftBackend

	tracerCleanup func(context.Context)
}

// New builds the service: tracer, metrics, collaborators, engine and router.
//
// # Outputs
//
//   - Service: ready to Run
//   - error: non-nil if the tracer, drift backend or engine cannot be built;
//     anything already opened is released
func New(ctx context.Context, cfg Config, opts ...Option) (Service, error) {
	s := &service{config: applyConfigDefaults(cfg)}
	for _, opt := range opts {
		opt(s)
	}

	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	if s.config.OTelEndpoint != "" {
		cleanup, err := s.initTracer(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
		s.tracerCleanup = cleanup
	}

	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewGhostMetrics(s.registry)

	backend, err := openDriftBackend(ctx, s.config.Drift)
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize drift tracker: %w", err)
	}
	s.backend = backend

	if s.sampler == nil {
		s.sampler = telemetry.NewHostSampler(
			telemetry.WithWarmup(*s.config.SamplerWarmup),
			telemetry.WithHostLogger(slog.Default().With("component", "host_sampler")),
		)
	}
	if s.analyzer == nil {
		s.analyzer = resonance.NewLexicalAnalyzer()
	}

	s.engine, err = ghost.NewSimulator(s.sampler, s.analyzer, backend.tracker, ghost.WithLogger(slog.Default()))
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize simulator: %w", err)
	}

	s.initRouter(metrics)
	return s, nil
}

// Run starts the HTTP server on the configured port.
func (s *service) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.cleanup()
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *service) serve(ctx context.Context, ln net.Listener) error {
	defer s.cleanup()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting ghost simulator server", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		slog.Info("Shutting down ghost simulator server")
		return srv.Shutdown(shutdownCtx)
	})
	for _, run := range s.backend.runners {
		g.Go(func() error { return run(gctx) })
	}

	return g.Wait()
}

func (s *service) Router() *gin.Engine {
	return s.router
}

func (s *service) Engine() *ghost.Simulator {
	return s.engine
}

// applyConfigDefaults fills zero-valued fields.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12340
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "ghost-simulator"
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = cfg.RateLimitPerMinute
	}
	if cfg.SamplerWarmup == nil {
		warmup := telemetry.DefaultWarmup
		cfg.SamplerWarmup = &warmup
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	cfg.Drift = applyDriftDefaults(cfg.Drift)
	return cfg
}

func (s *service) initRouter(metrics *observability.GhostMetrics) {
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(otelgin.Middleware(s.config.ServiceName))
	s.router.Use(middleware.CORS(s.config.CORSOrigins))
	s.router.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerMinute: s.config.RateLimitPerMinute,
		Burst:             s.config.RateLimitBurst,
	}))

	routes.SetupRoutes(s.router, s.engine, metrics, s.registry)
}

func (s *service) cleanup() {
	if s.backend != nil {
		s.backend.close()
		s.backend = nil
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
		s.tracerCleanup = nil
	}
}

var _ Service = (*service)(nil)
