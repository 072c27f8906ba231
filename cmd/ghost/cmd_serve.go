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
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianGhost/services/simulator"
)

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ghost HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.serviceConfig()
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			watchLogLevel(a.v, a.logger)

			slog.Info("Starting ghost simulator",
				"port", cfg.Port,
				"drift_backend", cfg.Drift.Backend,
				"otel_endpoint", cfg.OTelEndpoint,
				"config_file", a.v.ConfigFileUsed())

			svc, err := simulator.New(ctx, cfg)
			if err != nil {
				return a.fail(cmd, err)
			}
			if err := svc.Run(ctx); err != nil {
				return a.fail(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Override server.port")
	return cmd
}
