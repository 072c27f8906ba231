// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianGhost/pkg/ux"
)

func newStressCmd(a *app) *cobra.Command {
	var (
		asJSON   bool
		watch    bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Show the current system stress reading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sampler := a.newSampler(a.cfg)

			if watch {
				if !ux.IsInteractive() {
					return a.fail(cmd, errors.New("--watch needs a terminal"))
				}
				return ux.RunMonitor(cmd.Context(), sampler.Sample, interval)
			}

			snap, err := sampler.Sample(cmd.Context())
			if err != nil {
				return a.fail(cmd, err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), snap)
			}
			a.printer(cmd).Stress(snap)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the reading as JSON")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep sampling in a live view")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Sampling interval for --watch")
	return cmd
}
