// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianGhost/services/ghost"
	"github.com/AleutianAI/AleutianGhost/services/simulator/datatypes"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "scan [script...]",
		Short: "List boundary breaches in a script",
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := readScript(cmd, file, args)
			if err != nil {
				return a.fail(cmd, err)
			}
			req := datatypes.BreachesRequest{Script: script}
			if err := req.Validate(); err != nil {
				return a.fail(cmd, fmt.Errorf("invalid request: %w", err))
			}

			breaches := ghost.DetectBreaches(script)
			if breaches == nil {
				breaches = []ghost.Breach{}
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), datatypes.BreachesResponse{Breaches: breaches})
			}
			a.printer(cmd).Breaches(script, breaches)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `Read the script from a file ("-" for stdin)`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the API response body as JSON")
	return cmd
}
