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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AleutianAI/AleutianGhost/pkg/logging"
	"github.com/AleutianAI/AleutianGhost/pkg/ux"
	"github.com/AleutianAI/AleutianGhost/services/ghost"
	"github.com/AleutianAI/AleutianGhost/services/ghost/telemetry"
	"github.com/AleutianAI/AleutianGhost/services/simulator/datatypes"
)

// app carries state shared by every subcommand.
type app struct {
	configFile  string
	personality string

	v      *viper.Viper
	cfg    ghostConfig
	logger *logging.Logger

	// newSampler builds the stress sampler for local commands.
	newSampler func(cfg ghostConfig) ghost.StressSampler

	// prompter collects interactive simulation input.
	prompter ux.SimulationPrompter
}

func newApp() *app {
	return &app{
		newSampler: func(cfg ghostConfig) ghost.StressSampler {
			return telemetry.NewHostSampler(
				telemetry.WithWarmup(cfg.Sampler.Warmup),
				telemetry.WithHostLogger(slog.Default().With("component", "host_sampler")),
			)
		},
		prompter: ux.FormPrompter{CharLimit: datatypes.MaxScriptBytes},
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ghost",
		Short: "Rehearse difficult conversations against a simulated counterpart",
		Long: `Relational Ghost scores a message for alignment with non-violent
communication, flags boundary breaches, and replies in the voice of the
chosen attachment persona. Under heavy system load it de-escalates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "Path to ghost.yaml")
	rootCmd.PersistentFlags().StringVar(&a.personality, "personality", "",
		"Output style: full, minimal, or machine (scripting)")

	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newSimulateCmd(a))
	rootCmd.AddCommand(newScanCmd(a))
	rootCmd.AddCommand(newStressCmd(a))
	rootCmd.AddCommand(newSchemaCmd())

	return rootCmd
}

// setup loads config, installs the default logger and picks the output style.
func (a *app) setup(cmd *cobra.Command) error {
	v, err := newViper(a.configFile)
	if err != nil {
		return a.fail(cmd, err)
	}
	cfg, err := loadConfig(v)
	if err != nil {
		return a.fail(cmd, err)
	}
	a.v, a.cfg = v, cfg

	level, _ := logging.ParseLevel(cfg.Log.Level)
	a.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Log.Dir,
		Service: "ghost",
		JSON:    cfg.Log.JSON,
		Output:  cmd.ErrOrStderr(),
	})
	slog.SetDefault(a.logger.Slog())

	if a.personality != "" {
		ux.SetPersonalityLevel(ux.ParsePersonalityLevel(a.personality))
	} else {
		ux.InitPersonality()
	}
	return nil
}

// printer writes to the command's stdout at the current personality.
func (a *app) printer(cmd *cobra.Command) *ux.Printer {
	return ux.NewPrinter(cmd.OutOrStdout(), ux.GetPersonality().Level)
}

// fail reports err on stderr and returns it for a non-zero exit.
func (a *app) fail(cmd *cobra.Command, err error) error {
	ux.NewPrinter(cmd.ErrOrStderr(), ux.GetPersonality().Level).Error(err.Error())
	return err
}

// readScript returns the script from --file ("-" for stdin) or the joined
// positional arguments.
func readScript(cmd *cobra.Command, file string, args []string) (string, error) {
	if file == "" {
		return strings.Join(args, " "), nil
	}
	if len(args) > 0 {
		return "", errors.New("pass the script as arguments or --file, not both")
	}

	var r io.Reader
	if file == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(file)
		if err != nil {
			return "", fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, datatypes.MaxScriptBytes+1))
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(data), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of a simulate request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), datatypes.SimulateRequestSchema())
		},
	}
}
