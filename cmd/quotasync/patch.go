// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/quotasync/quotasync/cmd/quotasync/cli"
	"github.com/quotasync/quotasync/lib/blockfile"
	"github.com/quotasync/quotasync/lib/config"
	"github.com/quotasync/quotasync/lib/device"
	"github.com/quotasync/quotasync/lib/reconcile"
)

func patchCommand() *cli.Command {
	var configPath string
	var simulate bool
	var verbose bool

	return &cli.Command{
		Name:    "patch",
		Summary: "Rewrite artifact files from the current account list",
		Description: `Fetch the device's current account list and rewrite the generated
block in every configured artifact file, without reconciling the
directory first.`,
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("patch", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the configuration file (default $QUOTASYNC_CONFIG)")
			flags.BoolVar(&simulate, "simulate", false, "report target files without rewriting them")
			flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("patch takes no arguments")
			}
			return runPatch(configPath, simulate, verbose)
		},
	}
}

func runPatch(configPath string, simulateFlag, verbose bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	simulate := simulateFlag || cfg.Simulate
	logger := cli.NewCommandLogger(verbose)

	ctx, cancel := signalContext()
	defer cancel()

	regions, err := cfg.ParsedRegions()
	if err != nil {
		return err
	}
	session, err := openSession(cfg, logger)
	if err != nil {
		return err
	}

	return patchArtifacts(ctx, cfg, session, regions, logger, simulate)
}

// patchArtifacts rewrites every configured artifact from the device's
// current account list. Failures are isolated per file: one bad target
// does not undo or block the others.
func patchArtifacts(ctx context.Context, cfg *config.Config, session *device.MaintenanceSession, regions []reconcile.Region, logger *slog.Logger, simulate bool) error {
	if len(cfg.Artifacts) == 0 {
		return nil
	}

	accounts, err := session.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("listing accounts for artifacts: %w", err)
	}
	entries := artifactEntries(accounts, regions)

	var errs []error
	for _, artifact := range cfg.Artifacts {
		if simulate {
			logger.Info("simulate: skipping artifact patch",
				"path", artifact.Path, "entries", len(entries))
			continue
		}
		if err := blockfile.Rewrite(artifact.Path, artifact.Markers, entries); err != nil {
			logger.Error("artifact patch failed", "path", artifact.Path, "error", err)
			errs = append(errs, fmt.Errorf("patching %s: %w", artifact.Path, err))
			continue
		}
		logger.Info("artifact patched", "path", artifact.Path, "entries", len(entries))
	}
	return errors.Join(errs...)
}
