// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/quotasync/quotasync/cmd/quotasync/cli"
	"github.com/quotasync/quotasync/lib/hook"
	"github.com/quotasync/quotasync/lib/identity"
	"github.com/quotasync/quotasync/lib/ledger"
	"github.com/quotasync/quotasync/lib/reconcile"
)

func syncCommand() *cli.Command {
	var configPath string
	var simulate bool
	var verbose bool

	return &cli.Command{
		Name:    "sync",
		Summary: "Reconcile the account directory and patch artifacts",
		Description: `Reconcile the device's account directory against the local identity
files, then rewrite the generated blocks in the configured artifact
files from the post-reconciliation account list.

Stale accounts are deleted when their counters are zero and disabled
otherwise; valid identities get accounts created or re-enabled. Usage
counters are archived to the ledger before every disable and delete.`,
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("sync", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the configuration file (default $QUOTASYNC_CONFIG)")
			flags.BoolVar(&simulate, "simulate", false, "report decisions without mutating anything")
			flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("sync takes no arguments")
			}
			return runSync(configPath, simulate, verbose)
		},
	}
}

func runSync(configPath string, simulateFlag, verbose bool) error {
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

	source := identitySource(cfg)
	identities, err := source.Identities()
	if err != nil {
		return err
	}
	validNames, err := identity.ValidMembers(source, cfg.ValidGroups)
	if err != nil {
		return err
	}

	accounts, err := session.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("listing accounts: %w", err)
	}

	decisions := reconcile.Plan(accounts, identities, validNames, regions)
	logger.Info("reconciliation planned",
		"accounts", len(accounts),
		"identities", len(identities),
		"valid_members", len(validNames),
		"decisions", len(decisions),
		"simulate", simulate,
	)

	var recorder reconcile.Recorder
	if cfg.Ledger.Path != "" && !simulate {
		store, err := ledger.Open(ledger.Config{Path: cfg.Ledger.Path, Logger: logger})
		if err != nil {
			return err
		}
		defer store.Close()
		recorder = store
	}

	applier := &reconcile.Applier{
		Directory: session,
		Recorder:  recorder,
		Logger:    logger,
		Simulate:  simulate,
	}
	applyErr := applier.Apply(ctx, decisions)

	// The hook fires once per run that planned changes, even a
	// partially failed one: downstream consumers want to know the
	// directory may have moved.
	if len(decisions) > 0 {
		runner := &hook.Runner{Command: cfg.HookCommand, Logger: logger, Simulate: simulate}
		runner.Run(ctx, len(decisions))
	}

	patchErr := patchArtifacts(ctx, cfg, session, regions, logger, simulate)

	return errors.Join(applyErr, patchErr)
}
