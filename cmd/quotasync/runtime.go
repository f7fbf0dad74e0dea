// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/quotasync/quotasync/lib/blockfile"
	"github.com/quotasync/quotasync/lib/config"
	"github.com/quotasync/quotasync/lib/device"
	"github.com/quotasync/quotasync/lib/identity"
	"github.com/quotasync/quotasync/lib/reconcile"
)

// loadConfig resolves the configuration from the --config flag value
// or, when empty, the QUOTASYNC_CONFIG environment variable, and
// validates it.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openSession builds the device maintenance session from the
// configuration.
func openSession(cfg *config.Config, logger *slog.Logger) (*device.MaintenanceSession, error) {
	return device.NewMaintenanceSession(device.SessionConfig{
		Host:       cfg.Device.Host,
		Port:       cfg.Device.Port,
		Credential: cfg.Device.Credential,
		RetryBusy:  cfg.Device.RetryBusy,
		Logger:     logger,
	})
}

// identitySource builds the passwd/group file source from the
// configuration.
func identitySource(cfg *config.Config) *identity.FileSource {
	return &identity.FileSource{
		PasswdPath: cfg.Identity.PasswdFile,
		GroupPath:  cfg.Identity.GroupFile,
	}
}

// artifactEntries projects the in-region accounts onto the generated
// block format, sorted by code for stable output.
func artifactEntries(accounts []device.Account, regions []reconcile.Region) []blockfile.Entry {
	entries := make([]blockfile.Entry, 0, len(accounts))
	for _, account := range accounts {
		if !reconcile.InAny(account.Code, regions) {
			continue
		}
		entries = append(entries, blockfile.Entry{Code: account.Code, Label: account.Name})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Code < entries[j].Code })
	return entries
}
