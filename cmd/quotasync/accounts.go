// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/quotasync/quotasync/cmd/quotasync/cli"
	"github.com/quotasync/quotasync/lib/device"
)

func accountsCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "accounts",
		Summary: "List the device's account directory",
		Description: `Fetch and print every account on the device, including the built-in
shared account (code 0). Page counts are A4-equivalent: an A3 page
counts double.`,
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("accounts", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to the configuration file (default $QUOTASYNC_CONFIG)")
			flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("accounts takes no arguments")
			}
			return runAccounts(configPath, verbose)
		},
	}
}

func runAccounts(configPath string, verbose bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := cli.NewCommandLogger(verbose)

	ctx, cancel := signalContext()
	defer cancel()

	session, err := openSession(cfg, logger)
	if err != nil {
		return err
	}
	accounts, err := session.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("listing accounts: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tCOPY\tPRINT\tSCAN\tPERMISSIONS")
	for _, account := range accounts {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\n",
			account.Code,
			account.Name,
			account.Counters.CopyA4Total(),
			account.Counters.PrintA4Total(),
			account.Counters.ScanA4Total(),
			formatPermissions(account.Permissions),
		)
	}
	return tw.Flush()
}

func formatPermissions(p device.Permissions) string {
	var grants []string
	if p.Copy {
		grants = append(grants, "copy")
	}
	if p.Print {
		grants = append(grants, "print")
	}
	if p.Scan {
		grants = append(grants, "scan")
	}
	if p.Storage {
		grants = append(grants, "storage")
	}
	if len(grants) == 0 {
		return "-"
	}
	return strings.Join(grants, ",")
}
