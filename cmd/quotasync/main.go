// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/quotasync/quotasync/cmd/quotasync/cli"
	"github.com/quotasync/quotasync/lib/process"
	"github.com/quotasync/quotasync/lib/version"
)

func main() {
	if err := rootCommand().Execute(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func rootCommand() *cli.Command {
	return &cli.Command{
		Name: "quotasync",
		Description: `quotasync: keep a printer's account directory in sync with local identities.

Reconciles the device's account list against the passwd/group identity
files, archives usage counters before destructive changes, and rewrites
generated account blocks in derived configuration files.`,
		Subcommands: []*cli.Command{
			syncCommand(),
			patchCommand(),
			accountsCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func([]string) error {
					version.Print("quotasync")
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Preview the decisions a sync would make",
				Command:     "quotasync sync --simulate",
			},
			{
				Description: "Reconcile and patch artifacts",
				Command:     "quotasync sync --config /etc/quotasync.yaml",
			},
			{
				Description: "List the device's accounts",
				Command:     "quotasync accounts",
			},
		},
	}
}
