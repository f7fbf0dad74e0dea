// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

// Package hook runs the operator-configured notification command after
// a reconciliation run changes the directory.
package hook

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
)

// Runner invokes a shell command once per reconciliation run that
// produced at least one decision. The caller is responsible for the
// at-most-once guarantee; Runner only executes.
type Runner struct {
	// Command is the shell command line, run via "sh -c". Empty means
	// no hook is configured and Run is a no-op.
	Command string

	// Logger reports hook output and failures. Required.
	Logger *slog.Logger

	// Simulate logs what would run instead of running it.
	Simulate bool
}

// Run executes the hook. Hook failures are deliberately not
// propagated: the reconciliation already happened, and a broken
// notification must not fail the run. Failures are logged at warn.
func (r *Runner) Run(ctx context.Context, changes int) {
	if r.Command == "" {
		return
	}
	if r.Simulate {
		r.Logger.Info("simulate: skipping change hook",
			"command", r.Command,
			"changes", changes,
		)
		return
	}

	r.Logger.Info("running change hook", "command", r.Command, "changes", changes)
	cmd := exec.CommandContext(ctx, "sh", "-c", r.Command)
	output, err := cmd.CombinedOutput()
	if trimmed := strings.TrimSpace(string(output)); trimmed != "" {
		r.Logger.Info("change hook output", "output", trimmed)
	}
	if err != nil {
		r.Logger.Warn("change hook failed", "command", r.Command, "error", err)
	}
}
