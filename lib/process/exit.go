// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the terminal error path for the quotasync
// binary. Sync runs are typically driven by cron, so the exit status
// is the one signal a scheduler sees; anything that aborts a run must
// land here with a nonzero status.
package process

import (
	"fmt"
	"os"
)

// Fatal reports err on stderr and exits with status 1. It is the last
// stop for errors that reach main, including configuration failures
// raised before the command's logger exists.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
