// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

// Package version exposes the build version stamped at link time.
package version

import (
	"fmt"
	"runtime"
)

// Version is the release version, overridden at build time via
// -ldflags "-X .../lib/version.Version=v1.2.3".
var Version = "devel"

// Print writes the version line for the named binary to stdout.
func Print(binary string) {
	fmt.Printf("%s %s (%s, %s/%s)\n", binary, Version, runtime.Version(),
		runtime.GOOS, runtime.GOARCH)
}
