// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the small command framework behind the
// quotasync binary: a dispatching command tree with pflag flag
// parsing, generated help output, and typo suggestions for unknown
// commands and flags.
package cli
