// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

// Package device models the copier's user-code account directory and
// implements the maintenance client that mutates it.
//
// An Account is the device's tracked identity for print/copy/scan/
// storage usage: a stable numeric code, a display name, four
// capability grants, and monotonic per-capability page counters. The
// device speaks a bespoke XML dialect over plain HTTP; every
// operation is a self-contained POST carrying an obfuscated
// credential, with no session state on the wire. The busy-retry
// behavior lives entirely in this package — callers see one blocking
// call per operation.
package device
