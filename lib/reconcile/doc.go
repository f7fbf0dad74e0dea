// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

// Package reconcile computes and applies the minimal set of account
// mutations that align the device's account directory with the local
// identity source.
//
// Plan is a pure function over snapshots — no I/O — so the decision
// logic is testable without a device. Applier is the I/O step: it
// walks the decision sequence in order, describes each decision, and
// applies it through the Directory interface unless running in
// simulate mode. A failure applying one decision never discards the
// rest of the run; all failures are collected and surfaced together.
//
// Code regions fence what reconciliation may touch: accounts whose
// code lies outside every configured region are invisible to Plan,
// and identities whose code lies outside every region are never
// created.
package reconcile
