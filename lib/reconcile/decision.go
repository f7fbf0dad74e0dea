// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"fmt"

	"github.com/quotasync/quotasync/lib/device"
	"github.com/quotasync/quotasync/lib/identity"
)

// Kind discriminates the decision variants. The set is closed:
// Applier switches over it exhaustively.
type Kind int

const (
	// KindCreate adds a new account for a valid identity.
	KindCreate Kind = iota

	// KindActivate restores the default permission set on an
	// existing, currently permissionless account.
	KindActivate

	// KindDisable revokes every permission from a stale account that
	// still has unaccounted usage.
	KindDisable

	// KindDelete removes a stale account whose counters are all zero.
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindActivate:
		return "activate"
	case KindDisable:
		return "disable"
	case KindDelete:
		return "delete"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Decision is one planned account mutation. Produced once per run by
// Plan, consumed once by Applier, then discarded.
type Decision struct {
	Kind Kind

	// Code is the account code the decision targets.
	Code int

	// Identity is set for Create and Activate.
	Identity identity.Record

	// Account is the current directory entry, set for Activate,
	// Disable, and Delete. For stale accounts with no matching
	// identity, Account.Name is the only label available.
	Account device.Account
}

// Label returns the display label for the decision's target: the
// identity's label when one matched, otherwise the account's own
// stored name.
func (d Decision) Label() string {
	switch d.Kind {
	case KindCreate, KindActivate:
		return d.Identity.Label()
	}
	return d.Account.Name
}

// Describe returns the human-readable description logged before a
// decision is applied. The text is identical in real and simulate
// runs.
func (d Decision) Describe() string {
	return fmt.Sprintf("%s account %d (%s)", d.Kind, d.Code, d.Label())
}
