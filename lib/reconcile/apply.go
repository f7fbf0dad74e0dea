// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quotasync/quotasync/lib/device"
)

// Directory is the mutation surface of the device's account
// directory. Implemented by device.MaintenanceSession.
type Directory interface {
	AddAccount(ctx context.Context, account device.Account) error
	UpdateAccount(ctx context.Context, account device.Account) error
	DeleteAccount(ctx context.Context, code int) error
}

// Recorder archives an account's usage counters before a destructive
// decision, so billing can still account for them after the account
// is gone. Implemented by ledger.Ledger.
type Recorder interface {
	RecordSnapshot(ctx context.Context, account device.Account, reason string) error
}

// Applier executes a decision sequence against the directory.
type Applier struct {
	// Directory receives the mutations. Required unless Simulate.
	Directory Directory

	// Recorder, when non-nil, snapshots counters before each disable
	// and delete. A snapshot failure blocks that decision's device
	// call — counters are never silently lost.
	Recorder Recorder

	// Logger describes each decision before it is applied. Required.
	Logger *slog.Logger

	// Simulate reports decisions without applying them. The ledger
	// is not written either.
	Simulate bool
}

// Apply walks the decisions in order. Errors are per-decision: a
// failure is collected and the walk continues; the joined errors are
// returned at the end. The decision description is logged before
// each application attempt, with identical text in simulate runs.
func (a *Applier) Apply(ctx context.Context, decisions []Decision) error {
	var errs []error
	for _, decision := range decisions {
		a.Logger.Info(decision.Describe(),
			"kind", decision.Kind.String(),
			"code", decision.Code,
			"simulate", a.Simulate,
		)
		if a.Simulate {
			continue
		}
		if err := a.apply(ctx, decision); err != nil {
			a.Logger.Error("decision failed",
				"kind", decision.Kind.String(),
				"code", decision.Code,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", decision.Describe(), err))
		}
	}
	return errors.Join(errs...)
}

func (a *Applier) apply(ctx context.Context, decision Decision) error {
	switch decision.Kind {
	case KindCreate:
		return a.Directory.AddAccount(ctx, device.Account{
			Code:        decision.Code,
			Name:        decision.Identity.Label(),
			Permissions: device.DefaultPermissions(),
		})

	case KindActivate:
		account := decision.Account
		account.Name = decision.Identity.Label()
		account.Permissions = device.DefaultPermissions()
		return a.Directory.UpdateAccount(ctx, account)

	case KindDisable:
		if err := a.snapshot(ctx, decision); err != nil {
			return err
		}
		account := decision.Account
		account.Permissions = device.Permissions{}
		return a.Directory.UpdateAccount(ctx, account)

	case KindDelete:
		if err := a.snapshot(ctx, decision); err != nil {
			return err
		}
		return a.Directory.DeleteAccount(ctx, decision.Code)
	}
	return fmt.Errorf("unknown decision kind %d", decision.Kind)
}

func (a *Applier) snapshot(ctx context.Context, decision Decision) error {
	if a.Recorder == nil {
		return nil
	}
	if err := a.Recorder.RecordSnapshot(ctx, decision.Account, decision.Kind.String()); err != nil {
		return fmt.Errorf("recording counter snapshot: %w", err)
	}
	return nil
}
