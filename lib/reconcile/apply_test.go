// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/quotasync/quotasync/lib/device"
	"github.com/quotasync/quotasync/lib/identity"
)

// fakeDirectory records mutations and injects failures per code.
type fakeDirectory struct {
	calls   []string
	failing map[int]error
}

func (f *fakeDirectory) AddAccount(_ context.Context, account device.Account) error {
	f.calls = append(f.calls, fmt.Sprintf("add %d %s", account.Code, account.Name))
	return f.failing[account.Code]
}

func (f *fakeDirectory) UpdateAccount(_ context.Context, account device.Account) error {
	f.calls = append(f.calls, fmt.Sprintf("update %d any=%t", account.Code, account.Permissions.Any()))
	return f.failing[account.Code]
}

func (f *fakeDirectory) DeleteAccount(_ context.Context, code int) error {
	f.calls = append(f.calls, fmt.Sprintf("delete %d", code))
	return f.failing[code]
}

// fakeRecorder records snapshots and optionally fails.
type fakeRecorder struct {
	snapshots []string
	err       error
}

func (f *fakeRecorder) RecordSnapshot(_ context.Context, account device.Account, reason string) error {
	f.snapshots = append(f.snapshots, fmt.Sprintf("%d %s", account.Code, reason))
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestApplyExecutesDecisions(t *testing.T) {
	directory := &fakeDirectory{}
	applier := &Applier{Directory: directory, Logger: discardLogger()}

	decisions := []Decision{
		{Kind: KindDelete, Code: 1002, Account: device.Account{Code: 1002}},
		{Kind: KindDisable, Code: 1003, Account: device.Account{Code: 1003, Permissions: device.Permissions{Print: true}}},
		{Kind: KindCreate, Code: 1001, Identity: identity.Record{ID: 1001, Name: "alice"}},
		{Kind: KindActivate, Code: 1004, Identity: identity.Record{ID: 1004, Name: "bob"}, Account: device.Account{Code: 1004, Name: "bob"}},
	}
	if err := applier.Apply(context.Background(), decisions); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := []string{
		"delete 1002",
		"update 1003 any=false",
		"add 1001 alice",
		"update 1004 any=true",
	}
	if len(directory.calls) != len(want) {
		t.Fatalf("calls = %v", directory.calls)
	}
	for i, call := range want {
		if directory.calls[i] != call {
			t.Errorf("call %d = %q, want %q", i, directory.calls[i], call)
		}
	}
}

func TestApplySimulateTouchesNothing(t *testing.T) {
	directory := &fakeDirectory{}
	recorder := &fakeRecorder{}
	applier := &Applier{Directory: directory, Recorder: recorder, Logger: discardLogger(), Simulate: true}

	decisions := []Decision{
		{Kind: KindCreate, Code: 1001, Identity: identity.Record{ID: 1001, Name: "alice"}},
		{Kind: KindDelete, Code: 1002, Account: device.Account{Code: 1002}},
	}
	if err := applier.Apply(context.Background(), decisions); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(directory.calls) != 0 {
		t.Errorf("simulate run mutated the directory: %v", directory.calls)
	}
	if len(recorder.snapshots) != 0 {
		t.Errorf("simulate run wrote snapshots: %v", recorder.snapshots)
	}
}

func TestApplyContinuesAfterFailure(t *testing.T) {
	directory := &fakeDirectory{failing: map[int]error{
		1002: &device.DirectoryError{Op: "deleteUser", Code: "systemBusy"},
	}}
	applier := &Applier{Directory: directory, Logger: discardLogger()}

	decisions := []Decision{
		{Kind: KindDelete, Code: 1002, Account: device.Account{Code: 1002}},
		{Kind: KindCreate, Code: 1001, Identity: identity.Record{ID: 1001, Name: "alice"}},
	}
	err := applier.Apply(context.Background(), decisions)
	if err == nil {
		t.Fatal("expected joined error")
	}

	var directoryErr *device.DirectoryError
	if !errors.As(err, &directoryErr) {
		t.Errorf("joined error lost the directory error: %v", err)
	}
	// The failure on 1002 must not have stopped the create of 1001.
	if len(directory.calls) != 2 || directory.calls[1] != "add 1001 alice" {
		t.Errorf("calls = %v", directory.calls)
	}
}

func TestApplySnapshotsBeforeDestruction(t *testing.T) {
	directory := &fakeDirectory{}
	recorder := &fakeRecorder{}
	applier := &Applier{Directory: directory, Recorder: recorder, Logger: discardLogger()}

	decisions := []Decision{
		{Kind: KindDelete, Code: 1002, Account: device.Account{Code: 1002, Name: "ghost"}},
		{Kind: KindDisable, Code: 1003, Account: device.Account{Code: 1003, Counters: device.Counters{PrintA4: 5}}},
		{Kind: KindCreate, Code: 1001, Identity: identity.Record{ID: 1001, Name: "alice"}},
	}
	if err := applier.Apply(context.Background(), decisions); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := []string{"1002 delete", "1003 disable"}
	if len(recorder.snapshots) != len(want) {
		t.Fatalf("snapshots = %v", recorder.snapshots)
	}
	for i, snapshot := range want {
		if recorder.snapshots[i] != snapshot {
			t.Errorf("snapshot %d = %q, want %q", i, recorder.snapshots[i], snapshot)
		}
	}
}

func TestApplySnapshotFailureBlocksDeviceCall(t *testing.T) {
	directory := &fakeDirectory{}
	recorder := &fakeRecorder{err: errors.New("ledger unavailable")}
	applier := &Applier{Directory: directory, Recorder: recorder, Logger: discardLogger()}

	decisions := []Decision{
		{Kind: KindDelete, Code: 1002, Account: device.Account{Code: 1002, Counters: device.Counters{}}},
	}
	err := applier.Apply(context.Background(), decisions)
	if err == nil || !strings.Contains(err.Error(), "ledger unavailable") {
		t.Fatalf("error = %v, want snapshot failure", err)
	}
	if len(directory.calls) != 0 {
		t.Errorf("device was called despite snapshot failure: %v", directory.calls)
	}
}
