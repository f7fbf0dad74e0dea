// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"testing"

	"github.com/quotasync/quotasync/lib/device"
	"github.com/quotasync/quotasync/lib/identity"
)

var testRegions = []Region{{Low: 1000, High: 1999}}

func names(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func TestPlanCreatesMissingAccount(t *testing.T) {
	identities := []identity.Record{{ID: 1001, Name: "alice"}}

	decisions := Plan(nil, identities, names("alice"), testRegions)

	if len(decisions) != 1 {
		t.Fatalf("got %d decisions, want 1", len(decisions))
	}
	if decisions[0].Kind != KindCreate || decisions[0].Code != 1001 {
		t.Errorf("decision = %+v", decisions[0])
	}
}

func TestPlanDeletesStaleZeroCounterAccount(t *testing.T) {
	accounts := []device.Account{{
		Code:        1002,
		Name:        "ghost",
		Permissions: device.Permissions{Print: true},
	}}

	decisions := Plan(accounts, nil, names(), testRegions)

	if len(decisions) != 1 {
		t.Fatalf("got %d decisions, want 1", len(decisions))
	}
	if decisions[0].Kind != KindDelete || decisions[0].Code != 1002 {
		t.Errorf("decision = %+v", decisions[0])
	}
}

func TestPlanDisablesStaleAccountWithUsage(t *testing.T) {
	accounts := []device.Account{{
		Code:        1003,
		Name:        "ghost",
		Permissions: device.Permissions{Print: true},
		Counters:    device.Counters{PrintA4: 5},
	}}

	decisions := Plan(accounts, nil, names(), testRegions)

	if len(decisions) != 1 {
		t.Fatalf("got %d decisions, want 1", len(decisions))
	}
	if decisions[0].Kind != KindDisable {
		t.Errorf("kind = %v, want disable (counters nonzero)", decisions[0].Kind)
	}
}

func TestPlanLeavesQuiescedStaleAccountAlone(t *testing.T) {
	// Already disabled, counters waiting to be accounted for.
	accounts := []device.Account{{
		Code:     1004,
		Name:     "ghost",
		Counters: device.Counters{CopyA3: 2},
	}}

	decisions := Plan(accounts, nil, names(), testRegions)

	if len(decisions) != 0 {
		t.Errorf("got %d decisions, want 0: %+v", len(decisions), decisions)
	}
}

func TestPlanActivatesDisabledValidAccount(t *testing.T) {
	accounts := []device.Account{{
		Code:     1001,
		Name:     "alice",
		Counters: device.Counters{PrintA4: 9},
	}}
	identities := []identity.Record{{ID: 1001, Name: "alice"}}

	decisions := Plan(accounts, identities, names("alice"), testRegions)

	if len(decisions) != 1 {
		t.Fatalf("got %d decisions, want 1", len(decisions))
	}
	if decisions[0].Kind != KindActivate || decisions[0].Code != 1001 {
		t.Errorf("decision = %+v", decisions[0])
	}
}

func TestPlanIgnoresOutOfRegionAccounts(t *testing.T) {
	accounts := []device.Account{
		{Code: 0, Name: "other"},
		{Code: 50, Name: "shared-lab", Permissions: device.DefaultPermissions()},
		{Code: 2500, Name: "old-admin", Permissions: device.DefaultPermissions()},
	}

	decisions := Plan(accounts, nil, names(), testRegions)

	if len(decisions) != 0 {
		t.Errorf("out-of-region accounts produced decisions: %+v", decisions)
	}
}

func TestPlanSkipsOutOfRegionIdentity(t *testing.T) {
	identities := []identity.Record{{ID: 50, Name: "daemon"}}

	decisions := Plan(nil, identities, names("daemon"), testRegions)

	if len(decisions) != 0 {
		t.Errorf("out-of-region identity produced decisions: %+v", decisions)
	}
}

func TestPlanMembershipLossDisables(t *testing.T) {
	// Identity still exists but left the valid groups.
	accounts := []device.Account{{
		Code:        1001,
		Name:        "alice",
		Permissions: device.DefaultPermissions(),
		Counters:    device.Counters{CopyA4: 1},
	}}
	identities := []identity.Record{{ID: 1001, Name: "alice"}}

	decisions := Plan(accounts, identities, names(), testRegions)

	if len(decisions) != 1 || decisions[0].Kind != KindDisable {
		t.Errorf("decisions = %+v, want one disable", decisions)
	}
}

func TestPlanRemovalsBeforeAdditions(t *testing.T) {
	accounts := []device.Account{{
		Code:        1002,
		Name:        "ghost",
		Permissions: device.Permissions{Print: true},
	}}
	identities := []identity.Record{{ID: 1001, Name: "alice"}}

	decisions := Plan(accounts, identities, names("alice"), testRegions)

	if len(decisions) != 2 {
		t.Fatalf("got %d decisions, want 2", len(decisions))
	}
	if decisions[0].Kind != KindDelete || decisions[1].Kind != KindCreate {
		t.Errorf("order = %v, %v; want delete before create", decisions[0].Kind, decisions[1].Kind)
	}
}

func TestPlanIdempotent(t *testing.T) {
	// A converged directory yields no decisions.
	accounts := []device.Account{
		{Code: 1001, Name: "alice", Permissions: device.DefaultPermissions(), Counters: device.Counters{PrintA4: 3}},
		{Code: 1004, Name: "ghost", Counters: device.Counters{CopyA3: 2}},
		{Code: 50, Name: "shared-lab", Permissions: device.DefaultPermissions()},
	}
	identities := []identity.Record{{ID: 1001, Name: "alice"}}

	decisions := Plan(accounts, identities, names("alice"), testRegions)

	if len(decisions) != 0 {
		t.Errorf("converged state produced decisions: %+v", decisions)
	}
}

func TestPlanProperties(t *testing.T) {
	// A mixed directory exercising every rule at once.
	accounts := []device.Account{
		{Code: 1001, Name: "alice", Permissions: device.DefaultPermissions()},
		{Code: 1002, Name: "gone-zero", Permissions: device.Permissions{Copy: true}},
		{Code: 1003, Name: "gone-used", Permissions: device.Permissions{Print: true}, Counters: device.Counters{PrintA4: 5}},
		{Code: 1004, Name: "bob"},
		{Code: 3000, Name: "outside", Permissions: device.DefaultPermissions()},
	}
	identities := []identity.Record{
		{ID: 1001, Name: "alice"},
		{ID: 1004, Name: "bob"},
		{ID: 1005, Name: "carol"},
	}
	valid := names("alice", "bob", "carol")

	decisions := Plan(accounts, identities, valid, testRegions)

	perCode := make(map[int][]Kind)
	for _, d := range decisions {
		perCode[d.Code] = append(perCode[d.Code], d.Kind)

		// Region fencing.
		if !InAny(d.Code, testRegions) {
			t.Errorf("decision targets out-of-region code %d", d.Code)
		}
		// Safety: no delete with nonzero counters.
		if d.Kind == KindDelete && !d.Account.Counters.IsZero() {
			t.Errorf("delete of account %d with nonzero counters", d.Code)
		}
	}

	// Mutual exclusion: at most one decision per code.
	for code, kinds := range perCode {
		if len(kinds) > 1 {
			t.Errorf("code %d received %v", code, kinds)
		}
	}

	// Coverage.
	expect := map[int]Kind{
		1002: KindDelete,   // stale, zero counters
		1003: KindDisable,  // stale, usage
		1004: KindActivate, // valid, permissionless
		1005: KindCreate,   // valid, missing
	}
	if len(decisions) != len(expect) {
		t.Fatalf("got %d decisions, want %d: %+v", len(decisions), len(expect), decisions)
	}
	for code, kind := range expect {
		got, ok := perCode[code]
		if !ok || got[0] != kind {
			t.Errorf("code %d: got %v, want %v", code, got, kind)
		}
	}
}

func TestDescribeUsesStoredNameForStaleAccounts(t *testing.T) {
	accounts := []device.Account{{Code: 1002, Name: "departed"}}

	decisions := Plan(accounts, nil, names(), testRegions)

	if len(decisions) != 1 {
		t.Fatalf("got %d decisions, want 1", len(decisions))
	}
	want := "delete account 1002 (departed)"
	if got := decisions[0].Describe(); got != want {
		t.Errorf("Describe = %q, want %q", got, want)
	}
}
