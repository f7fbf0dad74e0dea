// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"github.com/quotasync/quotasync/lib/device"
	"github.com/quotasync/quotasync/lib/identity"
)

// Plan computes the decisions needed to align the account directory
// with the identity source. Pure: no I/O, deterministic for a given
// input order.
//
// Removals (disable/delete) are ordered before additions
// (create/activate) so that a code freed in this run can be reused in
// the same run without colliding.
func Plan(accounts []device.Account, identities []identity.Record, validNames map[string]bool, regions []Region) []Decision {
	identityByCode := make(map[int]identity.Record, len(identities))
	for _, record := range identities {
		identityByCode[record.ID] = record
	}

	managed := make(map[int]device.Account)
	var removals []Decision
	for _, account := range accounts {
		if !InAny(account.Code, regions) {
			continue
		}
		managed[account.Code] = account

		record, matched := identityByCode[account.Code]
		if matched && validNames[record.Name] {
			continue
		}

		// Stale: no matching identity, or the identity lost its
		// valid-group membership.
		switch {
		case account.Counters.IsZero():
			removals = append(removals, Decision{
				Kind:    KindDelete,
				Code:    account.Code,
				Account: account,
			})
		case account.Permissions.Any():
			removals = append(removals, Decision{
				Kind:    KindDisable,
				Code:    account.Code,
				Account: account,
			})
		default:
			// Already quiesced: permissions revoked, counters
			// waiting to be accounted for. Nothing to do.
		}
	}

	var additions []Decision
	for _, record := range identities {
		if !validNames[record.Name] {
			continue
		}
		if !InAny(record.ID, regions) {
			// Creating this account would place it outside the
			// managed regions, invisible to future runs.
			continue
		}
		account, exists := managed[record.ID]
		switch {
		case !exists:
			additions = append(additions, Decision{
				Kind:     KindCreate,
				Code:     record.ID,
				Identity: record,
			})
		case !account.Permissions.Any():
			additions = append(additions, Decision{
				Kind:     KindActivate,
				Code:     record.ID,
				Identity: record,
				Account:  account,
			})
		}
	}

	return append(removals, additions...)
}
