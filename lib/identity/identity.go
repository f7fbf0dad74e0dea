// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity supplies the local identity records and group
// memberships that the reconciliation engine treats as ground truth
// for who should hold a device account.
package identity

// Record is one local identity. ID doubles as the device account
// code for that identity.
type Record struct {
	// ID is the numeric identity key (typically the uid).
	ID int

	// Name is the login name. Group membership is resolved by name.
	Name string

	// DisplayName is the human-readable name used as the account
	// label. Falls back to Name when empty.
	DisplayName string
}

// Label returns the display name, or the login name when no display
// name is recorded.
func (r Record) Label() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.Name
}

// Source supplies identity records and group memberships.
type Source interface {
	// Identities returns every local identity record.
	Identities() ([]Record, error)

	// GroupMembers returns the set of identity names belonging to
	// the named group. An unknown group resolves to the empty set,
	// not an error.
	GroupMembers(group string) (map[string]bool, error)
}

// ValidMembers resolves the union of members across the given groups.
// The result is the valid-membership set the reconciliation engine
// consumes: an identity name present here should hold an account.
func ValidMembers(source Source, groups []string) (map[string]bool, error) {
	members := make(map[string]bool)
	for _, group := range groups {
		groupMembers, err := source.GroupMembers(group)
		if err != nil {
			return nil, err
		}
		for name := range groupMembers {
			members[name] = true
		}
	}
	return members, nil
}
