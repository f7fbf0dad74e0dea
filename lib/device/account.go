// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

package device

import "fmt"

// MaxNameBytes is the device's limit on an account display name after
// Windows-1252 encoding.
const MaxNameBytes = 20

// Permissions holds an account's capability grants. The zero value is
// fully restricted, which is what a disabled account carries.
type Permissions struct {
	Copy    bool
	Print   bool
	Scan    bool
	Storage bool
}

// DefaultPermissions returns the grant set applied to newly created
// and re-enabled accounts: every capability available.
func DefaultPermissions() Permissions {
	return Permissions{Copy: true, Print: true, Scan: true, Storage: true}
}

// Any reports whether at least one capability is granted.
func (p Permissions) Any() bool {
	return p.Copy || p.Print || p.Scan || p.Storage
}

// Counters holds an account's monochrome page counters. The device
// tracks single-size (A4) and double-size (A3) pages separately per
// capability. Counters only grow, except across a delete/recreate.
type Counters struct {
	CopyA4  int
	CopyA3  int
	PrintA4 int
	PrintA3 int
	ScanA4  int
	ScanA3  int
}

// IsZero reports whether every counter is zero. Deletion is only
// permitted for accounts with zero counters.
func (c Counters) IsZero() bool {
	return c == Counters{}
}

// CopyA4Total returns the copy volume in A4-equivalent pages; an A3
// page counts double.
func (c Counters) CopyA4Total() int { return c.CopyA4 + 2*c.CopyA3 }

// PrintA4Total returns the print volume in A4-equivalent pages.
func (c Counters) PrintA4Total() int { return c.PrintA4 + 2*c.PrintA3 }

// ScanA4Total returns the scan volume in A4-equivalent pages.
func (c Counters) ScanA4Total() int { return c.ScanA4 + 2*c.ScanA3 }

// Account is one entry in the device's account directory. Code is
// assigned by the caller on creation and unique across the directory.
// Code 0 is the device's built-in "other" pseudo-account.
type Account struct {
	Code        int
	Name        string
	Permissions Permissions
	Counters    Counters
}

func (a Account) String() string {
	return fmt.Sprintf("account %d (%s)", a.Code, a.Name)
}
