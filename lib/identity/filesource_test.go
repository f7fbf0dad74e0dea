// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSource(t *testing.T, passwd, group string) *FileSource {
	t.Helper()
	dir := t.TempDir()
	passwdPath := filepath.Join(dir, "passwd")
	groupPath := filepath.Join(dir, "group")
	if err := os.WriteFile(passwdPath, []byte(passwd), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(groupPath, []byte(group), 0644); err != nil {
		t.Fatal(err)
	}
	return &FileSource{PasswdPath: passwdPath, GroupPath: groupPath}
}

const testPasswd = `alice:x:1001:100:Alice Adams,Room 4,555:/home/alice:/bin/sh
bob:x:1002:100:Bob Baker:/home/bob:/bin/sh
carol:x:1003:200::/home/carol:/bin/sh
`

const testGroup = `users:x:100:
print-users:x:300:alice,carol
staff:x:200:
`

func TestFileSourceIdentities(t *testing.T) {
	source := writeSource(t, testPasswd, testGroup)

	records, err := source.Identities()
	if err != nil {
		t.Fatalf("Identities: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[0].ID != 1001 || records[0].Name != "alice" {
		t.Errorf("first record = %+v", records[0])
	}
	if records[0].Label() != "Alice Adams" {
		t.Errorf("alice label = %q, want gecos full name", records[0].Label())
	}
	if records[2].Label() != "carol" {
		t.Errorf("carol label = %q, want login-name fallback", records[2].Label())
	}
}

func TestFileSourceGroupMembers(t *testing.T) {
	source := writeSource(t, testPasswd, testGroup)

	members, err := source.GroupMembers("print-users")
	if err != nil {
		t.Fatalf("GroupMembers: %v", err)
	}
	if !members["alice"] || !members["carol"] || members["bob"] {
		t.Errorf("print-users = %v", members)
	}

	// Primary-GID membership: alice and bob have gid 100 (users).
	members, err = source.GroupMembers("users")
	if err != nil {
		t.Fatal(err)
	}
	if !members["alice"] || !members["bob"] || members["carol"] {
		t.Errorf("users = %v", members)
	}
}

func TestFileSourceUnknownGroup(t *testing.T) {
	source := writeSource(t, testPasswd, testGroup)

	members, err := source.GroupMembers("nonexistent")
	if err != nil {
		t.Fatalf("unknown group must not error: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("unknown group = %v, want empty set", members)
	}
}

func TestValidMembers(t *testing.T) {
	source := writeSource(t, testPasswd, testGroup)

	members, err := ValidMembers(source, []string{"print-users", "staff"})
	if err != nil {
		t.Fatalf("ValidMembers: %v", err)
	}
	// staff has carol via primary gid 200.
	if !members["alice"] || !members["carol"] {
		t.Errorf("valid members = %v", members)
	}
	if members["bob"] {
		t.Error("bob is not in any valid group")
	}
}

func TestFileSourceMalformed(t *testing.T) {
	source := writeSource(t, "not-a-passwd-line\n", testGroup)
	if _, err := source.Identities(); err == nil {
		t.Error("expected parse error for malformed passwd entry")
	}
}
