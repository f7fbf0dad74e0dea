// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FileSource reads identities from passwd(5)- and group(5)-format
// files. Both files are parsed lazily on first use and cached for the
// lifetime of the FileSource; a sync run sees one consistent snapshot.
type FileSource struct {
	PasswdPath string
	GroupPath  string

	records []Record
	groups  map[string]map[string]bool
	primary map[int][]string // gid -> names of users with that primary gid
}

// Identities implements Source.
func (s *FileSource) Identities() ([]Record, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	return s.records, nil
}

// GroupMembers implements Source. Membership covers both the group's
// explicit member list and users whose primary GID is the group.
func (s *FileSource) GroupMembers(group string) (map[string]bool, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	members, ok := s.groups[group]
	if !ok {
		return map[string]bool{}, nil
	}
	return members, nil
}

func (s *FileSource) load() error {
	if s.records != nil {
		return nil
	}
	if err := s.loadPasswd(); err != nil {
		return err
	}
	return s.loadGroups()
}

func (s *FileSource) loadPasswd() error {
	file, err := os.Open(s.PasswdPath)
	if err != nil {
		return fmt.Errorf("opening identity file: %w", err)
	}
	defer file.Close()

	s.primary = make(map[int][]string)

	scanner := bufio.NewScanner(file)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// name:passwd:uid:gid:gecos:dir:shell
		fields := strings.Split(line, ":")
		if len(fields) < 5 {
			return fmt.Errorf("%s:%d: malformed passwd entry", s.PasswdPath, lineNumber)
		}
		uid, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("%s:%d: bad uid %q", s.PasswdPath, lineNumber, fields[2])
		}
		gid, err := strconv.Atoi(fields[3])
		if err != nil {
			return fmt.Errorf("%s:%d: bad gid %q", s.PasswdPath, lineNumber, fields[3])
		}
		// The gecos full-name field is everything before the first
		// comma (office and phone subfields follow).
		displayName, _, _ := strings.Cut(fields[4], ",")
		s.records = append(s.records, Record{
			ID:          uid,
			Name:        fields[0],
			DisplayName: displayName,
		})
		s.primary[gid] = append(s.primary[gid], fields[0])
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", s.PasswdPath, err)
	}
	if s.records == nil {
		s.records = []Record{}
	}
	return nil
}

func (s *FileSource) loadGroups() error {
	file, err := os.Open(s.GroupPath)
	if err != nil {
		return fmt.Errorf("opening group file: %w", err)
	}
	defer file.Close()

	s.groups = make(map[string]map[string]bool)

	scanner := bufio.NewScanner(file)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// name:passwd:gid:member,member,...
		fields := strings.Split(line, ":")
		if len(fields) < 4 {
			return fmt.Errorf("%s:%d: malformed group entry", s.GroupPath, lineNumber)
		}
		gid, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("%s:%d: bad gid %q", s.GroupPath, lineNumber, fields[2])
		}
		members := make(map[string]bool)
		for _, member := range strings.Split(fields[3], ",") {
			if member != "" {
				members[member] = true
			}
		}
		for _, name := range s.primary[gid] {
			members[name] = true
		}
		s.groups[fields[0]] = members
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", s.GroupPath, err)
	}
	return nil
}
