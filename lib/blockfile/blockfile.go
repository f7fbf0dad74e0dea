// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

// Package blockfile rewrites a delimited block of generated lines
// inside a larger template file, leaving every other byte untouched.
//
// The block is found by literal line-prefix markers: a line starting
// with the open marker enters the block, lines starting with the entry
// marker inside it are discarded as stale generated content, and the
// close marker line triggers emission of the fresh entries immediately
// before it. Files without the open marker pass through unchanged.
package blockfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/quotasync/quotasync/lib/textenc"
)

// Markers are the literal line prefixes delimiting the generated
// block. All three must be non-empty.
type Markers struct {
	Open  string `yaml:"open"`
	Entry string `yaml:"entry"`
	Close string `yaml:"close"`
}

// Validate checks that every marker is set.
func (m Markers) Validate() error {
	if m.Open == "" {
		return fmt.Errorf("open marker must not be empty")
	}
	if m.Entry == "" {
		return fmt.Errorf("entry marker must not be empty")
	}
	if m.Close == "" {
		return fmt.Errorf("close marker must not be empty")
	}
	return nil
}

// Entry is one generated line: an account code and its display label.
type Entry struct {
	Code  int
	Label string
}

// Patch streams src to dst, replacing the generated entries inside the
// marker-delimited block with the given entries in order. Content
// outside the block is copied byte for byte. Markers and labels are
// matched and emitted in the file's single-byte encoding; labels that
// cannot be represented are transliterated.
func Patch(dst io.Writer, src io.Reader, markers Markers, entries []Entry) error {
	openPrefix := textenc.EncodeLossy(markers.Open)
	entryPrefix := textenc.EncodeLossy(markers.Entry)
	closePrefix := textenc.EncodeLossy(markers.Close)

	reader := bufio.NewReader(src)
	writer := bufio.NewWriter(dst)
	inside := false
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			switch {
			case !inside && bytes.HasPrefix(line, openPrefix):
				inside = true
			case inside && bytes.HasPrefix(line, closePrefix):
				for _, entry := range entries {
					if err := writeEntry(writer, entryPrefix, entry); err != nil {
						return err
					}
				}
				inside = false
			case inside && bytes.HasPrefix(line, entryPrefix):
				// Stale generated line, regenerated above.
				continue
			}
			if _, err := writer.Write(line); err != nil {
				return fmt.Errorf("writing patched content: %w", err)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading template: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("writing patched content: %w", err)
	}
	return nil
}

func writeEntry(writer *bufio.Writer, entryPrefix []byte, entry Entry) error {
	if _, err := writer.Write(entryPrefix); err != nil {
		return fmt.Errorf("writing generated entry: %w", err)
	}
	line := strconv.Itoa(entry.Code) + "\t" + entry.Label + "\n"
	if _, err := writer.Write(textenc.EncodeLossy(line)); err != nil {
		return fmt.Errorf("writing generated entry: %w", err)
	}
	return nil
}

// Rewrite atomically patches the file at path in place. The original
// is exclusively flocked against cooperating writers for the duration,
// the patched content is streamed to a temporary file in the same
// directory with the original's permission bits, synced, and renamed
// over the original. Any failure before the rename leaves the original
// untouched and removes the temporary file.
func Rewrite(path string, markers Markers, entries []Entry) error {
	original, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening target: %w", err)
	}
	// The lock is released when original is closed, after the rename.
	defer original.Close()

	if err := unix.Flock(int(original.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("locking target: %w", err)
	}

	info, err := original.Stat()
	if err != nil {
		return fmt.Errorf("inspecting target: %w", err)
	}

	directory := filepath.Dir(path)
	temporary, err := os.CreateTemp(directory, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	temporaryPath := temporary.Name()

	discard := func() {
		temporary.Close()
		os.Remove(temporaryPath)
	}

	if err := temporary.Chmod(info.Mode().Perm()); err != nil {
		discard()
		return fmt.Errorf("setting temporary file permissions: %w", err)
	}
	if err := Patch(temporary, original, markers, entries); err != nil {
		discard()
		return err
	}
	if err := temporary.Sync(); err != nil {
		discard()
		return fmt.Errorf("syncing temporary file: %w", err)
	}
	if err := temporary.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming into place: %w", err)
	}

	// Sync the directory so the rename survives power loss.
	if parent, err := os.Open(directory); err == nil {
		parent.Sync()
		parent.Close()
	}
	return nil
}
