// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

// Package textenc implements the Windows-1252 text policy shared by
// the device wire dialect and the derived-artifact files. Both sides
// are single-byte Windows-1252; anything a label carries beyond that
// repertoire is transliterated, never rejected.
package textenc

import (
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// EncodeLossy converts s to Windows-1252 bytes. Runes in the
// repertoire map to their native byte. Anything else is NFKD-decomposed
// with combining marks dropped (so "ō" becomes "o"); whatever still has
// no Windows-1252 byte is replaced with '?'. The mapping is pure, so a
// given input always produces the same output bytes.
func EncodeLossy(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			out = append(out, b)
			continue
		}
		for _, d := range norm.NFKD.String(string(r)) {
			if unicode.Is(unicode.Mn, d) {
				continue
			}
			if b, ok := charmap.Windows1252.EncodeRune(d); ok {
				out = append(out, b)
			} else {
				out = append(out, '?')
			}
		}
	}
	return out
}

// Decode converts Windows-1252 bytes to a UTF-8 string. Every byte
// value decodes to some rune, so Decode cannot fail.
func Decode(data []byte) string {
	var builder strings.Builder
	builder.Grow(len(data))
	for _, b := range data {
		builder.WriteRune(charmap.Windows1252.DecodeByte(b))
	}
	return builder.String()
}
