// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"encoding/base64"
	"fmt"
)

// Device-enforced credential length bounds.
const (
	minCredentialLen = 3
	maxCredentialLen = 8
)

// EncodeCredential converts the plain credential into the form the
// device expects in the <authorization> element: each byte rotated
// right by two bits, then base64. This is obfuscation on the device's
// part, not cryptography.
func EncodeCredential(credential string) (string, error) {
	if len(credential) < minCredentialLen {
		return "", fmt.Errorf("credential too short: need at least %d characters", minCredentialLen)
	}
	if len(credential) > maxCredentialLen {
		return "", fmt.Errorf("credential too long: must not exceed %d characters", maxCredentialLen)
	}
	rotated := make([]byte, len(credential))
	for i := 0; i < len(credential); i++ {
		b := credential[i]
		rotated[i] = b>>2 | b<<6
	}
	return base64.StdEncoding.EncodeToString(rotated), nil
}

// DecodeCredential reverses EncodeCredential. Used by tests and by
// diagnostics against captured device traffic.
func DecodeCredential(encoded string) (string, error) {
	rotated, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding credential: %w", err)
	}
	plain := make([]byte, len(rotated))
	for i, b := range rotated {
		plain[i] = b<<2 | b>>6
	}
	return string(plain), nil
}
