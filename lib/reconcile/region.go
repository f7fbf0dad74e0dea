// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"fmt"
	"strconv"
	"strings"
)

// Region is an inclusive account code range. Codes inside some
// configured region are personal accounts managed by reconciliation;
// codes outside every region are special/shared accounts that are
// never touched.
type Region struct {
	Low  int
	High int
}

// ParseRegion parses "low-high", e.g. "1000-1999". A single number
// denotes a one-code region.
func ParseRegion(s string) (Region, error) {
	low, high, found := strings.Cut(s, "-")
	if !found {
		high = low
	}
	lowCode, err := strconv.Atoi(strings.TrimSpace(low))
	if err != nil {
		return Region{}, fmt.Errorf("region %q: bad lower bound", s)
	}
	highCode, err := strconv.Atoi(strings.TrimSpace(high))
	if err != nil {
		return Region{}, fmt.Errorf("region %q: bad upper bound", s)
	}
	region := Region{Low: lowCode, High: highCode}
	if err := region.Validate(); err != nil {
		return Region{}, fmt.Errorf("region %q: %w", s, err)
	}
	return region, nil
}

// Validate checks the region's bounds.
func (r Region) Validate() error {
	if r.Low <= 0 {
		return fmt.Errorf("lower bound must be positive (code 0 is the device's shared account)")
	}
	if r.High < r.Low {
		return fmt.Errorf("upper bound %d below lower bound %d", r.High, r.Low)
	}
	return nil
}

// Contains reports whether code lies inside the region.
func (r Region) Contains(code int) bool {
	return code >= r.Low && code <= r.High
}

func (r Region) String() string {
	return fmt.Sprintf("%d-%d", r.Low, r.High)
}

// InAny reports whether code lies inside at least one region.
func InAny(code int, regions []Region) bool {
	for _, region := range regions {
		if region.Contains(code) {
			return true
		}
	}
	return false
}
