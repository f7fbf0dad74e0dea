// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction. Production
// code accepts a Clock instead of calling time.Now or time.Sleep
// directly; tests inject Fake() and observe recorded sleeps rather
// than waiting for real time to pass.
package clock

import "time"

// Clock abstracts the time operations quotasync performs. The only
// consumer that sleeps is the device client's busy-retry loop.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep pauses the current goroutine for at least duration d.
	Sleep(d time.Duration)
}
