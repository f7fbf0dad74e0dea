// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens SQLite connection pools with standard
// pragmas.
//
// It wraps zombiezen.com/go/sqlite with the defaults the usage ledger
// needs: WAL journal mode, NORMAL synchronous, and a busy timeout so
// concurrent quotasync runs sharing one ledger file wait instead of
// failing with SQLITE_BUSY.
//
// The package is intentionally thin. Callers write SQL, run it with
// sqlitex.Execute, and manage transactions with
// sqlitex.ImmediateTransaction; there is no query builder and no
// abstraction over SQLite's connection model. Connections are not safe
// for concurrent use: [Pool.Take] one, work, [Pool.Put] it back.
package sqlitepool
