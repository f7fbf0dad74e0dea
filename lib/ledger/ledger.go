// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledger archives account usage counters in SQLite before
// destructive reconciliation decisions. A disabled or deleted account
// loses its on-device counters; the ledger keeps the final reading so
// billing can still account for it.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/quotasync/quotasync/lib/clock"
	"github.com/quotasync/quotasync/lib/device"
	"github.com/quotasync/quotasync/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS usage_snapshot (
	id          INTEGER PRIMARY KEY,
	code        INTEGER NOT NULL,
	name        TEXT NOT NULL,
	reason      TEXT NOT NULL,
	copy_a4     INTEGER NOT NULL,
	copy_a3     INTEGER NOT NULL,
	print_a4    INTEGER NOT NULL,
	print_a3    INTEGER NOT NULL,
	scan_a4     INTEGER NOT NULL,
	scan_a3     INTEGER NOT NULL,
	recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS usage_snapshot_code ON usage_snapshot (code, recorded_at);
`

// Config holds the parameters for opening a ledger.
type Config struct {
	// Path is the SQLite database file. Required.
	Path string

	// Clock provides the snapshot timestamps.
	Clock clock.Clock

	// Logger receives operational messages.
	Logger *slog.Logger
}

// Ledger is the snapshot store. It satisfies reconcile.Recorder.
type Ledger struct {
	pool  *sqlitepool.Pool
	clock clock.Clock
}

// Snapshot is one archived counter reading.
type Snapshot struct {
	Code       int
	Name       string
	Reason     string
	Counters   device.Counters
	RecordedAt time.Time
}

// Open opens or creates the ledger database.
func Open(cfg Config) (*Ledger, error) {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   cfg.Path,
		Logger: cfg.Logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	return &Ledger{pool: pool, clock: cfg.Clock}, nil
}

// Close releases the database.
func (l *Ledger) Close() error {
	return l.pool.Close()
}

// RecordSnapshot archives the account's counters with the given
// reason ("disable" or "delete").
func (l *Ledger) RecordSnapshot(ctx context.Context, account device.Account, reason string) (err error) {
	conn, err := l.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	defer l.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("ledger: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	err = sqlitex.Execute(conn, `
		INSERT INTO usage_snapshot
			(code, name, reason, copy_a4, copy_a3, print_a4, print_a3, scan_a4, scan_a3, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				account.Code,
				account.Name,
				reason,
				account.Counters.CopyA4,
				account.Counters.CopyA3,
				account.Counters.PrintA4,
				account.Counters.PrintA3,
				account.Counters.ScanA4,
				account.Counters.ScanA3,
				l.clock.Now().UTC().Format(time.RFC3339),
			},
		})
	if err != nil {
		return fmt.Errorf("ledger: inserting snapshot for account %d: %w", account.Code, err)
	}
	return nil
}

// SnapshotsForCode returns the archived readings for one account
// code, newest first.
func (l *Ledger) SnapshotsForCode(ctx context.Context, code int) ([]Snapshot, error) {
	conn, err := l.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	defer l.pool.Put(conn)

	var snapshots []Snapshot
	err = sqlitex.Execute(conn, `
		SELECT code, name, reason, copy_a4, copy_a3, print_a4, print_a3, scan_a4, scan_a3, recorded_at
		FROM usage_snapshot WHERE code = ? ORDER BY recorded_at DESC, id DESC`,
		&sqlitex.ExecOptions{
			Args: []any{code},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				snapshot, err := scanSnapshot(stmt)
				if err != nil {
					return err
				}
				snapshots = append(snapshots, snapshot)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("ledger: querying snapshots for account %d: %w", code, err)
	}
	return snapshots, nil
}

func scanSnapshot(stmt *sqlite.Stmt) (Snapshot, error) {
	recordedAt, err := time.Parse(time.RFC3339, stmt.ColumnText(9))
	if err != nil {
		return Snapshot{}, fmt.Errorf("bad recorded_at %q: %w", stmt.ColumnText(9), err)
	}
	return Snapshot{
		Code:   stmt.ColumnInt(0),
		Name:   stmt.ColumnText(1),
		Reason: stmt.ColumnText(2),
		Counters: device.Counters{
			CopyA4:  stmt.ColumnInt(3),
			CopyA3:  stmt.ColumnInt(4),
			PrintA4: stmt.ColumnInt(5),
			PrintA3: stmt.ColumnInt(6),
			ScanA4:  stmt.ColumnInt(7),
			ScanA3:  stmt.ColumnInt(8),
		},
		RecordedAt: recordedAt,
	}, nil
}
