// Package db wraps the single SQLite table this repository persists:
// bulk-dump sync bookkeeping for provider/remote. Repurposed from the
// teacher's much larger app-state database (watchlists, scan history,
// auth sessions) — none of which survive here, since this repository
// does not persist plans or support multi-user sessions.
package db

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"tradelane/internal/logger"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the SQLite database at <dataDir>/sync.db and runs
// migrations.
func Open(dataDir string) (*DB, error) {
	path := filepath.Join(dataDir, "sync.db")
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS sync_state (
				collection  TEXT PRIMARY KEY,
				synced_at   TEXT NOT NULL,
				shard_count INTEGER NOT NULL DEFAULT 0,
				byte_size   INTEGER NOT NULL DEFAULT 0
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("DB", "Applied migration v1 (sync state)")
	}

	return nil
}

// SyncState is a persisted record of when a bulk collection was last
// synced from the remote dump host.
type SyncState struct {
	Collection string
	SyncedAt   time.Time
	ShardCount int
	ByteSize   int64
}

// GetSyncState returns the last recorded sync for a collection, or
// ok=false if it has never been synced.
func (d *DB) GetSyncState(collection string) (SyncState, bool, error) {
	var state SyncState
	var syncedAt string
	err := d.sql.QueryRow(
		`SELECT collection, synced_at, shard_count, byte_size FROM sync_state WHERE collection = ?`,
		collection,
	).Scan(&state.Collection, &syncedAt, &state.ShardCount, &state.ByteSize)
	if err == sql.ErrNoRows {
		return SyncState{}, false, nil
	}
	if err != nil {
		return SyncState{}, false, fmt.Errorf("query sync state: %w", err)
	}
	state.SyncedAt, err = time.Parse(time.RFC3339, syncedAt)
	if err != nil {
		return SyncState{}, false, fmt.Errorf("parse sync state timestamp: %w", err)
	}
	return state, true, nil
}

// PutSyncState records a successful sync of a collection.
func (d *DB) PutSyncState(state SyncState) error {
	_, err := d.sql.Exec(
		`INSERT INTO sync_state (collection, synced_at, shard_count, byte_size)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(collection) DO UPDATE SET
			synced_at = excluded.synced_at,
			shard_count = excluded.shard_count,
			byte_size = excluded.byte_size`,
		state.Collection, state.SyncedAt.Format(time.RFC3339), state.ShardCount, state.ByteSize,
	)
	if err != nil {
		return fmt.Errorf("put sync state: %w", err)
	}
	return nil
}
