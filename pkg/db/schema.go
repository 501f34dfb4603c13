package db

import (
	"context"
	"database/sql"
	"fmt"
)

const currentSchemaVersion = 2

// migrations are applied in order; index i brings the schema to version i+1.
var migrations = []string{
	schemaV1,
	schemaV2,
}

// Schema SQL for version 1
const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
    version     INTEGER PRIMARY KEY,
    applied_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS profiles (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL UNIQUE,
    timezone    TEXT NOT NULL DEFAULT 'UTC',
    is_active   INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS api_servers (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    profile_id  INTEGER NOT NULL UNIQUE REFERENCES profiles(id) ON DELETE CASCADE,
    host        TEXT NOT NULL DEFAULT '0.0.0.0',
    port        INTEGER NOT NULL DEFAULT 8080,
    created_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_profiles_active ON profiles(is_active);
`

// Schema SQL for version 2: HEOS connection, dial and MQTT bridge settings.
// Topology is rediscovered on every start and is never stored.
const schemaV2 = `
CREATE TABLE IF NOT EXISTS heos_settings (
    id                     INTEGER PRIMARY KEY AUTOINCREMENT,
    profile_id             INTEGER NOT NULL UNIQUE REFERENCES profiles(id) ON DELETE CASCADE,
    control_port           INTEGER NOT NULL DEFAULT 1255,
    static_host            TEXT NOT NULL DEFAULT '',
    sync_interval_seconds  INTEGER NOT NULL DEFAULT 60,
    volume_step            INTEGER NOT NULL DEFAULT 2,
    dial_device            TEXT NOT NULL DEFAULT '',
    dial_baud              INTEGER NOT NULL DEFAULT 115200,
    dial_player_id         TEXT NOT NULL DEFAULT '',
    mqtt_broker_url        TEXT NOT NULL DEFAULT '',
    mqtt_topic_prefix      TEXT NOT NULL DEFAULT 'heosdial',
    mqtt_listen            TEXT NOT NULL DEFAULT '',
    updated_at             TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// Migrate runs database migrations to bring the schema up to date.
func (db *DB) Migrate(ctx context.Context) error {
	version, err := db.getSchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for v := version + 1; v <= currentSchemaVersion; v++ {
		if err := db.applySchema(ctx, v, migrations[v-1]); err != nil {
			return fmt.Errorf("failed to apply schema v%d: %w", v, err)
		}
	}

	return nil
}

// getSchemaVersion returns the current schema version, or 0 if no schema exists.
func (db *DB) getSchemaVersion(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&count)
	if err != nil {
		return 0, err
	}

	if count == 0 {
		return 0, nil
	}

	var version int
	err = db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, err
	}

	return version, nil
}

// applySchema executes one migration and records its version.
func (db *DB) applySchema(ctx context.Context, version int, ddl string) error {
	return db.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}

		return nil
	})
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	return db.getSchemaVersion(ctx)
}
