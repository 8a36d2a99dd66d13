package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for all Patrol tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS assignments (
		id                   INTEGER PRIMARY KEY AUTOINCREMENT,
		instance_name        TEXT NOT NULL,
		source_instance_name TEXT NOT NULL DEFAULT '',
		device_uuid          TEXT NOT NULL DEFAULT '',
		device_group_name    TEXT NOT NULL DEFAULT '',
		time                 INTEGER NOT NULL DEFAULT 0,
		date                 TEXT NOT NULL DEFAULT '',
		enabled              INTEGER NOT NULL DEFAULT 1
	)`,

	`CREATE TABLE IF NOT EXISTS assignment_groups (
		name           TEXT PRIMARY KEY,
		assignment_ids TEXT NOT NULL DEFAULT '[]'
	)`,

	`CREATE TABLE IF NOT EXISTS devices (
		uuid          TEXT PRIMARY KEY,
		instance_name TEXT NOT NULL DEFAULT '',
		last_host     TEXT NOT NULL DEFAULT '',
		last_seen     TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS device_groups (
		name         TEXT PRIMARY KEY,
		device_uuids TEXT NOT NULL DEFAULT '[]'
	)`,

	`CREATE TABLE IF NOT EXISTS instances (
		name      TEXT PRIMARY KEY,
		type      TEXT NOT NULL,
		geofences TEXT NOT NULL DEFAULT '[]'
	)`,

	`CREATE TABLE IF NOT EXISTS geofences (
		name TEXT PRIMARY KEY,
		type TEXT NOT NULL DEFAULT '',
		data TEXT NOT NULL DEFAULT '{}'
	)`,

	`CREATE TABLE IF NOT EXISTS quests (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		geofence_name TEXT NOT NULL,
		stop_id       TEXT NOT NULL,
		title         TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_assignments_enabled ON assignments(enabled)`,
	`CREATE INDEX IF NOT EXISTS idx_devices_instance ON devices(instance_name)`,
	`CREATE INDEX IF NOT EXISTS idx_instances_type ON instances(type)`,
	`CREATE INDEX IF NOT EXISTS idx_quests_geofence ON quests(geofence_name)`,
}

// migrate executes all schema DDL statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
