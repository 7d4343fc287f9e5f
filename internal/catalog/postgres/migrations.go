package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations are applied in order at startup. Statements are idempotent so
// repeated application is safe; the platform never alters schema at runtime
// beyond this.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS epochs (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE,
		start_norm  DOUBLE PRECISION NOT NULL,
		end_norm    DOUBLE PRECISION NOT NULL,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS annotations (
		id        TEXT PRIMARY KEY,
		epoch_id  TEXT NOT NULL REFERENCES epochs(id) ON DELETE CASCADE,
		title     TEXT NOT NULL,
		content   TEXT NOT NULL,
		time_mark DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_annotations_epoch ON annotations (epoch_id)`,
	`CREATE TABLE IF NOT EXISTS elements (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		type         TEXT NOT NULL,
		description  TEXT,
		charge_range TEXT,
		mass_gev     DOUBLE PRECISION,
		genesis_time TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_elements_name ON elements (name)`,
	`CREATE TABLE IF NOT EXISTS scenes (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		original_name TEXT NOT NULL,
		object_key    TEXT NOT NULL UNIQUE,
		size_bytes    BIGINT,
		uploaded_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scenes_name ON scenes (name)`,
	`CREATE TABLE IF NOT EXISTS cosmic_events (
		id               TEXT PRIMARY KEY,
		title            TEXT NOT NULL UNIQUE,
		description      TEXT,
		time_range       TEXT,
		category         TEXT,
		time_norm        DOUBLE PRECISION NOT NULL,
		media_url        TEXT,
		epoch_id         TEXT REFERENCES epochs(id) ON DELETE SET NULL,
		default_scene_id TEXT REFERENCES scenes(id) ON DELETE SET NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cosmic_events_time ON cosmic_events (time_norm)`,
	`CREATE TABLE IF NOT EXISTS render_jobs (
		id          TEXT PRIMARY KEY,
		scene_id    TEXT NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
		epoch_id    TEXT REFERENCES epochs(id) ON DELETE SET NULL,
		time_norm   DOUBLE PRECISION NOT NULL,
		status      TEXT NOT NULL DEFAULT 'queued',
		message     TEXT,
		output_key  TEXT,
		params_json TEXT NOT NULL DEFAULT '{}',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_render_jobs_scene ON render_jobs (scene_id)`,
	`CREATE INDEX IF NOT EXISTS idx_render_jobs_created ON render_jobs (created_at DESC)`,
}

// Migrate applies the schema. Safe to call from every binary at startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
