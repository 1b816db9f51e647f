package db

import (
	"context"
	"fmt"
)

// Timestamps are unix seconds in both dialects.

const postgresMigration = `
CREATE TABLE IF NOT EXISTS users (
    id uuid PRIMARY KEY,
    name text NOT NULL,
    provider text NOT NULL,
    provider_id text NOT NULL,
    created_at bigint NOT NULL,
    updated_at bigint NOT NULL,
    CONSTRAINT users_provider_unique
        UNIQUE (provider, provider_id)
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
    user_id uuid PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    token text NOT NULL,
    expires_at bigint NOT NULL,
    created_at bigint NOT NULL
);
`

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    provider TEXT NOT NULL,
    provider_id TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE (provider, provider_id)
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
    user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    token TEXT NOT NULL,
    expires_at INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);
`

// Migrate creates the users and refresh_tokens tables if missing.
func (d *DB) Migrate(ctx context.Context) error {
	stmt := postgresMigration
	if d.Driver == DriverSQLite {
		stmt = sqliteMigration
	}

	if _, err := d.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}
