package repository

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the tables of the session store.
const Schema = `
	CREATE TABLE IF NOT EXISTS dialog_sessions (
		conversation_id TEXT PRIMARY KEY,
		channel_id      TEXT NOT NULL DEFAULT '',
		state           JSONB NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS dialog_sessions_updated_at_idx ON dialog_sessions (updated_at);
	CREATE TABLE IF NOT EXISTS captured_locations (
		id              BIGSERIAL PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		place           JSONB NOT NULL,
		captured_at     TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS captured_locations_conversation_idx
		ON captured_locations (conversation_id, captured_at DESC);
`

// NewDatabase opens a connection pool and checks it with a ping.
func NewDatabase(ctx context.Context, host, port, user, password, name string) (*pgxpool.Pool, error) {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + name,
	}

	pool, err := pgxpool.New(ctx, dsn.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// Migrate creates the tables if they do not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	r.log.InfoContext(ctx, "Database schema is up to date")
	return nil
}
