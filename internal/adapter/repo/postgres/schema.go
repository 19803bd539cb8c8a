package postgres

import (
	"context"
	"fmt"
)

// schema is applied idempotently at startup; the deployment has no
// separate migration step.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            UUID PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    email         TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user',
    created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS friendships (
    user_id   UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    friend_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    PRIMARY KEY (user_id, friend_id)
);

CREATE TABLE IF NOT EXISTS essays (
    id         UUID PRIMARY KEY,
    author_id  UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    caption    TEXT NOT NULL DEFAULT '',
    content    TEXT NOT NULL,
    visibility TEXT NOT NULL DEFAULT 'public',
    evaluation JSONB NOT NULL,
    version    INT NOT NULL DEFAULT 1,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS essays_created_at_idx ON essays (created_at DESC);
CREATE INDEX IF NOT EXISTS essays_author_idx ON essays (author_id);
`

// EnsureSchema creates the tables if they do not exist.
func EnsureSchema(ctx context.Context, pool PgxPool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("op=postgres.EnsureSchema: %w", err)
	}
	return nil
}
