package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS console_audit (
    id          UUID PRIMARY KEY,
    admin_id    BIGINT NOT NULL,
    admin_name  TEXT NOT NULL,
    action      TEXT NOT NULL,
    target      TEXT NOT NULL,
    detail      TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS console_audit_created_at_idx ON console_audit (created_at DESC);

CREATE TABLE IF NOT EXISTS risk_flags (
    user_id     BIGINT NOT NULL,
    flag        TEXT NOT NULL,
    severity    TEXT NOT NULL,
    username    TEXT NOT NULL DEFAULT '',
    wagered     DOUBLE PRECISION NOT NULL,
    won         DOUBLE PRECISION NOT NULL,
    deposited   NUMERIC(18,2) NOT NULL,
    win_rate    DOUBLE PRECISION NOT NULL,
    first_seen  TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_seen   TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, flag)
);
`

// Connect opens the pool and makes sure the console tables exist.
func Connect(dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	// Try pinging to make sure it's valid
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return pool, nil
}
