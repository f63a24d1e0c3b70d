// internal/database/db.go
package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emre-k/studyhall/internal/store"
)

// Store is the postgres-backed implementation of store.Store. It holds its
// own pool; construct one with Connect and inject it into the service.
type Store struct {
	pool *pgxpool.Pool
}

// Connect builds a pool from the POSTGRES_USER / POSTGRES_PASSWORD / PG_HOST /
// PG_PORT / PG_DATABASE environment variables and pings it.
func Connect(ctx context.Context) (*Store, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("PG_HOST"),
		os.Getenv("PG_PORT"),
		os.Getenv("PG_DATABASE"),
	)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates the schema if it is not already present. Statements run
// one at a time; pgx's extended protocol rejects multi-command strings.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lobbies (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			is_public BOOLEAN NOT NULL,
			credential_digest TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS lobby_members (
			lobby_id TEXT NOT NULL REFERENCES lobbies(id),
			user_id TEXT NOT NULL,
			accumulated_seconds BIGINT NOT NULL DEFAULT 0,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			is_running BOOLEAN NOT NULL DEFAULT FALSE,
			session_started_at TIMESTAMPTZ,
			PRIMARY KEY (lobby_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lobby_members_lobby ON lobby_members(lobby_id)`,
		`CREATE TABLE IF NOT EXISTS user_slots (
			user_id TEXT NOT NULL,
			slot SMALLINT NOT NULL CHECK (slot BETWEEN 1 AND 10),
			lobby_id TEXT NOT NULL,
			PRIMARY KEY (user_id, slot)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_user_slots_lobby ON user_slots(lobby_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return nil
}

// mapErr translates pgx-level errors into the store sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return store.ErrDuplicate
		case "23503": // foreign_key_violation
			return store.ErrNotFound
		}
	}
	return err
}
