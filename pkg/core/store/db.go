package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool    *pgxpool.Pool
	initErr error
	once    sync.Once
)

// InitDB initializes the shared connection pool from a postgres URL.
// Later calls return the result of the first, including its error.
func InitDB(ctx context.Context, dbURL string) error {
	once.Do(func() {
		initErr = openPool(ctx, dbURL)
	})
	return initErr
}

func openPool(ctx context.Context, dbURL string) error {
	if dbURL == "" {
		return errors.New("database url not set")
	}

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}

	p, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	pool = p
	return nil
}

// GetPool returns the database connection pool
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool
func Close() {
	if pool != nil {
		pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS airline_statements (
	ticker       TEXT        NOT NULL,
	fiscal_year  INTEGER     NOT NULL,
	run_id       UUID        NOT NULL,
	record_json  JSONB       NOT NULL,
	findings     INTEGER     NOT NULL DEFAULT 0,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (ticker, fiscal_year)
)`

// EnsureSchema creates the statements table when it does not exist.
func EnsureSchema(ctx context.Context, p *pgxpool.Pool) error {
	if _, err := p.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
