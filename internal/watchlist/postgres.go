package watchlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fundview/marketsync/internal/config"
	"github.com/fundview/marketsync/internal/database"
)

// postgresKV stores the watchlist in a shared Postgres instance.
type postgresKV struct {
	pool *pgxpool.Pool
}

// NewPostgresKV connects to Postgres and ensures the kv table exists.
func NewPostgresKV(ctx context.Context, cfg config.DBConfig) (KV, error) {
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	return &postgresKV{pool: pool}, nil
}

func (p *postgresKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (p *postgresKV) Put(ctx context.Context, key string, value []byte) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO kv (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

func (p *postgresKV) Close() error {
	p.pool.Close()
	return nil
}
