// Package postgres provides a Postgres-backed key-value backend for
// deployments that already run a relational database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Config controls the Postgres connection pool.
type Config struct {
	DSN      string
	Table    string
	MaxConns int32
}

// KV implements news.KV over a single two-column table.
type KV struct {
	pool  dbPool
	table string
}

// New connects to Postgres and ensures the backing table exists.
func New(ctx context.Context, cfg Config) (*KV, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.postgres_dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "kv_entries"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	kv := &KV{pool: pool, table: table}
	if err := kv.ensureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return kv, nil
}

// NewWithPool constructs a KV from an existing pool (primarily for testing).
func NewWithPool(pool dbPool, table string) (*KV, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "kv_entries"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &KV{pool: pool, table: table}, nil
}

func (k *KV) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, k.table)
	if _, err := k.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure table %s: %w", k.table, err)
	}
	return nil
}

// Get returns the stored value and whether the key exists.
func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, k.table)
	var value string
	err := k.pool.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Put upserts a value under key.
func (k *KV) Put(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()`, k.table)
	if _, err := k.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Delete removes a key; deleting an absent key is not an error.
func (k *KV) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, k.table)
	if _, err := k.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (k *KV) Close() {
	if k == nil || k.pool == nil {
		return
	}
	k.pool.Close()
}
