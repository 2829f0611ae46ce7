package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ShadowCodeSoftware/E-sante/pkg/database"
)

const kvSchema = `
	CREATE TABLE IF NOT EXISTS kv_store (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// PostgresBackend keeps every key as one row of the kv_store table
type PostgresBackend struct {
	pool *database.ConnectionPool
	db   *sql.DB
}

// NewPostgresBackend wraps an open connection pool
func NewPostgresBackend(pool *database.ConnectionPool) *PostgresBackend {
	return &PostgresBackend{pool: pool, db: pool.GetDB()}
}

// EnsureSchema creates the kv_store table when missing
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, kvSchema); err != nil {
		return fmt.Errorf("failed to create kv_store table: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Read(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := b.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (b *PostgresBackend) Write(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	_, err := b.db.ExecContext(ctx, query, key, value)
	return err
}

func (b *PostgresBackend) Delete(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = $1`, key)
	return err
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.pool.Health(ctx)
}

func (b *PostgresBackend) Close() error {
	return b.pool.Close()
}
