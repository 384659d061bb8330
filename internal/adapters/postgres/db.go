// Package postgres stores facts, snapshots and the job ledger in PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"errors"
	"io"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"riskmap/internal/adapters/sqlmigrate"
	"riskmap/internal/domain"
	"riskmap/internal/ports"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Migrations is the schema as goose migrations.
var Migrations = mustSub(embedded, "migrations")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

type DB struct {
	Pool *pgxpool.Pool
}

var _ ports.Store = (*DB)(nil)

func Connect(ctx context.Context, url string, maxConns int32) (*DB, error) {
	cfg, err := poolConfig(url, maxConns)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

// poolConfig parses url and raises the pool size to maxConns. A larger
// pool_max_conns in the url wins.
func poolConfig(url string, maxConns int32) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	if maxConns > cfg.MaxConns {
		cfg.MaxConns = maxConns
	}
	cfg.HealthCheckPeriod = 30 * time.Second
	return cfg, nil
}

func (db *DB) Close() { db.Pool.Close() }

// Migrate runs a goose command ("up", "down", "status") over the pool.
func (db *DB) Migrate(ctx context.Context, command string, out io.Writer) error {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()
	return sqlmigrate.Run(ctx, goose.DialectPostgres, sqlDB, Migrations, command, out)
}

// inTx runs fn in a transaction that commits when fn succeeds.
func (db *DB) inTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()
	return fn(tx)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
