// Package db wires the pgx connection pool shared by the persistence
// engine and the read API, following the pool-holder pattern the example
// pack's Postgres-backed indexer adapter uses (a small struct wrapping
// *pgxpool.Pool, constructed once at startup).
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"namadexer/internal/config"
	nerrors "namadexer/internal/errors"
)

// DefaultMaxConns is the connection pool ceiling.
const DefaultMaxConns = 10

// Pool wraps a pgx connection pool bound to one chain's database.
type Pool struct {
	*pgxpool.Pool
}

// Open builds a pool from cfg, applying the max-connections ceiling and
// acquisition timeout.
func Open(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "db.Open", err)
	}
	poolCfg.MaxConns = DefaultMaxConns

	timeout := cfg.Database.ConnectionTimeout
	if timeout <= 0 {
		timeout = 60
	}
	poolCfg.ConnConfig.ConnectTimeout = time.Duration(timeout) * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindDB, "db.Open", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nerrors.Wrap(nerrors.KindDB, "db.Open", fmt.Errorf("ping: %w", err))
	}
	return &Pool{Pool: pool}, nil
}

// Close releases the pool's connections.
func (p *Pool) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}
