// Package postgres provides PostgreSQL persistence using pgx v5. Characters
// and shop items are stored as JSONB documents keyed by id; the store
// contract matches the in-memory implementation exactly.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashfall-games/wasteland/internal/config"
	"github.com/ashfall-games/wasteland/internal/storage"
)

var (
	_ storage.CharacterStore = (*CharacterRepository)(nil)
	_ storage.ShopStore      = (*ShopRepository)(nil)
)

// Pool is a pgx connection pool with a bounded health probe.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects a pool using the database configuration and verifies the
// connection with a ping before returning.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

// Health pings the database, bounded by timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Ping(ctx)
}
