// Package pg implementa los repositorios sobre PostgreSQL con pgxpool.
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct{ pool *pgxpool.Pool }

type Options struct {
	MaxOpenConns    int
	MinConns        int
	ConnMaxLifetime string
}

func New(ctx context.Context, dsn string, opts Options) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		pcfg.MaxConns = int32(opts.MaxOpenConns)
	}
	if opts.MinConns > 0 {
		pcfg.MinConns = int32(opts.MinConns)
	}
	if opts.ConnMaxLifetime != "" {
		if d, err := time.ParseDuration(opts.ConnMaxLifetime); err == nil {
			pcfg.MaxConnLifetime = d
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Pool expone el pool interno (migraciones, métricas).
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

// Close cierra el pool subyacente (idempotente).
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}
