// Package postgres stores question packs and finished session results in
// PostgreSQL using pgx v5. The schema lives in the top-level migrations
// package and is applied by cmd/migrate.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/quizboss/internal/config"
)

// ErrSchemaMissing is returned by CheckSchema when migrations have not been applied.
var ErrSchemaMissing = errors.New("database schema missing, run cmd/migrate")

// schemaTables are the tables the repositories read and write.
var schemaTables = []string{"question_packs", "questions", "session_results"}

// Pool is the shared connection pool behind PackRepository and ResultRepository.
type Pool struct {
	pool *pgxpool.Pool
	name string
}

// NewPool connects to the database named in cfg.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a Pool that answered a ping, or a non-nil error.
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
		return nil, fmt.Errorf("creating connection pool for %s: %w", cfg.Name, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database %s: %w", cfg.Name, err)
	}
	return &Pool{pool: pool, name: cfg.Name}, nil
}

// CheckSchema verifies that every table the repositories use exists.
//
// Postcondition: Returns an error wrapping ErrSchemaMissing that names the
// missing tables, a query error, or nil.
func (p *Pool) CheckSchema(ctx context.Context) error {
	rows, err := p.pool.Query(ctx,
		`SELECT t FROM unnest($1::text[]) AS t WHERE to_regclass(t) IS NULL ORDER BY t`,
		schemaTables)
	if err != nil {
		return fmt.Errorf("checking schema of %s: %w", p.name, err)
	}
	defer rows.Close()

	var missing []string
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return fmt.Errorf("checking schema of %s: %w", p.name, err)
		}
		missing = append(missing, table)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("checking schema of %s: %w", p.name, err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s lacks %s", ErrSchemaMissing, p.name, strings.Join(missing, ", "))
	}
	return nil
}

// Health pings the database within timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool for the repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
