package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a PostgreSQL connection pool.
type Postgres struct {
	url string

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

// NewPostgres creates an unconnected PostgreSQL handle.
func NewPostgres(databaseURL string) *Postgres {
	return &Postgres{url: databaseURL}
}

// Connect creates the pool and verifies it.
func (p *Postgres) Connect(ctx context.Context) error {
	config, err := pgxpool.ParseConfig(p.url)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	p.mu.Lock()
	p.pool = pool
	p.mu.Unlock()
	return nil
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	p.mu.RLock()
	pool := p.pool
	p.mu.RUnlock()

	if pool == nil {
		return ErrNotConnected
	}
	return pool.Ping(ctx)
}

// Close closes the connection pool.
func (p *Postgres) Close(ctx context.Context) error {
	p.mu.Lock()
	pool := p.pool
	p.pool = nil
	p.mu.Unlock()

	if pool != nil {
		pool.Close()
	}
	return nil
}

// Driver returns "postgres".
func (p *Postgres) Driver() string {
	return "postgres"
}
