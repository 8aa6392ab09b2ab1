// Package postgres stores save slots in PostgreSQL through pgx v5 and owns
// the migrations of the saves schema.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/cardstack/internal/config"
)

// connectAttempts bounds the pings Connect makes before giving up; the
// first retry waits connectBackoff and each later one doubles it.
const (
	connectAttempts = 5
	connectBackoff  = 200 * time.Millisecond
)

// Pool is the connection pool shared by the save repository and the health
// watcher.
type Pool struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Connect opens a pool for cfg and waits until the database answers a ping.
//
// Precondition: cfg must hold valid connection parameters; logger must be
// non-nil.
// Postcondition: Returns a pool that answered a ping, or an error once every
// attempt failed or ctx ended.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Pool, error) {
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

	start := time.Now()
	backoff := connectBackoff
	for attempt := 1; ; attempt++ {
		err = pool.Ping(ctx)
		if err == nil {
			break
		}
		if attempt == connectAttempts {
			pool.Close()
			return nil, fmt.Errorf("pinging database after %d attempts: %w", attempt, err)
		}
		logger.Debug("database not ready",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, fmt.Errorf("pinging database: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	logger.Info("database connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &Pool{pool: pool, logger: logger}, nil
}

// Saves returns the save repository backed by the pool.
func (p *Pool) Saves() *SaveRepository {
	return NewSaveRepository(p.pool)
}

// Watch pings the database every interval until stop is closed, logging
// failed pings. Each ping is bounded by timeout.
func (p *Pool) Watch(stop <-chan struct{}, interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			if err := p.pool.Ping(ctx); err != nil {
				p.logger.Warn("database health check failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
