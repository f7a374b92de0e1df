package postgres

import (
	"context"
	"fmt"
	"time"

	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool configures pgxpool from a DSN, verifies connectivity, and returns the pool.
func NewPool(ctx context.Context, dsn string, logger *logger.Logger) (*pgxpool.Pool, error) {
	start := time.Now()

	// parse pgxpool config
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}

	// good hygiene defaults
	pcfg.HealthCheckPeriod = 30 * time.Second
	pcfg.MaxConnIdleTime = 5 * time.Minute

	// keep sessions on UTC
	pcfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `SET TIME ZONE 'UTC'`)
		return err
	}

	// create pool
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}

	// ping with timeout
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	logger.Info(ctx, "db_connected", "Connected to PostgreSQL database", map[string]any{"duration_ms": time.Since(start).Milliseconds()})

	return pool, nil
}

// Health returns a /healthz check that pings the pool.
func Health(pool *pgxpool.Pool) func(ctx context.Context) (string, bool) {
	return func(ctx context.Context) (string, bool) {
		if err := pool.Ping(ctx); err != nil {
			return "unreachable", false
		}
		return "connected", true
	}
}
