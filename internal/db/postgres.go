package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slotwise/appointment-scheduling/internal/config"
)

const pingTimeout = 5 * time.Second

// Connect opens a pgx pool sized from the service configuration and verifies
// the database is reachable before handing it back. The booking path holds a
// connection for the whole advisory-lock transaction, so the pool ceiling also
// bounds how many bookings can be in flight at once.
func Connect(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pc.MaxConns = int32(cfg.PostgresMaxConns)
	pc.MinConns = 1
	pc.HealthCheckPeriod = 30 * time.Second
	pc.MaxConnLifetime = time.Hour
	pc.MaxConnIdleTime = 15 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}
