package postgres

import (
	"context"
	"fmt"
	"time"

	"event-ticket-ledger/internal/config"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

// NewPgxPool connects with a few retries so the service tolerates a database that starts late.
func NewPgxPool(ctx context.Context, cfg config.DatabaseConfig, log *zerolog.Logger) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}

	const attempts = 5
	var pool *pgxpool.Pool
	for i := 1; i <= attempts; i++ {
		cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		pool, err = pgxpool.ConnectConfig(cctx, pcfg)
		if err == nil {
			err = pool.Ping(cctx)
		}
		cancel()
		if err == nil {
			return pool, nil
		}
		if pool != nil {
			pool.Close()
		}
		log.Warn().Err(err).Int("attempt", i).Msg("postgres not ready")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i) * time.Second):
		}
	}
	return nil, fmt.Errorf("connect postgres: %w", err)
}
