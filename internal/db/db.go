package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Config struct {
	Addr         string
	MaxConns     int32
	MinConns     int32
	MaxIdleTime  string
	PingDeadline time.Duration
}

// New sets up a pgx connection pool and verifies it with a ping.
func New(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.Addr)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConns > 0 {
		config.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		config.MinConns = cfg.MinConns
	}
	if cfg.MaxIdleTime != "" {
		d, err := time.ParseDuration(cfg.MaxIdleTime)
		if err != nil {
			return nil, err
		}
		config.MaxConnIdleTime = d
	}

	deadline := cfg.PingDeadline
	if deadline <= 0 {
		deadline = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
