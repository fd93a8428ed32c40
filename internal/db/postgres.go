package db

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/willibrandon/skdb/internal/logger"
)

// PostgresEngine opens pgxpool pools.
type PostgresEngine struct{}

func (PostgresEngine) Name() string { return "postgres" }

// Open builds a pgxpool. pgxpool connects lazily, so this does not dial.
func (PostgresEngine) Open(ctx context.Context, opts PoolOptions) (Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(postgresURL(opts))
	if err != nil {
		logger.Debug("Failed to parse connection string", "host", opts.Host, "port", opts.Port, "error", err)
		return nil, err
	}

	poolConfig.MaxConns = int32(opts.ConnectionLimit)
	poolConfig.MinConns = 0
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "skdb"

	// The extended protocol rejects "SELECT 1; SELECT 2".
	if opts.MultiStatements {
		poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Debug("Failed to create connection pool",
			"host", opts.Host,
			"port", opts.Port,
			"error", err,
		)
		return nil, err
	}

	logger.Debug("PostgreSQL connection pool created",
		"host", opts.Host,
		"port", opts.Port,
		"database", opts.Database,
		"user", opts.User,
		"max_conns", opts.ConnectionLimit,
	)

	return &PostgresPool{Pool: pool, opts: opts}, nil
}

func postgresURL(opts PoolOptions) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(opts.User, opts.Password),
		Host:   net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
		Path:   "/" + opts.Database,
	}
	return u.String()
}

// PostgresPool wraps a *pgxpool.Pool opened by PostgresEngine.
type PostgresPool struct {
	Pool *pgxpool.Pool
	opts PoolOptions
}

func (p *PostgresPool) Options() PoolOptions { return p.opts }

func (p *PostgresPool) Ping(ctx context.Context) error {
	var version string
	if err := p.Pool.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return fmt.Errorf("connection validation failed: %w", err)
	}
	logger.Debug("Server version retrieved", "database", p.opts.Database, "version", version)
	return nil
}

func (p *PostgresPool) Close() { p.Pool.Close() }
