package db

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/willibrandon/skdb/internal/logger"
)

// MySQLEngine opens database/sql pools through go-sql-driver/mysql.
// It serves both MySQL and MariaDB servers.
type MySQLEngine struct{}

func (MySQLEngine) Name() string { return "mysql" }

// Open builds the pool without dialing: the first connection is made on
// first use.
func (MySQLEngine) Open(_ context.Context, opts PoolOptions) (Pool, error) {
	cfg := mysqlConfig(opts)

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		logger.Debug("MySQL connector rejected options", "host", opts.Host, "port", opts.Port, "error", err)
		return nil, err
	}

	sqlDB := sql.OpenDB(connector)
	sqlDB.SetMaxOpenConns(opts.ConnectionLimit)
	sqlDB.SetMaxIdleConns(opts.ConnectionLimit)

	logger.Debug("MySQL connection pool created",
		"host", opts.Host,
		"port", opts.Port,
		"database", opts.Database,
		"user", opts.User,
		"max_conns", opts.ConnectionLimit,
	)

	return &MySQLPool{DB: sqlDB, opts: opts}, nil
}

func mysqlConfig(opts PoolOptions) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	cfg.User = opts.User
	cfg.Passwd = opts.Password
	cfg.DBName = opts.Database
	cfg.MultiStatements = opts.MultiStatements
	cfg.ParseTime = true
	return cfg
}

// MySQLPool wraps a *sql.DB opened by MySQLEngine.
type MySQLPool struct {
	DB   *sql.DB
	opts PoolOptions
}

func (p *MySQLPool) Options() PoolOptions { return p.opts }

func (p *MySQLPool) Ping(ctx context.Context) error {
	if err := p.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s on %s:%d: %w", p.opts.Database, p.opts.Host, p.opts.Port, err)
	}
	return nil
}

func (p *MySQLPool) Close() {
	if err := p.DB.Close(); err != nil {
		logger.Warn("Failed to close MySQL pool", "database", p.opts.Database, "error", err)
	}
}
