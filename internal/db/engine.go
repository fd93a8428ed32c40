package db

import (
	"context"
	"fmt"
	"strings"
)

// Fixed pool settings applied to every profile.
const (
	DefaultConnectionLimit = 10
	DefaultMultiStatements = true
)

// PoolOptions is everything an Engine needs to build a pool.
type PoolOptions struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MultiStatements bool
	ConnectionLimit int
}

// Pool is a handle to a live connection pool owned by an Engine.
type Pool interface {
	// Options returns the settings the pool was built with.
	Options() PoolOptions
	// Ping checks that a connection can be acquired.
	Ping(ctx context.Context) error
	// Close releases every connection held by the pool.
	Close()
}

// Engine builds pools for one database server flavour.
type Engine interface {
	Name() string
	Open(ctx context.Context, opts PoolOptions) (Pool, error)
}

// EngineByName returns the engine for "mysql", "mariadb" or "postgres".
func EngineByName(name string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mysql", "mariadb":
		return MySQLEngine{}, nil
	case "postgres", "postgresql":
		return PostgresEngine{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
}
