package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/willibrandon/skdb/internal/config"
	"github.com/willibrandon/skdb/internal/logger"
)

// maxConfigRetries bounds the environment fallback per failure streak.
const maxConfigRetries = 1

// Registry hands out one cached pool per profile.
//
// A single mutex guards configuration, the retry counter and the cache. It
// is not held while an Engine opens a pool, so two concurrent first calls
// for the same profile can both build a pool. The later store wins; the
// earlier caller keeps a working handle that the registry no longer tracks.
type Registry struct {
	engine  Engine
	loadEnv func() config.Database

	mu      sync.Mutex
	cfg     config.Database
	retries int
	pools   map[Profile]Pool
}

// Option customizes a Registry.
type Option func(*Registry)

// WithConfig seeds the registry with cfg, as if SetConfig had been called.
func WithConfig(cfg config.Database) Option {
	return func(r *Registry) { r.cfg = cfg }
}

// WithEnvLoader replaces config.DatabaseFromEnv as the fallback source.
func WithEnvLoader(fn func() config.Database) Option {
	return func(r *Registry) { r.loadEnv = fn }
}

// NewRegistry creates an empty registry backed by engine.
// A nil engine means MySQLEngine.
func NewRegistry(engine Engine, opts ...Option) *Registry {
	if engine == nil {
		engine = MySQLEngine{}
	}
	r := &Registry{
		engine:  engine,
		loadEnv: config.DatabaseFromEnv,
		pools:   make(map[Profile]Pool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetConfig replaces the connection settings wholesale. Nothing is
// validated until the next Get.
func (r *Registry) SetConfig(cfg config.Database) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
}

// Config returns the current connection settings.
func (r *Registry) Config() config.Database {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// Retries returns the retry counter: 1 while an environment fallback has
// been spent without a later successful validation, otherwise 0.
func (r *Registry) Retries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retries
}

// Engine returns the engine pools are built with.
func (r *Registry) Engine() Engine {
	return r.engine
}

// Get returns the pool for profile, building and caching it on first use.
// Errors are logged and returned; engine errors are returned unchanged.
func (r *Registry) Get(ctx context.Context, profile Profile) (Pool, error) {
	pool, err := r.get(ctx, profile)
	if err != nil {
		logger.Error("Failed to get database pool", "profile", string(profile), "error", err)
		return nil, err
	}
	return pool, nil
}

// GetByName parses name into a Profile and calls Get.
func (r *Registry) GetByName(ctx context.Context, name string) (Pool, error) {
	profile, err := ParseProfile(name)
	if err != nil {
		logger.Error("Failed to get database pool", "profile", name, "error", err)
		return nil, err
	}
	return r.Get(ctx, profile)
}

func (r *Registry) get(ctx context.Context, profile Profile) (Pool, error) {
	cfg, err := r.resolveConfig()
	if err != nil {
		return nil, err
	}

	if !profile.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProfile, string(profile))
	}

	if pool, ok := r.Cached(profile); ok {
		return pool, nil
	}

	port, err := parsePort(cfg.Port)
	if err != nil {
		return nil, err
	}

	opts := PoolOptions{
		Host:            cfg.Host,
		Port:            port,
		User:            cfg.Username,
		Password:        cfg.Password,
		Database:        string(profile),
		MultiStatements: DefaultMultiStatements,
		ConnectionLimit: DefaultConnectionLimit,
	}

	pool, err := r.engine.Open(ctx, opts)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.pools[profile] = pool
	r.mu.Unlock()

	logger.Info("Database connection pool created",
		"profile", string(profile),
		"engine", r.engine.Name(),
		"host", opts.Host,
		"port", opts.Port,
	)
	return pool, nil
}

// resolveConfig returns a complete configuration or ErrConfigurationIncomplete.
//
// Phase one checks the current settings. If they are incomplete and the
// fallback is unspent, phase two replaces all four fields from the
// environment and checks once more. There is no third phase.
func (r *Registry) resolveConfig() (config.Database, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.cfg.Complete() {
		if r.retries >= maxConfigRetries {
			return config.Database{}, incomplete(r.cfg)
		}
		r.retries++
		logger.Warn("Database connection not configured, retrying with environment variables",
			"missing", strings.Join(r.cfg.Missing(), ","),
		)
		r.cfg = r.loadEnv()

		if !r.cfg.Complete() {
			return config.Database{}, incomplete(r.cfg)
		}
	}

	if r.retries > 0 {
		logger.Info("Database connection configured successfully after retry")
		r.retries = 0
	}
	return r.cfg, nil
}

func incomplete(cfg config.Database) error {
	return fmt.Errorf("%w (missing: %s)", ErrConfigurationIncomplete, strings.Join(cfg.Missing(), ", "))
}

// Cached returns the pool stored for profile without building one.
func (r *Registry) Cached(profile Profile) (Pool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pool, ok := r.pools[profile]
	return pool, ok
}

// Close closes every cached pool and empties the cache. Handles already
// returned by Get become unusable.
func (r *Registry) Close() {
	r.mu.Lock()
	pools := r.pools
	r.pools = make(map[Profile]Pool)
	r.mu.Unlock()

	for profile, pool := range pools {
		pool.Close()
		logger.Debug("Closed connection pool", "profile", string(profile))
	}
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("%w, got %q", ErrInvalidPort, s)
	}
	return port, nil
}
