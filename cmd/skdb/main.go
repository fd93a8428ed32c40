package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/willibrandon/skdb/internal/config"
	"github.com/willibrandon/skdb/internal/db"
	"github.com/willibrandon/skdb/internal/logger"
)

var (
	// Version info (set by ldflags)
	version = "dev"

	// Flags
	configPath string
	envFile    string
	logFile    string
	logLevel   string
	debug      bool
	timeout    time.Duration

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

func main() {
	err := newRootCmd().Execute()
	logger.Close()
	if err != nil {
		// Error already printed by cobra
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "skdb",
		Short: "Inspect skdb database profiles",
		Long: `skdb resolves a database profile (skp, central, bots) to a pooled
connection using config.yaml and the DATABASE_* environment variables.

  skdb profiles          List recognized profiles
  skdb ping <profile>    Open the profile's pool and ping it`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/skdb/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment variables from this .env file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write JSON logs to this file instead of stderr (overrides log_file)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides log_level)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newProfilesCmd(),
		newPingCmd(),
	)
	return rootCmd
}

// setup loads the optional .env file and the config, then installs the
// logger from flags falling back to config values.
func setup(stderr io.Writer) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("error loading env file %s: %w", envFile, err)
		}
	}

	var err error
	if configPath != "" {
		cfg, err = config.LoadConfigFromPath(configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}

	path := logFile
	if path == "" {
		path = cfg.LogFile
	}
	if path != "" {
		logger.InitLogger(resolveLevel(cfg), path)
	} else {
		logger.InitWriter(resolveLevel(cfg), stderr)
	}
	return nil
}

// resolveLevel picks --debug or debug first, then --log-level, then log_level.
func resolveLevel(c *config.Config) logger.LogLevel {
	if debug || c.Debug {
		return logger.LevelDebug
	}
	name := logLevel
	if name == "" {
		name = c.LogLevel
	}
	if name == "" {
		return logger.LevelWarn
	}
	return logger.ParseLevel(name)
}

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List recognized database profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range db.ValidProfiles() {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func newPingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping <profile>",
		Short: "Open the pool for a profile and ping it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRegistry(cfg)
			if err != nil {
				return err
			}
			defer r.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return runPing(db.WithRegistry(ctx, r), cmd.OutOrStdout(), args[0])
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "give up after this long")
	return cmd
}

func newRegistry(c *config.Config) (*db.Registry, error) {
	engine, err := db.EngineByName(c.Engine)
	if err != nil {
		return nil, err
	}
	return db.NewRegistry(engine, db.WithConfig(c.Database)), nil
}

func runPing(ctx context.Context, out io.Writer, name string) error {
	r, err := db.RegistryFromContext(ctx)
	if err != nil {
		return err
	}

	pool, err := r.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		return err
	}

	opts := pool.Options()
	fmt.Fprintf(out, "ok %s %s:%d (%s)\n", opts.Database, opts.Host, opts.Port, r.Engine().Name())
	return nil
}
