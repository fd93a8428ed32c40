package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the root configuration structure
type Config struct {
	Database Database `mapstructure:"database"`
	Engine   string   `mapstructure:"engine"`
	LogFile  string   `mapstructure:"log_file"`
	LogLevel string   `mapstructure:"log_level"`
	Debug    bool     `mapstructure:"debug"`
}

// Database holds connection credentials shared by every profile.
// An empty field is unset.
type Database struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Complete reports whether all four fields are set.
func (d Database) Complete() bool {
	return d.Host != "" && d.Port != "" && d.Username != "" && d.Password != ""
}

// Missing lists the keys of unset fields.
func (d Database) Missing() []string {
	var missing []string
	if d.Host == "" {
		missing = append(missing, "host")
	}
	if d.Port == "" {
		missing = append(missing, "port")
	}
	if d.Username == "" {
		missing = append(missing, "username")
	}
	if d.Password == "" {
		missing = append(missing, "password")
	}
	return missing
}

// envBindings maps each database key to its fallback pair: the
// framework-prefixed name first, then the bare name.
var envBindings = map[string][2]string{
	"host":     {"NUXT_DATABASE_HOST", "DATABASE_HOST"},
	"port":     {"NUXT_DATABASE_PORT", "DATABASE_PORT"},
	"username": {"NUXT_DATABASE_USERNAME", "DATABASE_USERNAME"},
	"password": {"NUXT_DATABASE_PASSWORD", "DATABASE_PASSWORD"},
}

// Engines accepted in the engine key.
var Engines = []string{"mysql", "mariadb", "postgres"}

// DatabaseFromEnv reads the four database fields from the environment.
// Each field takes the first non-empty variable of its pair, or stays unset.
func DatabaseFromEnv() Database {
	v := viper.New()
	bindDatabaseEnv(v, "")
	return Database{
		Host:     v.GetString("host"),
		Port:     v.GetString("port"),
		Username: v.GetString("username"),
		Password: v.GetString("password"),
	}
}

func bindDatabaseEnv(v *viper.Viper, prefix string) {
	for key, names := range envBindings {
		// BindEnv only errors when called without a key.
		_ = v.BindEnv(prefix+key, names[0], names[1])
	}
}

// LoadConfig loads config.yaml from $HOME/.config/skdb or the working
// directory, overlaid with the database environment variables. A missing
// file is not an error.
func LoadConfig() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.config/skdb")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadConfigFromPath loads the YAML file at path, overlaid with the
// database environment variables. The file must exist.
func LoadConfigFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("engine", "mysql")
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("debug", false)
	bindDatabaseEnv(v, "database.")
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateConfig checks the non-database settings. Database fields are
// checked lazily when a pool is requested.
func ValidateConfig(cfg *Config) error {
	cfg.Engine = strings.ToLower(strings.TrimSpace(cfg.Engine))
	for _, e := range Engines {
		if cfg.Engine == e {
			return nil
		}
	}
	return fmt.Errorf("engine must be one of: %v, got %q", Engines, cfg.Engine)
}
