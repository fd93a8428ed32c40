package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearDatabaseEnv(t *testing.T) {
	t.Helper()
	for _, names := range envBindings {
		for _, n := range names {
			t.Setenv(n, "")
		}
	}
}

func TestDatabase_Complete(t *testing.T) {
	full := Database{Host: "db.local", Port: "3306", Username: "u", Password: "p"}
	assert.True(t, full.Complete())
	assert.Empty(t, full.Missing())

	partial := full
	partial.Password = ""
	assert.False(t, partial.Complete())
	assert.Equal(t, []string{"password"}, partial.Missing())

	assert.Equal(t, []string{"host", "port", "username", "password"}, Database{}.Missing())
}

func TestDatabaseFromEnv_PrefixedWins(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("NUXT_DATABASE_HOST", "nuxt-host")
	t.Setenv("DATABASE_HOST", "bare-host")
	t.Setenv("DATABASE_PORT", "3307")
	t.Setenv("NUXT_DATABASE_USERNAME", "svc")
	t.Setenv("DATABASE_PASSWORD", "secret")

	got := DatabaseFromEnv()
	assert.Equal(t, Database{Host: "nuxt-host", Port: "3307", Username: "svc", Password: "secret"}, got)
}

func TestDatabaseFromEnv_EmptyIsUnset(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("DATABASE_HOST", "bare-host")

	got := DatabaseFromEnv()
	assert.Equal(t, "bare-host", got.Host)
	assert.Empty(t, got.Port)
	assert.False(t, got.Complete())
}

func TestLoadConfigFromPath(t *testing.T) {
	clearDatabaseEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`database:
  host: db.local
  port: 3306
  username: u
  password: p
engine: MariaDB
log_file: /tmp/skdb.log
log_level: debug
debug: true
`)
	require.NoError(t, os.WriteFile(path, content, 0600))

	cfg, err := LoadConfigFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, Database{Host: "db.local", Port: "3306", Username: "u", Password: "p"}, cfg.Database)
	assert.Equal(t, "mariadb", cfg.Engine)
	assert.Equal(t, "/tmp/skdb.log", cfg.LogFile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Debug)
}

func TestLoadConfigFromPath_EnvOverrides(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("NUXT_DATABASE_HOST", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  host: from-file\n"), 0600))

	cfg, err := LoadConfigFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Database.Host)
	assert.Equal(t, "mysql", cfg.Engine)
}

func TestLoadConfigFromPath_Missing(t *testing.T) {
	_, err := LoadConfigFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigFromPath_BadEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: oracle\n"), 0600))

	_, err := LoadConfigFromPath(path)
	assert.ErrorContains(t, err, "engine must be one of")
}

func TestLoadConfig_NoFile(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_HOST", "env-only")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "env-only", cfg.Database.Host)
	assert.Equal(t, "mysql", cfg.Engine)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Empty(t, cfg.LogFile)
}
