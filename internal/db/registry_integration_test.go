package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/willibrandon/skdb/internal/config"
)

func TestRegistry_MariaDBIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	const password = "test"
	req := testcontainers.ContainerRequest{
		Image:        "mariadb:11",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MARIADB_ROOT_PASSWORD": password,
			"MARIADB_DATABASE":      string(ProfileSKP),
		},
		WaitingFor: wait.ForListeningPort("3306/tcp").WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "Failed to start MariaDB container")
	defer func() {
		_ = container.Terminate(context.Background())
	}()

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306")
	require.NoError(t, err)

	r := NewRegistry(MySQLEngine{}, WithConfig(config.Database{
		Host:     host,
		Port:     port.Port(),
		Username: "root",
		Password: password,
	}))
	defer r.Close()

	pool, err := r.Get(ctx, ProfileSKP)
	require.NoError(t, err)

	// The server may accept TCP before it accepts logins.
	require.Eventually(t, func() bool {
		return pool.Ping(ctx) == nil
	}, 60*time.Second, time.Second)

	mp := pool.(*MySQLPool)
	_, err = mp.DB.ExecContext(ctx, "CREATE TABLE t (id INT); INSERT INTO t VALUES (1), (2)")
	require.NoError(t, err, "multi-statement exec")

	var n int
	require.NoError(t, mp.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM t").Scan(&n))
	assert.Equal(t, 2, n)

	again, err := r.Get(ctx, ProfileSKP)
	require.NoError(t, err)
	assert.Same(t, pool, again)
}
