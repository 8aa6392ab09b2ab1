// Package testutil provides test helpers: a migrated PostgreSQL container and
// the behavioral contract shared by every save repository.
package testutil

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/cardstack/internal/config"
	"github.com/cory-johannsen/cardstack/internal/storage/postgres"
)

// PostgresContainer is a throwaway PostgreSQL server holding the saves
// schema.
type PostgresContainer struct {
	Pool   *postgres.Pool
	Config config.DatabaseConfig
}

// MigrationsDir returns the repository's migrations directory.
func MigrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// NewPostgresContainer starts a PostgreSQL container, connects to it and
// applies every migration. The container is terminated when the test ends.
//
// Precondition: Docker must be available.
// Postcondition: Returns a connected, migrated database or fails the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "cardstack",
				"POSTGRES_PASSWORD": "cardstack",
				"POSTGRES_DB":       "saves",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v [%s]", err, time.Since(start))
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("getting container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("getting mapped port: %v", err)
	}

	cfg := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "cardstack",
		Password:        "cardstack",
		Name:            "saves",
		SSLMode:         "disable",
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}

	if _, err := postgres.Migrate(cfg.DSN(), MigrationsDir(), postgres.Up, 0); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	pool, err := postgres.Connect(ctx, cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("connecting to test postgres: %v [%s]", err, time.Since(start))
	}
	t.Cleanup(pool.Close)

	t.Logf("postgres container ready [%s]", time.Since(start))
	return &PostgresContainer{Pool: pool, Config: cfg}
}
