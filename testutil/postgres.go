// Package testutil provides shared test helpers for spinning up a real
// PostgreSQL instance against which introspection and end-to-end tests run.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// postgresImage returns the PostgreSQL container image to test against,
// read from PGMOLD_POSTGRES_VERSION, defaulting to 17.
func postgresImage() string {
	version := os.Getenv("PGMOLD_POSTGRES_VERSION")
	if version == "" {
		version = "17"
	}
	return "postgres:" + version + "-alpine"
}

// TestPostgres holds a running PostgreSQL test container and a connection
// string ready to hand to internal/source or pgx.Connect.
type TestPostgres struct {
	container *tcpostgres.PostgresContainer
	DSN       string
}

// SetupTestPostgres starts a disposable PostgreSQL container for t and
// registers its teardown with t.Cleanup.
func SetupTestPostgres(ctx context.Context, t *testing.T) *TestPostgres {
	t.Helper()

	container, err := tcpostgres.Run(ctx, postgresImage(),
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("reading container connection string: %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminating postgres container: %v", err)
		}
	})

	return &TestPostgres{container: container, DSN: dsn}
}

// MajorVersion queries the running instance's PostgreSQL major version,
// used by ShouldSkipTest to apply version-specific skips.
func (p *TestPostgres) MajorVersion(ctx context.Context) (int, error) {
	conn, err := pgx.Connect(ctx, p.DSN)
	if err != nil {
		return 0, fmt.Errorf("connecting to test postgres: %w", err)
	}
	defer conn.Close(ctx)

	var versionNum int
	if err := conn.QueryRow(ctx, "SHOW server_version_num").Scan(&versionNum); err != nil {
		return 0, fmt.Errorf("querying server_version_num: %w", err)
	}
	return versionNum / 10000, nil
}

// Exec runs stmt against the test instance, failing t on error.
func (p *TestPostgres) Exec(ctx context.Context, t *testing.T, stmt string) {
	t.Helper()
	conn, err := pgx.Connect(ctx, p.DSN)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, stmt); err != nil {
		t.Fatalf("executing setup statement: %v", err)
	}
}
