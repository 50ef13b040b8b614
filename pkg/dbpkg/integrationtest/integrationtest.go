// Package integrationtest provides a disposable PostgreSQL used by integration tests.
package integrationtest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/go-petr/pet-ledger/pkg/dbpkg"
)

// Driver is the database/sql driver name used against the container.
const Driver = "postgres"

// Postgres is a running database container with the schema migrated.
type Postgres struct {
	DSN       string
	container *tcpostgres.PostgresContainer
}

// StartPostgres starts a disposable PostgreSQL container and applies the migrations.
//
// It is meant for TestMain, so it returns errors instead of taking *testing.T.
func StartPostgres(ctx context.Context) (*Postgres, error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("postgres connection string: %w", err)
	}

	if err := dbpkg.Migrate(dsn); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &Postgres{DSN: dsn, container: container}, nil
}

// Terminate stops and removes the container.
func (p *Postgres) Terminate(ctx context.Context) error {
	return p.container.Terminate(ctx)
}

// Flush truncates all ledger tables and restarts their id sequences.
func Flush(t *testing.T, db *sql.DB) {
	t.Helper()

	if _, err := db.Exec(`TRUNCATE TABLE transfers, accounts RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("db cleanup failed. err: %v", err)
	}
}

// SetupDB opens a connection to dsn and flushes the tables once the test is done.
func SetupDB(t *testing.T, dsn string) *sql.DB {
	t.Helper()

	db, err := dbpkg.Setup(Driver, dsn)
	if err != nil {
		t.Fatalf("db initialization failed. err: %v", err)
	}

	t.Cleanup(func() {
		Flush(t, db)

		if err := db.Close(); err != nil {
			t.Fatalf("db cleanup failed. err: %v", err)
		}
	})

	return db
}
