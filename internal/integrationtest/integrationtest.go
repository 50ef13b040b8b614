// Package integrationtest provides the http server used in integration tests.
package integrationtest

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	dbtest "github.com/go-petr/pet-ledger/pkg/dbpkg/integrationtest"
)

// ConfigOption changes the test server configuration.
type ConfigOption func(*configpkg.Config)

// WithTransferMode sets TRANSFER_MODE.
func WithTransferMode(mode string) ConfigOption {
	return func(c *configpkg.Config) {
		c.TransferMode = mode
	}
}

// WithBalanceFloor sets BALANCE_FLOOR.
func WithBalanceFloor(floor string) ConfigOption {
	return func(c *configpkg.Config) {
		c.BalanceFloor = floor
	}
}

// SetupServer returns test server on the database at dsn that cleans it up after the test.
func SetupServer(t *testing.T, dsn string, opts ...ConfigOption) *httpserver.Server {
	t.Helper()

	config := configpkg.Config{
		DBDriver:     dbtest.Driver,
		DBSource:     dsn,
		Environment:  "test",
		TransferMode: configpkg.TransferModeAtomic,
	}

	for _, opt := range opts {
		opt(&config)
	}

	zerolog.SetGlobalLevel(zerolog.FatalLevel)

	logger := middleware.CreateLogger(config)

	db := dbtest.SetupDB(t, dsn)

	gin.SetMode(gin.ReleaseMode)

	server, err := httpserver.New(db, logger, config)
	if err != nil {
		t.Fatalf(`httpserver.New(db, logger, config) returned error: %v`, err)
	}

	return server
}
