// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/accountdelivery"
	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/accountservice"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/internal/transferdelivery"
	"github.com/go-petr/pet-ledger/internal/transferrepo"
	"github.com/go-petr/pet-ledger/internal/transferservice"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/validatorpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

func txRunner(conn *sql.DB, mode string) transferservice.TxRunner {
	if mode == configpkg.TransferModeSequential {
		return dbpkg.Sequential{}
	}

	return dbpkg.NewTransactor(conn)
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	floor, err := config.Floor()
	if err != nil {
		return nil, err
	}

	accountRepo := accountrepo.NewRepoPGS(conn, accountrepo.WithBalanceFloor(floor))
	transferRepo := transferrepo.NewRepoPGS(conn)

	accountService := accountservice.New(accountRepo)
	transferService := transferservice.New(transferRepo, accountService, txRunner(conn, config.TransferMode))

	accountHandler := accountdelivery.NewHandler(accountService)
	transferHandler := transferdelivery.NewHandler(transferService)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validatorpkg.Register(v); err != nil {
			return nil, fmt.Errorf("cannot register decimal validator: %w", err)
		}
	}

	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/accounts", accountHandler.Create)
	engine.GET("/accounts", accountHandler.List)
	engine.DELETE("/accounts/:id", accountHandler.Delete)
	engine.PATCH("/accounts/:id", accountHandler.Patch)

	engine.POST("/transfers", transferHandler.Create)
	engine.GET("/transfers", transferHandler.List)
	engine.GET("/transfers/export", transferHandler.Export)

	logger.Info().
		Str("transfer_mode", config.TransferMode).
		Str("balance_floor", config.BalanceFloor).
		Msg("ledger routes registered")

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
