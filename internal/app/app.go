package app

import (
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/econpulse/config"
	"github.com/guttosm/econpulse/internal/api"
	"github.com/guttosm/econpulse/internal/ingestion"
	"github.com/guttosm/econpulse/internal/logger"
	"github.com/guttosm/econpulse/internal/service"
	"github.com/guttosm/econpulse/internal/storage"
)

// App bundles the components that share one database pool.
type App struct {
	Router   *gin.Engine
	Service  service.IndicatorService
	Pipeline *ingestion.Pipeline

	db *sql.DB
}

// Close releases the database pool. A close failure is logged; the process
// is already shutting down by then.
func (a *App) Close() {
	if err := a.db.Close(); err != nil {
		logger.L().Error().Err(err).Msg("database pool close failed")
	}
}

// Build connects to PostgreSQL and wires every layer from cfg.
//
// Responsibilities:
//   - Connects to PostgreSQL using InitPostgres().
//   - Initializes the read repository, the cached IndicatorService and the HTTP layer.
//   - Registers health and readiness probes.
//   - Builds the ETL pipeline over the same pool.
func Build(cfg config.Config) (*App, error) {
	// indirection for unit testing
	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	repo := storage.NewIndicatorsRepository(db)
	svc := service.NewIndicatorService(repo, cfg.Cache.TTL)

	router := api.NewRouter(api.NewHandler(svc))
	api.NewHealthHandler(db.PingContext).Register(router)

	return &App{
		Router:   router,
		Service:  svc,
		Pipeline: NewPipeline(cfg, db),
		db:       db,
	}, nil
}

// InitializeApp sets up all application dependencies from config.AppConfig and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
func InitializeApp() (*gin.Engine, func(), error) {
	a, err := Build(config.AppConfig)
	if err != nil {
		return nil, nil, err
	}
	return a.Router, a.Close, nil
}
