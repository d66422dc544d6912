package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/stockpulse/config"
	"github.com/guttosm/stockpulse/internal/api"
	"github.com/guttosm/stockpulse/internal/ingestion"
	"github.com/guttosm/stockpulse/internal/provider/alphavantage"
	"github.com/guttosm/stockpulse/internal/service"
	"github.com/guttosm/stockpulse/internal/storage"
)

// migrator provisions the schema; overridden in tests where goose cannot run.
var migrator = storage.Migrate

// InitializeApp sets up all API dependencies and returns a fully configured
// Gin router, a cleanup function for graceful shutdown, and any error
// encountered during initialization.
//
// Responsibilities:
//   - Connects to PostgreSQL and applies the schema migrations.
//   - Builds the repository, the query and statistics services and the handler.
//   - Configures the Gin router and registers the health and readiness probes.
//   - Provides a cleanup function that closes the database pool.
func InitializeApp(cfg config.Config) (*gin.Engine, func(), error) {
	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	if err := migrator(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to provision schema: %w", err)
	}

	repo := storage.NewPriceRepository(db)

	handler := api.NewHandler(
		service.NewFinancialDataService(repo),
		service.NewStatisticsService(repo),
	)
	router := api.NewRouter(handler, cfg.Server)

	api.NewHealthHandler(db.PingContext).Register(router)

	cleanup := func() {
		_ = db.Close()
	}

	return router, cleanup, nil
}

// RunIngestion performs one ingestion run for cfg.Ingestion.Symbols.
//
// It validates the ingestion settings, connects to PostgreSQL, provisions the
// schema and runs an ingestion.Job against the Alpha Vantage client. The
// database pool is closed before returning.
func RunIngestion(ctx context.Context, cfg config.Config) (ingestion.Summary, error) {
	if err := cfg.ValidateIngestion(); err != nil {
		return ingestion.Summary{}, fmt.Errorf("invalid ingestion config: %w", err)
	}

	db, err := postgresOpener(cfg)
	if err != nil {
		return ingestion.Summary{}, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := migrator(ctx, db); err != nil {
		return ingestion.Summary{}, fmt.Errorf("failed to provision schema: %w", err)
	}

	job := ingestion.NewJob(
		alphavantage.NewClient(cfg.Provider),
		storage.NewPriceRepository(db),
		cfg.Ingestion,
	)
	return job.Run(ctx)
}
