package main

//
//  @title           stockpulse API
//  @version         1.0
//  @description     Daily equity prices ingested from Alpha Vantage, with filtering, pagination and statistics.
//  @termsOfService  https://github.com/guttosm/stockpulse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/stockpulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        financial_data
//  @tag.description Paginated daily price records
//
//  @tag.name        statistics
//  @tag.description Aggregates over a symbol and date range
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/stockpulse/config"
	_ "github.com/guttosm/stockpulse/docs" // swagger docs
	"github.com/guttosm/stockpulse/internal/app"
	"github.com/guttosm/stockpulse/internal/logger"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Error().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// options are the command line overrides applied on top of config.Load.
type options struct {
	mode     string
	days     int
	parallel int
	symbols  string
	port     string
}

// parseFlags reads the command line into options, defaulting to the loaded config.
func parseFlags(fs *flag.FlagSet, args []string, cfg config.Config) (options, error) {
	var o options
	fs.StringVar(&o.mode, "mode", "ingest", "Mode: ingest or api")
	fs.IntVar(&o.days, "days", cfg.Ingestion.WindowDays, "Trailing window in days (today-days .. today)")
	fs.IntVar(&o.parallel, "parallel", cfg.Ingestion.Parallel, "How many symbols to ingest concurrently")
	fs.StringVar(&o.symbols, "symbols", "", "Comma separated symbols, overrides TICKER_SYMBOLS")
	fs.StringVar(&o.port, "port", cfg.Server.Port, "Port for API mode")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.mode != "ingest" && o.mode != "api" {
		return o, fmt.Errorf("unknown mode %q", o.mode)
	}
	if o.days < 0 {
		return o, fmt.Errorf("-days must not be negative, got %d", o.days)
	}
	return o, nil
}

// apply returns cfg with the flag overrides in o.
func (o options) apply(cfg config.Config) config.Config {
	cfg.Ingestion.WindowDays = o.days
	cfg.Ingestion.Parallel = o.parallel
	if o.symbols != "" {
		cfg.Ingestion.Symbols = config.ParseSymbols(o.symbols)
	}
	cfg.Server.Port = o.port
	return cfg
}

// main is the entry point of the stockpulse application.
//
// Modes (selected via -mode flag):
//   - ingest: Pulls the trailing window of daily bars for each symbol and upserts them.
//   - api:    Starts the REST API over the stored records.
//
// Flags:
//   - -mode:     Execution mode ("ingest" or "api"). Default: "ingest".
//   - -days:     Trailing window in days. Defaults to INGEST_WINDOW_DAYS.
//   - -parallel: Symbols ingested concurrently. Defaults to INGEST_PARALLEL.
//   - -symbols:  Comma separated symbols. Defaults to TICKER_SYMBOLS.
//   - -port:     Port for the API server. Defaults to SERVER_PORT.
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal().Err(err).Msg("config error")
	}

	logger.Init(cfg.Log.Level, cfg.Log.Pretty)

	opts, err := parseFlags(flag.CommandLine, os.Args[1:], cfg)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("invalid flags")
	}
	cfg = opts.apply(cfg)

	switch opts.mode {
	case "ingest":
		logger.L().Info().Msg("running ingestion")

		sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		summary, err := app.RunIngestion(sigCtx, cfg)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("ingestion failed")
		}
		for _, r := range summary.Failed() {
			logger.L().Warn().Str("symbol", r.Symbol).Err(r.Err).Msg("batch not persisted")
		}
		logger.L().Info().
			Int("symbols", len(summary.Results)).
			Int("failed", len(summary.Failed())).
			Dur("elapsed", summary.Elapsed).
			Msg("ingestion completed")

	case "api":
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp(cfg)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, cfg.Server.Port)
		gracefulShutdown(ctx, server, cleanup)
	}
}
