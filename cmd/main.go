package main

//
//  @title           econpulse API
//  @version         1.0
//  @description     Economic indicators ETL and read API.
//  @termsOfService  https://github.com/guttosm/econpulse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/econpulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        indicators
//  @tag.description Indicators with their latest value and history
//
//  @tag.name        stats
//  @tag.description Latest values snapshot
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/econpulse/config"
	_ "github.com/guttosm/econpulse/docs" // swagger docs
	"github.com/guttosm/econpulse/internal/app"
	"github.com/guttosm/econpulse/internal/ingestion"
	"github.com/guttosm/econpulse/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// newServer builds the HTTP server with the service's timeouts.
func newServer(router http.Handler, port string) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := newServer(router, port)

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
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// applyFlags overrides the ETL settings from the command line. days 0
// selects the whole series; a negative value keeps the configured window.
// An empty codes list keeps ETL_CODES.
func applyFlags(cfg config.Config, days int, codes string) config.Config {
	if days >= 0 {
		cfg.ETL.HistoryDays = days
	}
	if list := config.ParseCodes(codes); len(list) > 0 {
		cfg.ETL.Codes = list
	}
	return cfg
}

// pipelineRunner is the part of ingestion.Pipeline the CLI drives.
type pipelineRunner interface {
	RunCurrent(ctx context.Context) ingestion.Report
	RunHistory(ctx context.Context) ingestion.Report
}

// runPipeline executes one run, writes its report as JSON to out and
// returns the process exit code.
func runPipeline(ctx context.Context, p pipelineRunner, mode string, out io.Writer) int {
	var rep ingestion.Report
	if mode == "history" {
		rep = p.RunHistory(ctx)
	} else {
		rep = p.RunCurrent(ctx)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		logger.L().Error().Err(err).Msg("failed to write report")
	}

	if !rep.Succeeded() {
		return 1
	}
	return 0
}

// serve runs the HTTP server and the periodic pipeline side by side until
// ctx is cancelled or the server fails.
func serve(ctx context.Context, router http.Handler, port string, interval time.Duration, tick func(context.Context)) error {
	server := newServer(router, port)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.L().Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return ingestion.Schedule(gctx, interval, tick)
	})

	return g.Wait()
}

// main is the entry point of the econpulse application.
//
// Modes (selected via --mode flag):
//   - etl:     One pipeline run over the current snapshot.
//   - history: One pipeline run over the history of every allow-listed code.
//   - api:     Starts the REST API.
//   - serve:   Starts the REST API and runs the pipeline every ETL_INTERVAL_HOURS.
//
// Flags:
//   - --mode:  Execution mode. Default: "etl".
//   - --days:  History window in days, 0 for the whole series. Defaults to ETL_HISTORY_DAYS.
//   - --codes: Comma-separated allow-list. Defaults to ETL_CODES.
//   - --port:  Port for the API server. Defaults to SERVER_PORT.
func main() {
	ctx := context.Background()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	cfg := config.AppConfig
	mode := flag.String("mode", "etl", "Mode: etl, history, api or serve")
	days := flag.Int("days", cfg.ETL.HistoryDays, "History window in days (0 = whole series)")
	codes := flag.String("codes", "", "Comma-separated indicator codes (default ETL_CODES)")
	port := flag.String("port", cfg.Server.Port, "Port for API mode")
	flag.Parse()

	cfg = applyFlags(cfg, *days, *codes)

	switch *mode {
	case "etl", "history":
		logger.L().Info().Str("mode", *mode).Strs("codes", cfg.ETL.Codes).Msg("running pipeline")

		a, err := app.Build(cfg)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}
		code := runPipeline(ctx, a.Pipeline, *mode, os.Stdout)
		a.Close()
		os.Exit(code)

	case "api":
		logger.L().Info().Msg("starting API server")

		a, err := app.Build(cfg)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(a.Router, *port)
		gracefulShutdown(ctx, server, a.Close)

	case "serve":
		logger.L().Info().Dur("interval", cfg.ETL.Interval).Msg("starting API server with scheduled pipeline")

		a, err := app.Build(cfg)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}
		defer a.Close()

		sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		tick := func(ctx context.Context) {
			rep := a.Pipeline.RunCurrent(ctx)
			if rep.Summary.Committed {
				a.Service.Invalidate()
			}
		}
		if err := serve(sigCtx, a.Router, *port, cfg.ETL.Interval, tick); err != nil {
			logger.L().Error().Err(err).Msg("server stopped with error")
			return
		}
		logger.L().Info().Msg("server exited gracefully")

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
