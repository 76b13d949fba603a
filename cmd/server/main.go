/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the shift scheduling and payroll server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, SHIFT_* environment, flags)
  2. Initialize SQLite store and load users and shifts into the engine
  3. Create API handler with payroll aggregator and scenario catalog
  4. Configure HTTP router
  5. Start session sweeper and HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides SHIFT_PORT)
  -db      SQLite database path (overrides SHIFT_DB_PATH)
           Use ":memory:" for in-memory database

ENVIRONMENT:
  SHIFT_PORT, SHIFT_DB_PATH, SHIFT_LOG_LEVEL, SHIFT_LOG_PRETTY,
  SHIFT_ALLOWED_ORIGINS, SHIFT_BREAK_MINUTES, SHIFT_SCENARIO_FILE,
  SHIFT_SHUTDOWN_TIMEOUT, SHIFT_SESSION_IDLE_TIMEOUT, SHIFT_SWEEP_INTERVAL
  See config/config.go for defaults.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (SHIFT_SHUTDOWN_TIMEOUT)
  3. Stop the session sweeper
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/shifts.db"

  # Run with in-memory database and readable logs
  SHIFT_LOG_PRETTY=true ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/shift-engine/api"
	"github.com/warp/shift-engine/config"
	"github.com/warp/shift-engine/engine"
	"github.com/warp/shift-engine/logging"
	"github.com/warp/shift-engine/metrics"
	"github.com/warp/shift-engine/payroll"
	"github.com/warp/shift-engine/scenario"
	"github.com/warp/shift-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		stderrLog := zerolog.New(os.Stderr)
		stderrLog.Fatal().Err(err).Msg("invalid configuration")
	}

	// Flags
	flag.StringVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	log := logging.New(logging.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx := context.Background()

	// Initialize store
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return err
		}
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	m := metrics.New()
	eng := engine.New(
		engine.WithPersister(store),
		engine.WithObserver(m),
		engine.WithLogger(log),
	)
	if err := eng.Load(ctx); err != nil {
		return err
	}
	log.Info().
		Str("db", cfg.DBPath).
		Int("users", len(eng.ListUsers())).
		Msg("state loaded")

	// Scenario catalog
	catalog := scenario.Builtin()
	if cfg.ScenarioFile != "" {
		if err := catalog.LoadFile(cfg.ScenarioFile); err != nil {
			return err
		}
	}

	// Initialize handler
	handler := api.NewHandler(eng)
	handler.Payroll = payroll.NewAggregator(payroll.WithBreakMinutes(cfg.BreakMinutes))
	handler.Scenarios = catalog
	handler.Health = store
	handler.Log = log

	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        m,
		Log:            log,
	})

	sweeper := api.NewSessionSweeper(eng, log)
	sweeper.Interval = cfg.SweepInterval
	sweeper.IdleTimeout = cfg.SessionIdleTimeout
	sweeper.Start()
	defer sweeper.Stop()

	// Create server
	server := &http.Server{
		Addr:         net.JoinHostPort("", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}
