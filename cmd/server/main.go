/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave management server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Build the zap logger
  3. Open the store (in-process or SQLite)
  4. Create the leave service and optionally seed the demo scenario
  5. Configure HTTP router and the verification scheduler
  6. Start server with graceful shutdown

CONFIGURATION:
  See config/config.go. Every key has an environment variable and a flag,
  e.g. LEAVE_PORT / --port.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (LEAVE_SHUTDOWN_TIMEOUT)
  3. Stop the scheduler and close the store
  4. Exit

EXAMPLES:
  # In-process store with demo data
  LEAVE_SEED=true ./server

  # File database
  ./server --db=./data/leave.db

  # Run on different port
  ./server --port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/config"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/memory"
	"github.com/warp/leave-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	clock := generic.Today
	svc := leave.NewService(store, leave.Options{
		Clock:           clock,
		Logger:          logger,
		StrictDecisions: cfg.StrictDecisions,
	})

	handler := api.NewHandler(svc, clock, logger)
	if cfg.Seed {
		if err := api.LoadScenario(context.Background(), svc, clock(), api.DefaultScenario); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		logger.Info("seeded demo data", zap.String("scenario", api.DefaultScenario))
	}

	scheduler := api.NewVerificationScheduler(svc, cfg.VerifyInterval, logger)
	scheduler.Start()
	defer scheduler.Stop()
	handler.AttachScheduler(scheduler)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(handler, cfg.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", server.Addr),
			zap.Bool("sqlite", cfg.UsesSQLite()),
			zap.Bool("strict_decisions", cfg.StrictDecisions))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server", zap.Duration("timeout", cfg.ShutdownTimeout))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// openStore returns the store selected by cfg.DB and its close function.
func openStore(cfg *config.Config, logger *zap.Logger) (leave.Store, func(), error) {
	if !cfg.UsesSQLite() {
		return memory.New(), func() {}, nil
	}
	store, err := sqlite.New(cfg.DB, sqlite.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("open database %s: %w", cfg.DB, err)
	}
	return store, func() { store.Close() }, nil
}
