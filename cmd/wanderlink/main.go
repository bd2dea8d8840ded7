package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wanderlink/internal/config"
	"wanderlink/internal/jobs"
	"wanderlink/internal/logging"
	"wanderlink/internal/store"
	"wanderlink/internal/store/memstore"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(logging.Config{}).Fatal(err, "load config")
	}

	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logging.SetGlobalLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, db, err := openRepository(ctx, cfg)
	if err != nil {
		logger.Fatal(err, "open store")
	}
	if db != nil {
		defer db.Close()
	}

	if cfg.SeedDemoData {
		if err := bootstrapDemoData(ctx, repo); err != nil {
			logger.Fatal(err, "seed demo data")
		}
	}

	scheduler := jobs.NewScheduler()
	sweeper := jobs.NewSubscriptionSweeper(repo, cfg.Jobs.SweepGrace)
	if err := scheduler.AddSweeper(ctx, cfg.Jobs.SweepSchedule, sweeper); err != nil {
		logger.Fatal(err, "schedule jobs")
	}
	scheduler.Start()

	handler, err := newHTTPHandler(ctx, cfg, repo)
	if err != nil {
		logger.Fatal(err, "build http handler")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Zerolog().Info().Str("addr", srv.Addr).Str("store", cfg.Database.Driver).Msg("API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(err, "server error")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, "graceful shutdown failed")
	}
}

// openRepository selects the persistence implementation. The returned
// *sql.DB is nil for the in-memory driver.
func openRepository(ctx context.Context, cfg *config.Config) (store.Repository, *sql.DB, error) {
	if cfg.Database.Driver == config.DriverMemory {
		return memstore.New(), nil, nil
	}

	db, err := openDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	return store.New(db), db, nil
}
