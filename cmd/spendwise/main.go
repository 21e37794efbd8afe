package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"spendwise/internal/config"
	apphttp "spendwise/internal/http"
	"spendwise/internal/kv"
	"spendwise/internal/log"
	"spendwise/internal/store"
	"spendwise/internal/tracker"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// Optional: a missing .env file just means env vars come from the shell.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", log.FieldError, err.Error())
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := kv.Open(kv.Config{
		Type:         kv.BackendType(cfg.StorageBackend),
		DataDir:      cfg.DataDir,
		SQLiteDBPath: cfg.SQLiteDBPath,
	}, logger.WithComponent(log.ComponentKV).Logger)
	if err != nil {
		logger.Error("Failed to open storage backend", log.FieldBackend, cfg.StorageBackend, log.FieldError, err.Error())
		return err
	}
	defer func() {
		if result.Cleanup == nil {
			return
		}
		if err := result.Cleanup(); err != nil {
			logger.Warn("Storage cleanup failed", log.FieldError, err.Error())
		}
	}()

	adapter := store.New(result.Store, cfg.StorageKey)
	tr := tracker.New(ctx, adapter, tracker.SystemClock(), logger.WithComponent(log.ComponentTracker))

	srv := apphttp.NewServer(":"+cfg.Port, tr, logger.WithComponent(log.ComponentHTTP))
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server listening", "addr", srv.Addr, log.FieldBackend, cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server exited with error", log.FieldError, err.Error())
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}
