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

	"shiprate/internal/config"
	"shiprate/internal/db"
	"shiprate/internal/logging"
	"shiprate/internal/rate"
	"shiprate/internal/refdata"
	"shiprate/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open reference data", zap.String("driver", cfg.RefDataDriver), zap.Error(err))
	}
	defer closeStore()

	svc := rate.NewService(store, log)
	handler := server.New(svc, server.Options{
		Units: rate.Units{
			VolumetricDivisor: cfg.VolumetricDivisor,
			PostalCodeWidth:   cfg.PostalCodeWidth,
		},
		Logger:    log,
		JWTSecret: cfg.JWTSecret,
		Catalog:   store,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	log.Info("api listening",
		zap.String("port", cfg.Port),
		zap.String("refdata_driver", cfg.RefDataDriver),
		zap.Bool("jwt_auth", cfg.JWTSecret != ""),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

// referenceStore serves both rate snapshots and the product catalog.
type referenceStore interface {
	rate.Source
	rate.Catalog
}

// openStore connects the configured reference data store and returns its
// close function.
func openStore(ctx context.Context, cfg config.Config) (referenceStore, func(), error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cfg.RefDataDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(connectCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		// Verify connectivity proactively
		if err := pool.Ping(connectCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("database ping failed: %w", err)
		}
		return refdata.NewPostgres(pool), pool.Close, nil
	default:
		sqlDB, err := db.OpenSQLite(connectCtx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return refdata.NewSQLite(sqlDB), func() { _ = sqlDB.Close() }, nil
	}
}
