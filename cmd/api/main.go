package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"photogo/internal/config"
	"photogo/internal/database"
	"photogo/internal/pkg/logger"
	"photogo/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	customers, closeCustomers, err := customerRepository(cfg, lg)
	if err != nil {
		return err
	}
	defer closeCustomers()

	a := newApp(cfg, lg, reg, customers)

	go a.store.Run(ctx, cfg.WizardSweepInterval, func(removed, remaining int) {
		a.metrics.SetActiveWizards(remaining)
		if removed > 0 {
			lg.Debug("expired wizards swept", zap.Int("removed", removed), zap.Int("remaining", remaining))
		}
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	lg.Info("shutting down server")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("server forced to shutdown", zap.Error(err))
	}
	lg.Info("server stopped gracefully")
	return nil
}

func customerRepository(cfg *config.Config, lg *zap.Logger) (repository.CustomerInfoRepository, func(), error) {
	if cfg.CustomerCacheBackend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		lg.Info("customer info cache on redis", zap.String("addr", cfg.RedisAddr))
		return repository.NewRedisCustomerInfoRepository(client, cfg.CustomerCacheTTL), func() { _ = client.Close() }, nil
	}

	db, err := database.Connect(cfg.DatabaseURL, lg.Named("database"))
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return repository.NewCustomerInfoRepository(db), closeFn, nil
}
