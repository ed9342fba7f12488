// Package main is the entry point for the ledger diagnostics API server.
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

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/app"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/config"
	v1 "github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/http/v1"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/http/v1/handlers"
	"github.com/peterpeto56u-code/MarcoERP-sub005/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: !cfg.IsProduction(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("starting ledger server", "storage", cfg.Storage)

	container, err := app.New(ctx, cfg, log, app.Options{WithReportCache: true})
	if err != nil {
		log.Fatalw("failed to initialize services", "error", err)
	}
	defer container.Close()

	routerCfg := v1.RouterConfig{
		Logger:       log,
		Checker:      container.Integrity,
		Audit:        container.AuditLog,
		HealthChecks: map[string]handlers.Pinger{},
	}
	if container.Reports != nil {
		routerCfg.Reports = container.Reports
		routerCfg.HealthChecks["redis"] = container.Reports
	}
	if container.Pool != nil {
		routerCfg.HealthChecks["postgres"] = container.Pool
		go logPoolStats(ctx, container)
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      v1.NewRouter(routerCfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// logPoolStats reports pool usage every minute until ctx is done.
func logPoolStats(ctx context.Context, c *app.Container) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Pool.LogPoolStats(ctx)
		}
	}
}
