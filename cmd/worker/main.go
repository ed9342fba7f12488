// Package main is the entry point for the ledger background worker.
// It runs the scheduled full integrity check on asynq.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/app"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/config"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/jobs"
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

	log.Infow("starting ledger worker", "storage", cfg.Storage, "cron", cfg.IntegrityCron)

	container, err := app.New(ctx, cfg, log, app.Options{WithReportCache: true})
	if err != nil {
		log.Fatalw("failed to initialize services", "error", err)
	}
	defer container.Close()

	checkJob := jobs.NewIntegrityCheckJob(container.Integrity, container.Reports)

	scheduledTask, err := jobs.NewScheduledFullCheckTask()
	if err != nil {
		log.Fatalw("failed to build scheduled task", "error", err)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskIntegrityFullCheck, Handler: checkJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.IntegrityCron, Task: scheduledTask},
		},
	})
	if err != nil {
		log.Fatalw("failed to build worker", "error", err)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("worker stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}
