package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"golanka_travel_echo/internal/config"
	"golanka_travel_echo/internal/services"
	"golanka_travel_echo/internal/tasks"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})).With("component", "worker")
	slog.SetDefault(logger)

	db, err := services.InitDB(cfg.DatabaseURL, cfg.GormLogLevel())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Redis is optional; without it a single worker must be deployed.
	var locker tasks.Locker
	if cfg.RedisEnabled() {
		cache, err := services.NewRedisCache(cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer cache.Close()
		locker = cache
	} else {
		logger.Warn("REDIS_URL not set, task claims are not coordinated across workers")
	}

	mailer := services.NewEmailService(services.EmailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
		FromName: cfg.BrandName,
	})

	// Initialize Task Registry
	registry := tasks.NewRegistry()
	tasks.DefineTasks(registry, tasks.Dependencies{Mailer: mailer, Brand: cfg.BrandName, Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prune, err := (&tasks.PruneCallbackHistoryTaskDef{}).CreateTask(cfg.CallbackRetentionDays, time.Now())
	if err != nil {
		logger.Error("failed to build prune task", "error", err)
		os.Exit(1)
	}
	if created, err := tasks.EnsureRecurring(ctx, db, prune); err != nil {
		logger.Error("failed to schedule prune task", "error", err)
	} else if created {
		logger.Info("scheduled recurring task", "task_name", prune.TaskName, "task_id", prune.ID)
	}

	runner := tasks.NewRunner(db, registry, locker, logger)
	logger.Info("worker started", "interval", cfg.WorkerInterval.String(), "tasks", registry.Names())

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	// Run once on start, then on every tick
	for {
		if _, err := runner.ProcessDue(ctx); err != nil && ctx.Err() == nil {
			logger.Error("processing scheduled tasks", "error", err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			logger.Info("shutting down worker")
			return
		}
	}
}
