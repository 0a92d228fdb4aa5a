package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"golanka_travel_echo/internal/config"
	"golanka_travel_echo/internal/handlers"
	appMiddleware "golanka_travel_echo/internal/middleware"
	"golanka_travel_echo/internal/payments"
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

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// Initialize Database
	db, err := services.InitDB(cfg.DatabaseURL, cfg.GormLogLevel())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := services.AutoMigrate(db); err != nil {
		logger.Error("failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// Notification dispatch
	var notifier payments.Notifier
	var asyncDispatcher *services.AsyncDispatcher
	switch cfg.NotifyMode {
	case config.NotifyModeAsync:
		mailer := services.NewEmailService(services.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
			FromName: cfg.BrandName,
		})
		asyncDispatcher = services.NewAsyncDispatcher(mailer, cfg.BrandName, cfg.NotifyTimeout, logger)
		notifier = asyncDispatcher
	default:
		notifier = tasks.NewQueueDispatcher(db)
	}
	logger.Info("payment notifications configured", "mode", cfg.NotifyMode)

	reconciler := payments.NewReconciler(services.NewOrderRepository(db), notifier, logger)

	var verifiers handlers.Verifiers
	if cfg.StripeEnabled() {
		verifiers.Stripe = payments.NewStripeVerifier(cfg.StripeWebhookSecret)
	} else {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set, stripe webhook disabled")
	}
	if cfg.PayHereEnabled() {
		verifiers.PayHere = payments.NewPayHereVerifier(cfg.PayHereMerchantID, cfg.PayHereSecret)
	} else {
		logger.Warn("PayHere credentials not set, payhere webhook disabled")
	}
	if cfg.MidtransEnabled() {
		verifiers.Midtrans = payments.NewMidtransVerifier(cfg.MidtransServerKey)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = appMiddleware.NewErrorHandler(logger, !cfg.IsProduction())

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(appMiddleware.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	webhookHandler := handlers.NewWebhookHandler(reconciler, verifiers, services.NewCallbackHistoryRepository(db), logger)
	paymentHandler := handlers.NewPaymentHandler(verifiers.PayHere)
	handlers.RegisterRoutes(e, webhookHandler, paymentHandler, appMiddleware.RateLimit(cfg.RateLimitPerSecond))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if asyncDispatcher != nil {
		if err := asyncDispatcher.Wait(shutdownCtx); err != nil {
			logger.Warn("pending confirmation emails abandoned", "error", err)
		}
	}
}
