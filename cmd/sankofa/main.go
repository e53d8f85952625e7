package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sankofa-retail/sankofa/internal/app"
	"github.com/sankofa-retail/sankofa/internal/observability"
	"github.com/sankofa-retail/sankofa/internal/payments"
	"github.com/sankofa-retail/sankofa/internal/platform/cache"
	"github.com/sankofa-retail/sankofa/internal/purchase"
	"github.com/sankofa-retail/sankofa/internal/shared"
	"github.com/sankofa-retail/sankofa/internal/stock"
	"github.com/sankofa-retail/sankofa/internal/wallet"
	"github.com/sankofa-retail/sankofa/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	validate := validator.New()
	auditLogger := shared.NewAuditLogger(pool)
	authorizer := shared.NewStaffAuthorizer(pool)

	purchaseRepo := purchase.NewRepository(pool)
	purchaseService := purchase.NewService(purchaseRepo, auditLogger, logger)
	purchaseHandler := purchase.NewHandler(logger, purchaseService, validate)

	paymentRepo := payments.NewRepository(pool)
	notifier := jobs.NewNotifier(queueClient)
	paymentService := payments.NewService(paymentRepo, notifier, auditLogger, logger)
	paymentHandler := payments.NewHandler(logger, paymentService, validate)

	walletHandler := wallet.NewHandler(logger, pool)
	stockHandler := stock.NewHandler(logger, pool)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Pool:            pool,
		Redis:           redisClient,
		Metrics:         metrics,
		Authorizer:      authorizer,
		PurchaseHandler: purchaseHandler,
		PaymentHandler:  paymentHandler,
		WalletHandler:   walletHandler,
		StockHandler:    stockHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
