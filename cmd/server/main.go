// cmd/server/main.go
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

	"core-banking-service/config"
	"core-banking-service/internal/handler"
	"core-banking-service/internal/provider/symxchange"
	"core-banking-service/internal/publisher"
	"core-banking-service/internal/repository"
	"core-banking-service/internal/router"
	"core-banking-service/internal/usecase"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("starting core banking service")

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment")
	}

	// Load configuration
	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Server.Env),
		zap.String("port", cfg.Server.Port))

	// Connect to database
	dbPool, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	logger.Info("connected to database",
		zap.String("database", cfg.Database.DBName))

	// Initialize repositories
	loanRepo := repository.NewLoanRepository(dbPool)
	paymentRepo := repository.NewLoanPaymentRepository(dbPool)
	auditRepo := repository.NewAuditRepository(dbPool)
	reconRepo := repository.NewReconciliationRepository(dbPool)

	// Initialize provider
	symxClient := symxchange.NewClient(cfg.SymXchange, logger)

	// Initialize event publisher
	var events usecase.EventPublisher = publisher.NopPublisher{}
	if addr := cfg.Redis.Addr(); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis not reachable at startup",
				zap.String("addr", addr),
				zap.Error(err))
		}
		events = publisher.NewCoreBankingEventPublisher(rdb, logger)
		logger.Info("publishing core banking events", zap.String("redis", addr))
	}

	// Initialize usecases
	reconciler := usecase.NewReconciler(
		loanRepo,
		paymentRepo,
		reconRepo,
		events,
		cfg.Reconciliation,
		logger,
	)
	auditLogger := usecase.NewAuditLogger(auditRepo, logger)
	bridgeUC := usecase.NewBridgeUsecase(symxClient, reconciler, auditLogger, logger)

	// Start reconciliation sweeper
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		reconciler.Run(sweepCtx)
	}()

	// Initialize handlers
	coreBankingHandler := handler.NewCoreBankingHandler(bridgeUC, logger)
	healthHandler := handler.NewHealthHandler(dbPool, logger)

	// Setup routes
	r := router.SetupRoutes(coreBankingHandler, healthHandler, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	logger.Info("core banking service started successfully",
		zap.String("port", cfg.Server.Port),
		zap.String("environment", cfg.Server.Env),
		zap.String("provider", symxClient.GetName()),
		zap.Bool("mock_mode", symxClient.MockMode()))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	stopSweeper()
	select {
	case <-sweeperDone:
	case <-ctx.Done():
		logger.Warn("reconciliation sweeper did not stop in time")
	}

	logger.Info("server stopped")
}
