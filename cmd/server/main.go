// Package main is the entry point for the ledger service. It wires the
// database, the redis-backed quote feed and cache, the trade and override
// services, and the two background loops, then serves the HTTP API until
// interrupted.
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"tradex/internal/config"
	"tradex/internal/repositories"
	"tradex/internal/routes"
	"tradex/internal/services/override"
	"tradex/internal/services/pricefeed"
	"tradex/internal/services/reconciler"
	"tradex/internal/services/trade"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	config.LoadEnv()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := repositories.InitDB(); err != nil {
		logger.Fatal("failed to init database", zap.Error(err))
	}
	if err := repositories.InitRedis(); err != nil {
		logger.Fatal("failed to init redis", zap.Error(err))
	}
	defer closeConnections(logger)

	repo := repositories.NewLedgerRepository(repositories.DB)
	walletCache := repositories.NewWalletCache(repositories.RedisClient)
	feed := pricefeed.NewRedisFeed(
		repositories.RedisClient,
		config.GetDurationEnv("QUOTE_MAX_AGE", 30*time.Second),
	)

	tradeService := trade.NewService(repo, feed, walletCache, trade.Config{
		MinTradeTotal: config.GetFloatEnv("MIN_TRADE_TOTAL", trade.DefaultMinTradeTotal),
	}, logger.Named("trade"))

	walkInterval := config.GetDurationEnv("OVERRIDE_WALK_INTERVAL", override.DefaultWalkInterval)
	simulator := override.NewSimulator(walkInterval, nil, nil)
	overrideService := override.NewService(repo, simulator, walletCache, walkInterval, logger.Named("override"))

	priceReconciler := reconciler.New(
		repo,
		feed,
		config.GetDurationEnv("RECONCILE_INTERVAL", reconciler.DefaultInterval),
		config.GetFloatEnv("RECONCILE_NOISE_THRESHOLD", reconciler.DefaultNoiseThreshold),
		logger.Named("reconciler"),
	)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(app, routes.Services{
		Trade:    tradeService,
		Override: overrideService,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return priceReconciler.Run(gctx)
	})
	g.Go(func() error {
		return overrideService.Run(gctx)
	})
	g.Go(func() error {
		return app.Listen(":" + config.GetEnv("PORT", "8080"))
	})
	g.Go(func() error {
		<-gctx.Done()
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("service exited", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func newLogger() (*zap.Logger, error) {
	if config.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func closeConnections(logger *zap.Logger) {
	if repositories.DB != nil {
		if sqlDB, err := repositories.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("failed to close database connection", zap.Error(err))
			}
		}
	}
	if repositories.RedisClient != nil {
		if err := repositories.RedisClient.Close(); err != nil {
			logger.Warn("failed to close redis connection", zap.Error(err))
		}
	}
}
