package main

import (
	"academy/cache"
	"academy/config"
	"academy/database"
	"academy/integrations/mux"
	"academy/integrations/payment"
	"academy/logger"
	"academy/server"
	"academy/utils"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.LogLevel, cfg.IsProduction())
	defer logger.Sync()
	for _, w := range cfg.Warnings {
		logger.Log.Warn("config", zap.String("warning", w))
	}

	if err := database.ConnectDb(cfg); err != nil {
		logger.Log.Fatal("database connection failed", zap.Error(err))
	}
	defer database.Close()

	if err := database.SeedAdmin(database.Database.Db, cfg); err != nil {
		logger.Log.Error("seeding admin failed", zap.Error(err))
	}

	idempotency := cache.Init(cfg)
	defer idempotency.Close()

	utils.InitMailer(cfg)
	payment.Init(cfg)
	mux.Init(cfg)

	utils.AssetWorker = utils.StartVideoAssetWorker(database.Database.Db, 4, 256)
	scheduler := utils.InitializeScheduler(database.Database.Db, cfg)

	app := server.NewApp(cfg, true)

	go func() {
		logger.Log.Info("server is running", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	<-scheduler.Stop().Done()
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Log.Error("http shutdown", zap.Error(err))
	}
	if err := utils.AssetWorker.Stop(ctx); err != nil {
		logger.Log.Error("video worker shutdown", zap.Error(err))
	}
}
