package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/linkloom/loom/internal/cache"
	"github.com/linkloom/loom/internal/config"
	"github.com/linkloom/loom/internal/core"
	"github.com/linkloom/loom/internal/driver"
	"github.com/linkloom/loom/internal/fetch"
	"github.com/linkloom/loom/internal/server"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment as-is")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	store, err := cache.OpenStore(cache.StoreConfig{Path: cfg.Cache.Path}, logger)
	if err != nil {
		logger.Fatal("failed to open cache store", zap.Error(err))
	}
	defer store.Close()

	wdqs := driver.NewWDQSDriver(driver.WDQSConfig{
		Endpoint:  cfg.Source.Endpoint,
		UserAgent: cfg.Source.UserAgent,
		Timeout:   cfg.SourceTimeout(),
	}, logger)
	defer wdqs.Close()

	fetcher := fetch.NewFetcher(wdqs, store, logger)
	builder := core.NewBuilder(fetcher, core.BuilderConfig{
		DepthTable: cfg.DepthTable(),
		BatchDelay: cfg.BatchDelay(),
	}, logger)

	responses := cache.NewResponseCache(logger)
	defer responses.Close()

	srv := server.NewServer(builder, fetcher, responses, cfg.DepthTable(), cfg.BatchDelay(), logger)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.SetupRouter(),
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("forced shutdown", zap.Error(err))
	}
}
