package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mtf-confirmation-service/config"
	"mtf-confirmation-service/internal/api"
	"mtf-confirmation-service/internal/binance"
	"mtf-confirmation-service/internal/cache"
	"mtf-confirmation-service/internal/database"
	"mtf-confirmation-service/internal/logging"
	"mtf-confirmation-service/internal/marketdata"
	"mtf-confirmation-service/internal/mtf"
	"mtf-confirmation-service/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logCfg := logging.Config{
		Level:      cfg.LoggingConfig.Level,
		Output:     cfg.LoggingConfig.Output,
		JSONFormat: cfg.LoggingConfig.JSONFormat,
	}
	logger := logging.NewSlog(logCfg)
	infraLogger := logging.NewZerolog(logCfg)
	logger.Info("Structured logging initialized")

	// Market data client
	var client binance.MarketDataClient
	if cfg.BinanceConfig.MockMode {
		logger.Warn("MOCK MODE enabled: using simulated market data")
		client = binance.NewMockClient()
	} else {
		client = binance.NewClient(cfg.BinanceConfig.BaseURL)
	}

	fetcher := marketdata.NewFetcher(client, logger)
	contextProvider := marketdata.NewContextProvider(fetcher, logger)

	evaluator := mtf.NewEvaluator(mtf.Config{
		PrimaryTimeframe:     cfg.MTFConfig.PrimaryTimeframe,
		SecondaryTimeframe:   cfg.MTFConfig.SecondaryTimeframe,
		MinPrimaryConfidence: cfg.MTFConfig.MinPrimaryConfidence,
		MaxHybridBoost:       cfg.MTFConfig.MaxHybridBoost,
	}, logger)

	// Persistence (optional)
	var store service.EvaluationStore
	var reader api.EvaluationReader
	if cfg.DatabaseConfig.Enabled {
		db, err := database.NewDB(database.Config{
			Host:     cfg.DatabaseConfig.Host,
			Port:     cfg.DatabaseConfig.Port,
			User:     cfg.DatabaseConfig.User,
			Password: cfg.DatabaseConfig.Password,
			Database: cfg.DatabaseConfig.Database,
			SSLMode:  cfg.DatabaseConfig.SSLMode,
		}, infraLogger)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.RunMigrations(migrateCtx); err != nil {
			cancel()
			log.Fatalf("Failed to run migrations: %v", err)
		}
		cancel()

		repo := database.NewRepository(db, infraLogger)
		store = repo
		reader = repo
	} else {
		logger.Info("Persistence disabled")
	}

	// Result cache (optional)
	var resultCache service.ResultCache
	if cfg.RedisConfig.Enabled {
		rc := cache.NewResultCache(cache.Options{
			Address:  cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
			PoolSize: cfg.RedisConfig.PoolSize,
			TTL:      cfg.RedisConfig.TTL,
		})
		defer rc.Close()
		resultCache = rc
	} else {
		logger.Info("Result cache disabled")
	}

	svc := service.New(evaluator, fetcher, contextProvider, store, resultCache, service.Config{
		PrimaryInterval:   cfg.MTFConfig.PrimaryTimeframe,
		SecondaryInterval: cfg.MTFConfig.SecondaryTimeframe,
		CandleLimit:       cfg.MTFConfig.CandleLimit,
		Watchlist:         cfg.WatchlistConfig.Symbols,
		SweepInterval:     cfg.WatchlistConfig.SweepInterval,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background watchlist sweeps
	go svc.Run(ctx)

	// HTTP API
	var server *api.Server
	if cfg.ServerConfig.Enabled {
		server = api.NewServer(api.ServerConfig{
			Port:           cfg.ServerConfig.Port,
			Host:           cfg.ServerConfig.Host,
			ProductionMode: cfg.ServerConfig.ProductionMode,
		}, svc, reader)

		go func() {
			logger.Info(fmt.Sprintf("API server listening on %s:%d", cfg.ServerConfig.Host, cfg.ServerConfig.Port))
			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error(fmt.Sprintf("API server failed: %v", err))
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("Shutting down")

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(fmt.Sprintf("Server shutdown failed: %v", err))
		}
	}

	logger.Info("Goodbye")
	os.Exit(0)
}
