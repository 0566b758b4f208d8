package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/analysis"
	"github.com/citelens/citelens/internal/config"
	"github.com/citelens/citelens/internal/db"
	"github.com/citelens/citelens/internal/engine"
	"github.com/citelens/citelens/internal/httpapi"
	"github.com/citelens/citelens/internal/pricing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	dbConn, err := db.Connect(&db.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxConnections:  cfg.Database.MaxOpenConns,
		IdleConnections: cfg.Database.MaxIdleConns,
		MaxLifetime:     cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbConn.Close()

	store := db.NewStore(dbConn, logger)

	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure schema", zap.Error(err))
	}

	seedTags := db.DefaultSeedTags()
	if cfg.Tags.SeedFile != "" {
		seedTags, err = db.LoadSeedTags(cfg.Tags.SeedFile)
		if err != nil {
			logger.Fatal("Failed to load seed tags", zap.Error(err))
		}
	}
	if err := store.SeedSystemTags(ctx, seedTags); err != nil {
		logger.Fatal("Failed to seed system tags", zap.Error(err))
	}

	// Redis backs the API rate limiter. The service still works without it;
	// limiting just fails open.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis not reachable, rate limiting disabled", zap.Error(err))
	}

	pricingTable := pricing.DefaultTable()
	if cfg.Pricing.File != "" {
		pricingTable, err = pricing.LoadTable(cfg.Pricing.File)
		if err != nil {
			logger.Fatal("Failed to load pricing table", zap.Error(err))
		}
	}
	estimator := pricing.NewEstimator(pricingTable)

	engineClient := engine.NewClient(engine.Config{
		BaseURL: cfg.Engine.BaseURL,
		APIKey:  cfg.Engine.APIKey,
		Timeout: cfg.Engine.Timeout,
	}, logger)

	service := analysis.NewService(store, engineClient, estimator, analysis.Config{
		Model:      cfg.Analysis.Model,
		BatchDelay: cfg.Analysis.BatchDelay,
	}, logger)

	mux := httpapi.NewRouter(store, service, redisClient, cfg.Server.RateLimitPerMin, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	go func() {
		logger.Info("Starting citelens API server", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zapCfg.Level = level
	}
	return zapCfg.Build()
}
