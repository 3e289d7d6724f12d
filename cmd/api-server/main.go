package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/webmarket/dental-scheduling/internal/api"
	"github.com/webmarket/dental-scheduling/internal/config"
	"github.com/webmarket/dental-scheduling/internal/db"
	"github.com/webmarket/dental-scheduling/internal/directory"
	"github.com/webmarket/dental-scheduling/internal/logging"
	"github.com/webmarket/dental-scheduling/internal/redisclient"
	"github.com/webmarket/dental-scheduling/internal/scheduling"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("lock_mode", cfg.LockMode),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	var locker scheduling.Locker
	routerCfg := api.RouterConfig{
		PgPool:          pgPool,
		Logger:          logger,
		Env:             cfg.Env,
		Version:         version,
		RateLimitPerSec: cfg.RateLimitPerSec,
	}

	if cfg.LockMode == config.LockModeRedis {
		rdb, err := redisclient.NewRedisClient(redisclient.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			logger.Fatal("redis connection error", zap.Error(err))
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("error closing redis", zap.Error(err))
			}
		}()
		logger.Info("connected to Redis")

		locker = redisclient.NewSlotLocker(rdb, cfg.LockTTL)
		routerCfg.Redis = rdb
	} else {
		locker = scheduling.NewLocalLocker()
	}

	store := scheduling.NewPgStore(pgPool)
	dirStore := directory.NewPgStore(pgPool)
	lookup := directory.NewLookup(dirStore)

	engine := scheduling.NewEngine(store, locker, logger)
	svc := scheduling.NewService(store, store, engine, lookup, lookup, logger)
	queries := scheduling.NewQueries(store, store)

	routerCfg.Service = svc
	routerCfg.Queries = queries
	routerCfg.Directory = dirStore

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.NewRouter(routerCfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}
