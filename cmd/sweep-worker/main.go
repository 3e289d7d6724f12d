package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/webmarket/dental-scheduling/internal/config"
	"github.com/webmarket/dental-scheduling/internal/db"
	"github.com/webmarket/dental-scheduling/internal/directory"
	"github.com/webmarket/dental-scheduling/internal/logging"
	"github.com/webmarket/dental-scheduling/internal/redisclient"
	"github.com/webmarket/dental-scheduling/internal/scheduling"
)

// The sweep worker cancels pending appointments whose slot time has
// already passed and releases their slots back into the pool.
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

	logger.Info("sweep-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.WorkerInterval),
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
	} else {
		locker = scheduling.NewLocalLocker()
	}

	store := scheduling.NewPgStore(pgPool)
	dirStore := directory.NewPgStore(pgPool)
	lookup := directory.NewLookup(dirStore)
	engine := scheduling.NewEngine(store, locker, logger)
	svc := scheduling.NewService(store, store, engine, lookup, lookup, logger)

	// Run once at startup
	runOnce(rootCtx, svc, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping sweep worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *scheduling.Service, logger *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	swept, err := svc.SweepStalePending(runCtx)
	if err != nil {
		logger.Error("sweep run error", zap.Error(err))
		return
	}
	logger.Info("sweep run complete",
		zap.Int("swept", swept),
		zap.Duration("took", time.Since(start)),
	)
}
