package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hackgods/hospital-records/internal/config"
	"github.com/hackgods/hospital-records/internal/db"
	"github.com/hackgods/hospital-records/internal/hospital"
	"github.com/hackgods/hospital-records/internal/logging"
	redisclient "github.com/hackgods/hospital-records/internal/redis"
)

const fillLockTTL = 5 * time.Second

// cache-warmer keeps the records-api list cache populated so API replicas
// seldom fall through to Postgres.
func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	if err := logging.Setup(logging.Options{
		App:              "cache-warmer",
		Level:            cfg.LogLevel,
		ElasticsearchURL: cfg.ElasticsearchURL,
		Index:            "records-cache-warmer",
	}); err != nil {
		log.Fatal().Err(err).Msg("logging setup error")
	}
	if cfg.RedisAddr == "" {
		log.Fatal().Msg("REDIS_URL or REDIS_ADDR is required")
	}

	log.Info().Str("env", cfg.Env).Dur("interval", cfg.WarmInterval).Msg("cache-warmer starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()

	svc := hospital.NewService(hospital.NewPgRepository(pgPool), hospital.WithListCache(
		redisclient.NewListCache(rdb, cfg.ListCacheTTL),
		redisclient.NewRedisLocker(rdb, fillLockTTL),
	))

	runOnce(rootCtx, svc)

	ticker := time.NewTicker(cfg.WarmInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping cache-warmer")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc *hospital.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := svc.WarmListCache(runCtx); err != nil {
		log.Error().Err(err).Msg("warm run error")
		return
	}
	log.Debug().Dur("took", time.Since(start)).Msg("warm run complete")
}
