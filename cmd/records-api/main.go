package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hackgods/hospital-records/internal/api"
	"github.com/hackgods/hospital-records/internal/config"
	"github.com/hackgods/hospital-records/internal/db"
	"github.com/hackgods/hospital-records/internal/hospital"
	"github.com/hackgods/hospital-records/internal/logging"
	redisclient "github.com/hackgods/hospital-records/internal/redis"
)

const fillLockTTL = 5 * time.Second

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	if err := logging.Setup(logging.Options{
		App:              "records-api",
		Level:            cfg.LogLevel,
		ElasticsearchURL: cfg.ElasticsearchURL,
		Index:            "records-api",
	}); err != nil {
		log.Fatal().Err(err).Msg("logging setup error")
	}

	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Bool("auth_required", cfg.AuthRequired).Msg("records-api starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	if err := db.EnsureSchema(rootCtx, pgPool); err != nil {
		log.Fatal().Err(err).Msg("schema error")
	}

	var (
		opts       []hospital.Option
		redisProbe api.Pinger
	)
	if cfg.RedisAddr != "" {
		rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("error closing redis")
			}
		}()
		log.Info().Dur("ttl", cfg.ListCacheTTL).Msg("connected to Redis, list cache enabled")

		opts = append(opts, hospital.WithListCache(
			redisclient.NewListCache(rdb, cfg.ListCacheTTL),
			redisclient.NewRedisLocker(rdb, fillLockTTL),
		))
		redisProbe = api.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	svc := hospital.NewService(hospital.NewPgRepository(pgPool), opts...)

	var auth *api.TokenAuth
	if cfg.JWTSecret != "" && cfg.OperatorUsername != "" {
		auth = api.NewTokenAuth(cfg.JWTSecret, cfg.TokenTTL, cfg.OperatorUsername, cfg.OperatorPassword)
	}

	server := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: api.NewRouter(api.RouterConfig{
			Service:  svc,
			Auth:     auth,
			Required: cfg.AuthRequired,
			Postgres: pgPool,
			Redis:    redisProbe,
			Env:      cfg.Env,
			Version:  cfg.Version,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down records-api")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
}
