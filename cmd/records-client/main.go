package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/hospital-records/internal/config"
	"github.com/hackgods/hospital-records/internal/controller"
	"github.com/hackgods/hospital-records/internal/logging"
	"github.com/hackgods/hospital-records/internal/remote"
	"github.com/hackgods/hospital-records/internal/session"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	if err := logging.Setup(logging.Options{
		App:              "records-client",
		Level:            cfg.LogLevel,
		ElasticsearchURL: cfg.ElasticsearchURL,
		Index:            "records-client",
	}); err != nil {
		log.Fatal().Err(err).Msg("logging setup error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer srv.Close()
	}

	// The client reads the token from the gate, and in remote mode the gate
	// authenticates through the client.
	var gate *session.Gate
	client := remote.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout,
		remote.WithTokenSource(remote.TokenFunc(func() string { return gate.Token() })))

	switch cfg.AuthMode {
	case config.AuthRemote:
		gate = session.NewGate(client)
	default:
		gate = session.NewGate(session.FixedPair{Username: cfg.AuthUsername, Password: cfg.AuthPassword})
	}

	log.Info().Str("api", cfg.APIBaseURL).Str("auth_mode", string(cfg.AuthMode)).Msg("records-client starting")

	r := newREPL(controller.New(gate, client), os.Stdout)
	if err := r.Run(ctx, os.Stdin); err != nil {
		log.Fatal().Err(err).Msg("input error")
	}
}
