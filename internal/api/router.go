package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	Service  RecordsService
	Auth     *TokenAuth // nil disables /api/auth/login
	Required bool       // require a bearer token on /api/* collection routes
	Postgres Pinger
	Redis    Pinger
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.Auth != nil {
			r.Post("/auth/login", loginHandler(cfg.Auth))
		}

		r.Group(func(r chi.Router) {
			if cfg.Required && cfg.Auth != nil {
				r.Use(RequireBearer(cfg.Auth))
			}
			r.Get("/patients", listHandler(cfg.Service.ListPatients))
			r.Post("/patients", createHandler(cfg.Service.CreatePatient))
			r.Get("/doctors", listHandler(cfg.Service.ListDoctors))
			r.Get("/appointments", listHandler(cfg.Service.ListAppointments))
			r.Post("/appointments", createHandler(cfg.Service.CreateAppointment))
		})
	})

	return r
}
