package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type RouterConfig struct {
	Service AssignmentService
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Assignment endpoints
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
	r.Get("/appointments/{id}/candidates", candidatesHandler(cfg.Service))
	r.Post("/appointments/{id}/assign", autoAssignHandler(cfg.Service))
	r.Post("/appointments/{id}/assign/manual", manualAssignHandler(cfg.Service))
	r.Post("/appointments/{id}/reassign", reassignHandler(cfg.Service))
	r.Post("/assignments/batch", batchAssignHandler(cfg.Service))

	return r
}
