package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/webmarket/dental-scheduling/internal/directory"
	"github.com/webmarket/dental-scheduling/internal/scheduling"
)

type RouterConfig struct {
	Service         *scheduling.Service
	Queries         *scheduling.Queries
	Directory       directory.Store
	PgPool          *pgxpool.Pool
	Redis           *redis.Client
	Logger          *zap.Logger
	Env             string
	Version         string
	RateLimitPerSec int
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	if cfg.RateLimitPerSec > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitPerSec, time.Second))
	}
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))

	validate := validator.New()

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Appointment endpoints
	r.Post("/appointments", createAppointmentHandler(cfg.Service, validate))
	r.Get("/appointments", listAppointmentsHandler(cfg.Queries))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Queries))
	r.Put("/appointments/{id}/slot", rescheduleAppointmentHandler(cfg.Service, validate))
	r.Post("/appointments/{id}/confirm", transitionHandler(func(req *http.Request, id uuid.UUID) (*scheduling.Appointment, error) {
		return cfg.Service.Confirm(req.Context(), id)
	}))
	r.Post("/appointments/{id}/complete", transitionHandler(func(req *http.Request, id uuid.UUID) (*scheduling.Appointment, error) {
		return cfg.Service.Complete(req.Context(), id)
	}))
	r.Post("/appointments/{id}/cancel", transitionHandler(func(req *http.Request, id uuid.UUID) (*scheduling.Appointment, error) {
		return cfg.Service.Cancel(req.Context(), id)
	}))

	// Slot endpoints
	r.Post("/slots", createSlotHandler(cfg.Service, validate))
	r.Get("/slots", listSlotsHandler(cfg.Queries))
	r.Get("/slots/{id}", getSlotHandler(cfg.Queries))

	// Reference entities
	r.Get("/patients/{id}", getPatientHandler(cfg.Directory))
	r.Delete("/patients/{id}", deletePatientHandler(cfg.Directory))
	r.Get("/dentists/{id}", getDentistHandler(cfg.Directory))
	r.Delete("/dentists/{id}", deleteDentistHandler(cfg.Directory))

	return r
}
