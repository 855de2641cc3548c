package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/velvetrow/salon-booking/internal/auth"
	"github.com/velvetrow/salon-booking/internal/catalog"
	"github.com/velvetrow/salon-booking/internal/schedule"
)

type RouterConfig struct {
	Schedule *schedule.Service
	Auth     *auth.Service
	Catalog  *catalog.Catalog
	Tokens   *auth.TokenManager
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Public endpoints
	r.Post("/auth/register", registerHandler(cfg.Auth))
	r.Post("/auth/login", loginHandler(cfg.Auth))
	r.Get("/availability", availableTimesHandler(cfg.Schedule))
	r.Get("/calendar", classifyRangeHandler(cfg.Schedule))
	r.Get("/calendar/{date}", classifyDateHandler(cfg.Schedule))
	r.Get("/services", listServicesHandler(cfg.Catalog, true))

	am := NewAuthMiddleware(cfg.Tokens)

	// Authenticated client endpoints
	r.Group(func(r chi.Router) {
		r.Use(am.Authenticate)
		r.Post("/appointments", bookAppointmentHandler(cfg.Schedule, cfg.Catalog))
	})

	// Operator endpoints
	r.Route("/admin", func(r chi.Router) {
		r.Use(am.Authenticate)
		r.Use(am.RequireAdmin)

		r.Post("/slots", addSlotHandler(cfg.Schedule))
		r.Delete("/slots", removeSlotHandler(cfg.Schedule))
		r.Get("/slots", listSlotsHandler(cfg.Schedule))

		r.Get("/appointments", listAppointmentsHandler(cfg.Schedule))
		r.Post("/appointments/manual", manualAppointmentHandler(cfg.Schedule, cfg.Catalog))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Schedule))
		r.Post("/appointments/{id}/confirm", confirmAppointmentHandler(cfg.Schedule))
		r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Schedule))
		r.Delete("/appointments/{id}", deleteAppointmentHandler(cfg.Schedule))

		r.Get("/services", listServicesHandler(cfg.Catalog, false))
		r.Post("/services", createServiceHandler(cfg.Catalog))
		r.Put("/services/{id}", updateServiceHandler(cfg.Catalog))
		r.Delete("/services/{id}", deleteServiceHandler(cfg.Catalog))
	})

	return r
}
