// Package api exposes the scheduling core over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/slotwise/appointment-scheduling/internal/observability/metrics"
)

// RouterDeps collects everything the HTTP surface needs.
type RouterDeps struct {
	Appointments AppointmentService
	Providers    ProviderService
	Postgres     postgresPinger
	Redis        *redis.Client
	Metrics      *metrics.SchedulingMetrics
	Registry     *prometheus.Registry
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestID)
	r.Use(RequestLogger(deps.Metrics))

	health := &healthHandler{pg: deps.Postgres, redis: deps.Redis}
	r.Get("/health/live", health.live)
	r.Get("/health/ready", health.ready)

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	appts := &appointmentHandler{svc: deps.Appointments}
	providers := &providerHandler{svc: deps.Providers}

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", appts.create)
		r.Get("/", appts.list)
		r.Get("/{id}", appts.get)
		r.Put("/{id}", appts.reschedule)
		r.Delete("/{id}", appts.cancel)
	})

	r.Route("/providers", func(r chi.Router) {
		r.Get("/", providers.list)
		r.Post("/", providers.create)
		r.Get("/{id}", providers.get)
		r.Put("/{id}", providers.update)
		r.Delete("/{id}", providers.delete)
		r.Post("/{id}/schedule", providers.updateSchedule)
		r.Get("/{id}/availability", appts.availability)
	})

	return r
}
