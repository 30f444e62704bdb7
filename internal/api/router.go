package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/medischedule/internal/appointment"
	"github.com/hackgods/medischedule/internal/availability"
	"github.com/hackgods/medischedule/internal/booking"
	"github.com/hackgods/medischedule/internal/catalog"
	"github.com/hackgods/medischedule/internal/metrics"
	"github.com/hackgods/medischedule/internal/reminder"
)

type RouterConfig struct {
	Directory    catalog.Directory
	Resolver     *availability.Resolver
	Appointments *appointment.Service
	Booking      *booking.Workflow
	Reminders    *reminder.Service

	Postgres Pinger
	Redis    *redis.Client

	// Gatherer backs /metrics; nil means the default registry.
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
	Logger      *zap.Logger

	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	dir, res, svc := cfg.Directory, cfg.Resolver, cfg.Appointments
	if cfg.Reminders == nil {
		cfg.Reminders = reminder.NewService(reminder.Config{Appointments: svc, Logger: logger})
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger, cfg.HTTPMetrics))
	r.Use(middleware.Recoverer)
	r.Use(RoleMiddleware)

	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/patients", listPatientsHandler(dir, logger))
	r.Get("/patients/{id}", getPatientHandler(dir, logger))
	r.Get("/patients/{id}/appointments", patientHistoryHandler(dir, svc, logger))

	r.Get("/professionals", listProfessionalsHandler(dir, logger))
	r.Route("/professionals/{id}", func(r chi.Router) {
		r.Get("/", getProfessionalHandler(dir, logger))
		r.Get("/slots", slotsHandler(dir, res, logger))
		r.Get("/bookable", bookableHandler(dir, res, logger))
		r.Get("/nearest-date", nearestDateHandler(dir, res, logger))
		r.Get("/availability", monthAvailabilityHandler(dir, res, logger))
	})

	r.Get("/specialties", listSpecialtiesHandler(dir, logger))

	r.Get("/dashboard", dashboardHandler(svc, logger))

	r.Post("/appointments", createAppointmentHandler(cfg.Booking, svc, logger))
	r.Get("/appointments", listAppointmentsHandler(svc, logger))
	r.Get("/appointments/calendar", calendarHandler(svc, res, logger))
	r.Route("/appointments/{id}", func(r chi.Router) {
		r.Get("/", getAppointmentHandler(svc, logger))
		r.Post("/approve", requireStaff(statusHandler(svc, svc.Approve, logger)))
		r.Post("/complete", requireStaff(statusHandler(svc, svc.Complete, logger)))
		r.Post("/no-show", requireStaff(statusHandler(svc, svc.MarkNotAttended, logger)))
		r.Post("/cancel", statusHandler(svc, svc.Cancel, logger))
		r.Post("/reschedule", rescheduleHandler(svc, res, logger))
		r.Post("/reminder", appointmentReminderHandler(cfg.Reminders, logger))
	})

	r.Post("/reminders", generateReminderHandler(cfg.Reminders, logger))

	return r
}
