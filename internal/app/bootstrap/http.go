package bootstrap

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hackgods/medischedule/internal/api"
)

// Handler builds the HTTP API over the runtime's services.
func (r *Runtime) Handler(env, version string, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	// a nil *pgxpool.Pool must not reach the router as a non-nil Pinger
	var pg api.Pinger
	if r.Postgres != nil {
		pg = r.Postgres
	}

	return api.NewRouter(api.RouterConfig{
		Directory:    r.Directory,
		Resolver:     r.Resolver,
		Appointments: r.Appointments,
		Booking:      r.Booking,
		Reminders:    r.Reminders,
		Postgres:     pg,
		Redis:        r.Redis,
		Gatherer:     gatherer,
		HTTPMetrics:  r.HTTPMetrics,
		Logger:       logger,
		Env:          env,
		Version:      version,
	})
}
