package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/medischedule/internal/appointment"
	"github.com/hackgods/medischedule/internal/availability"
	"github.com/hackgods/medischedule/internal/booking"
	"github.com/hackgods/medischedule/internal/catalog"
	"github.com/hackgods/medischedule/internal/config"
	"github.com/hackgods/medischedule/internal/db"
	"github.com/hackgods/medischedule/internal/metrics"
	redisclient "github.com/hackgods/medischedule/internal/redis"
	"github.com/hackgods/medischedule/internal/reminder"
)

// Runtime is the wired service graph shared by the api server and the
// reminder worker.
type Runtime struct {
	Directory    catalog.Directory
	Resolver     *availability.Resolver
	Appointments *appointment.Service
	Booking      *booking.Workflow
	Reminders    *reminder.Service
	HTTPMetrics  *metrics.HTTPMetrics

	// Postgres and Redis are nil when the matching backend is disabled.
	Postgres *pgxpool.Pool
	Redis    *redis.Client

	closers []func()
}

// Build connects the configured backends and wires every service. Without
// POSTGRES_DSN the catalog and appointments live in memory, preloaded with
// the demo clinic.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger, reg prometheus.Registerer) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	now := time.Now
	rt := &Runtime{}

	var repo appointment.Repository
	if cfg.UsePostgres() {
		pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PostgresMaxConn)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		rt.Postgres = pool
		rt.closers = append(rt.closers, pool.Close)
		logger.Info("connected to postgres")

		rt.Directory = catalog.NewPgDirectory(pool)
		repo = appointment.NewPgRepository(pool)
	} else {
		logger.Warn("POSTGRES_DSN not set; using in-memory stores with demo data")
		rt.Directory = catalog.NewMemoryDirectory(catalog.Seed(now()))
		mem := appointment.NewMemoryRepository(now)
		if err := appointment.Load(ctx, mem, appointment.Seed(now())); err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		repo = mem
	}

	locker := redisclient.NewLocalLocker()
	if cfg.UseRedis() {
		rdb, err := redisclient.Connect(ctx, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TLS:      cfg.RedisTLS,
		}, logger)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		rt.Redis = rdb
		rt.closers = append(rt.closers, func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("error closing redis", zap.Error(err))
			}
		})
		locker = redisclient.NewRedisLocker(rdb, cfg.LockTTL)
	} else {
		logger.Info("REDIS_ADDR not set; using process-local appointment locks and no reminder cache")
	}

	bookingMetrics := metrics.NewBookingMetrics(reg)
	rt.HTTPMetrics = metrics.NewHTTPMetrics(reg)

	rt.Resolver = availability.NewResolver(rt.Directory, now, logger)
	rt.Appointments = appointment.NewService(appointment.Deps{
		Repo:      repo,
		Directory: rt.Directory,
		Resolver:  rt.Resolver,
		Locker:    locker,
		Metrics:   bookingMetrics,
		Logger:    logger,
		Now:       now,
	})
	rt.Booking = booking.NewWorkflow(rt.Directory, rt.Resolver, rt.Appointments, bookingMetrics, logger)

	gen, err := buildGenerator(ctx, cfg, logger)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	remCfg := reminder.Config{
		Appointments: rt.Appointments,
		Cache:        rt.Redis,
		CacheTTL:     cfg.ReminderTTL,
		Metrics:      metrics.NewReminderMetrics(reg),
		Logger:       logger,
	}
	if gen != nil {
		remCfg.Generator = gen
		rt.closers = append(rt.closers, func() { _ = gen.Close() })
	}
	rt.Reminders = reminder.NewService(remCfg)

	return rt, nil
}

// buildGenerator returns nil without an api key; reminder endpoints then
// answer 503.
func buildGenerator(ctx context.Context, cfg config.Config, logger *zap.Logger) (*reminder.GeminiGenerator, error) {
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set; reminder generation disabled")
		return nil, nil
	}
	gen, err := reminder.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, err
	}
	logger.Info("reminder generation enabled", zap.String("model", cfg.GeminiModel))
	return gen, nil
}

// Close releases backends in reverse order of acquisition.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}
