package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hackgods/medischedule/internal/app/bootstrap"
	"github.com/hackgods/medischedule/internal/config"
	"github.com/hackgods/medischedule/internal/reminder"
	"github.com/hackgods/medischedule/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("reminder-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.WorkerInterval),
		zap.Duration("window", cfg.ReminderWindow),
	)

	if cfg.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY is required")
	}
	if !cfg.UseRedis() {
		// without a shared cache the api server cannot see what we generate
		log.Warn("REDIS_ADDR not set; reminders will be generated but not shared")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(rootCtx, cfg, log, prometheus.NewRegistry())
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer rt.Close()

	w := reminder.NewWorker(rt.Reminders, rt.Appointments, cfg.ReminderWindow, nil, log)
	w.Run(rootCtx, cfg.WorkerInterval)
}
