package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/medischedule/internal/appointment"
)

// Lister is the part of *appointment.Service the prefetch worker reads.
type Lister interface {
	List(ctx context.Context, f appointment.Filter, order appointment.SortOrder) ([]appointment.View, error)
}

// Worker generates reminders for confirmed appointments starting within
// Window, so the cache already holds them when staff ask.
type Worker struct {
	svc    *Service
	appts  Lister
	window time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewWorker(svc *Service, appts Lister, window time.Duration, now func() time.Time, logger *zap.Logger) *Worker {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{svc: svc, appts: appts, window: window, now: now, logger: logger}
}

// RunOnce warms one reminder per scheduled appointment in the window and
// returns how many it produced. A failed appointment does not stop the run.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	if !w.svc.Configured() {
		return 0, ErrNotConfigured
	}

	views, err := w.appts.List(ctx, appointment.Filter{
		Status:     appointment.StatusScheduled,
		TimeWindow: appointment.WindowUpcoming,
	}, appointment.SortDateAsc)
	if err != nil {
		return 0, fmt.Errorf("list upcoming appointments: %w", err)
	}

	horizon := w.now().Add(w.window)
	var (
		warmed int
		errs   []error
	)
	for _, v := range views {
		if v.DateTime.After(horizon) {
			break
		}
		if err := ctx.Err(); err != nil {
			return warmed, err
		}
		if _, err := w.svc.Generate(ctx, RequestFor(v, "")); err != nil {
			w.logger.Warn("prefetch reminder", zap.String("appointment_id", v.ID.String()), zap.Error(err))
			errs = append(errs, fmt.Errorf("appointment %s: %w", v.ID, err))
			continue
		}
		warmed++
	}
	return warmed, errors.Join(errs...)
}

// Run calls RunOnce immediately and then every interval until ctx ends.
func (w *Worker) Run(ctx context.Context, interval time.Duration) {
	w.tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker stopping")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	start := time.Now()
	n, err := w.RunOnce(runCtx)
	if err != nil {
		w.logger.Error("reminder run failed", zap.Int("warmed", n), zap.Error(err))
		return
	}
	w.logger.Info("reminder run complete", zap.Int("warmed", n), zap.Duration("took", time.Since(start)))
}
