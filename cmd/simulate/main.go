package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hackgods/medischedule/internal/appointment"
	"github.com/hackgods/medischedule/pkg/logger"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	ReviewRatio  float64 // staff approving or cancelling pending bookings
	ReadRatio    float64
	Timeout      time.Duration
}

// pendingPool holds bookings waiting for a staff decision.
type pendingPool struct {
	mu  sync.Mutex
	ids []string
}

func (p *pendingPool) push(id string) {
	p.mu.Lock()
	p.ids = append(p.ids, id)
	p.mu.Unlock()
}

func (p *pendingPool) pop() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.ids) == 0 {
		return "", false
	}
	id := p.ids[len(p.ids)-1]
	p.ids = p.ids[:len(p.ids)-1]
	return id, true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, err error) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case err == nil:
		atomic.AddInt64(&om.Success, 1)
	case errors.Is(err, errConflict):
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95, max time.Duration) {
	om.mu.Lock()
	latencies := append([]time.Duration(nil), om.Latencies...)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0, 0
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	n := len(latencies)
	return sum / time.Duration(n), latencies[n*50/100], latencies[min(n*95/100, n-1)], latencies[n-1]
}

type Metrics struct {
	Book   OperationMetrics
	Review OperationMetrics
	Read   OperationMetrics
}

type Simulator struct {
	config  SimConfig
	client  *apiClient
	catalog *catalogSnapshot
	pending pendingPool
	metrics Metrics
	logger  *zap.Logger
}

func main() {
	_ = godotenv.Load()

	log, err := logger.New(getEnv("APP_ENV", "dev"), getEnv("LOG_LEVEL", "info"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}
	log.Info("simulator starting",
		zap.String("api", cfg.APIBaseURL),
		zap.Duration("duration", cfg.Duration),
		zap.Int("workers", cfg.Workers),
	)

	sim, err := newSimulator(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("load catalog", zap.Error(err))
	}

	sim.Run(context.Background())
	sim.PrintReport()
}

func newSimulator(ctx context.Context, cfg SimConfig, log *zap.Logger) (*Simulator, error) {
	client := newAPIClient(cfg.APIBaseURL, cfg.Timeout)

	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	snap, err := client.loadCatalog(loadCtx)
	if err != nil {
		return nil, err
	}
	log.Info("catalog loaded",
		zap.Int("patients", len(snap.patients)),
		zap.Int("professionals", len(snap.professionals)),
	)
	return &Simulator{config: cfg, client: client, catalog: snap, logger: log}, nil
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.4),
		ReviewRatio:  getFloat("SIM_REVIEW_RATIO", 0.2),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.4),
		Timeout:      getDuration("SIM_HTTP_TIMEOUT", 10*time.Second),
	}

	total := cfg.BookingRatio + cfg.ReviewRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.ReviewRatio /= total
		cfg.ReadRatio /= total
	}
	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func (s *Simulator) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, gofakeit.New(uint64(time.Now().UnixNano())+uint64(workerID)))
		}(i)
	}
	wg.Wait()
	s.logger.Info("simulation complete")
}

var readPaths = []string{
	"/appointments?window=upcoming",
	"/appointments?status=pending_approval&sort=date_asc",
	"/appointments/calendar",
	"/dashboard",
}

func (s *Simulator) worker(ctx context.Context, faker *gofakeit.Faker) {
	for ctx.Err() == nil {
		r := faker.Float64()
		switch {
		case r < s.config.BookingRatio:
			s.doBook(ctx, faker)
		case r < s.config.BookingRatio+s.config.ReviewRatio:
			s.doReview(ctx, faker)
		default:
			start := time.Now()
			err := s.client.read(ctx, readPaths[faker.Number(0, len(readPaths)-1)])
			s.record(ctx, &s.metrics.Read, start, err)
		}
	}
}

func (s *Simulator) doBook(ctx context.Context, faker *gofakeit.Faker) {
	start := time.Now()
	created, err := s.client.book(ctx, s.catalog, appointment.RolePatient, faker)
	if err == nil && created == nil {
		// the professional had nothing open
		return
	}
	s.record(ctx, &s.metrics.Book, start, err)
	if err == nil && created.Status == appointment.StatusPendingApproval {
		s.pending.push(created.ID.String())
	}
}

// doReview approves most pending bookings and cancels the rest.
func (s *Simulator) doReview(ctx context.Context, faker *gofakeit.Faker) {
	id, ok := s.pending.pop()
	if !ok {
		return
	}
	action := "approve"
	if faker.Number(1, 10) > 8 {
		action = "cancel"
	}

	start := time.Now()
	err := s.client.action(ctx, id, action, appointment.RoleStaff)
	s.record(ctx, &s.metrics.Review, start, err)
}

func (s *Simulator) record(ctx context.Context, om *OperationMetrics, start time.Time, err error) {
	if ctx.Err() != nil {
		// requests cut off by the end of the run are not failures
		return
	}
	if err != nil && !errors.Is(err, errConflict) {
		s.logger.Debug("request failed", zap.Error(err))
	}
	om.Record(time.Since(start), err)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n\n", s.config.Workers)

	printOperationReport("Book (patient)", &s.metrics.Book)
	printOperationReport("Approve/Cancel (staff)", &s.metrics.Review)
	printOperationReport("Reads", &s.metrics.Read)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}
	pct := func(n int64) float64 { return float64(n) / float64(total) * 100 }

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)
	avg, p50, p95, max := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, pct(success))
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, pct(conflict))
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, pct(failed))
	}
	fmt.Printf("  Latency: avg=%s p50=%s p95=%s max=%s\n\n",
		avg.Round(time.Millisecond), p50.Round(time.Millisecond),
		p95.Round(time.Millisecond), max.Round(time.Millisecond))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
