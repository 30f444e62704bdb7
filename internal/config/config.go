package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Env             string        // dev, prod
	HTTPPort        string        // default 8080
	LogLevel        string        // debug, info, warn, error
	PostgresDSN     string        // empty keeps every store in memory
	RedisAddr       string        // host:port, empty disables redis
	RedisUsername   string        // redis username
	RedisPassword   string        // redis password
	RedisDB         int           // logical database, from the REDIS_URL path or REDIS_DB
	RedisTLS        bool          // rediss:// or REDIS_TLS=true
	PostgresMaxConn int32         // pgx pool size
	GeminiAPIKey    string        // empty disables reminder generation
	GeminiModel     string        // gemini model id
	ReminderTTL     time.Duration // how long a generated reminder stays cached
	LockTTL         time.Duration // how long an appointment lock lives
	ShutdownTimeout time.Duration // graceful shutdown timeout
	WorkerInterval  time.Duration // how often the reminder worker runs
	ReminderWindow  time.Duration // how far ahead the reminder worker looks
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:             getEnv("APP_ENV", "dev"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		PostgresMaxConn: int32(getInt("POSTGRES_MAX_CONNS", 10)),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		ReminderTTL:     getDuration("REMINDER_CACHE_TTL", 24*time.Hour),
		LockTTL:         getDuration("LOCK_TTL", 5*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		WorkerInterval:  getDuration("WORKER_INTERVAL", 15*time.Minute),
		ReminderWindow:  getDuration("REMINDER_WINDOW", 24*time.Hour),
	}

	if raw := os.Getenv("REDIS_URL"); raw != "" {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		cfg.RedisAddr = opts.Addr
		cfg.RedisUsername = opts.Username
		cfg.RedisPassword = opts.Password
		cfg.RedisDB = opts.DB
		cfg.RedisTLS = opts.TLSConfig != nil
	} else {
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
		cfg.RedisUsername = os.Getenv("REDIS_USERNAME")
		cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
		cfg.RedisDB = getInt("REDIS_DB", 0)
		cfg.RedisTLS = getEnv("REDIS_TLS", "false") == "true"
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var problems []string
	for name, d := range map[string]time.Duration{
		"LOCK_TTL":         c.LockTTL,
		"SHUTDOWN_TIMEOUT": c.ShutdownTimeout,
		"WORKER_INTERVAL":  c.WorkerInterval,
		"REMINDER_WINDOW":  c.ReminderWindow,
	} {
		if d <= 0 {
			problems = append(problems, name+" must be positive")
		}
	}
	if c.PostgresMaxConn <= 0 {
		problems = append(problems, "POSTGRES_MAX_CONNS must be positive")
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// UsePostgres reports whether the persistent stores are configured.
func (c Config) UsePostgres() bool { return c.PostgresDSN != "" }

// UseRedis reports whether locks and the reminder cache go through redis.
func (c Config) UseRedis() bool { return c.RedisAddr != "" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		fmt.Fprintf(os.Stderr, "invalid integer for %s=%q, using default %d\n", key, v, def)
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		fmt.Fprintf(os.Stderr, "invalid duration for %s=%q, using default %s\n", key, v, def)
	}
	return def
}
