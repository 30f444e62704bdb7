package redisclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Options selects the redis server shared by appointment locks and the
// reminder cache.
type Options struct {
	Addr     string
	Username string
	Password string
	DB       int
	TLS      bool
}

func clientOptions(opts Options) *redis.Options {
	out := &redis.Options{
		Addr:         opts.Addr,
		Username:     opts.Username,
		Password:     opts.Password,
		DB:           opts.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 1,
	}
	if opts.TLS {
		host, _, err := net.SplitHostPort(opts.Addr)
		if err != nil {
			host = opts.Addr
		}
		out.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
	}
	return out
}

// Connect dials redis and pings it once so a bad address fails at startup
// instead of on the first booking.
func Connect(ctx context.Context, opts Options, logger *zap.Logger) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rdb := redis.NewClient(clientOptions(opts))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	logger.Info("connected to redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB), zap.Bool("tls", opts.TLS))
	return rdb, nil
}
