package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/clinicbook/clinicbook-api/internal/bookings"
	appconfig "github.com/clinicbook/clinicbook-api/internal/config"
	httpmiddleware "github.com/clinicbook/clinicbook-api/internal/http/middleware"
	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, falling back to in-process locks", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPool connects to Postgres. An empty DATABASE_URL yields a nil pool and
// the caller falls back to in-memory stores.
func BuildPool(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: parse database url: %w", err)
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	logger.Info("postgres connected", "max_conns", poolCfg.MaxConns)
	return pool, nil
}

// BuildLocker picks the Redis lock when a client is available so every
// replica serializes on the same keys.
func BuildLocker(cfg *appconfig.Config, client *redis.Client, logger *logging.Logger) bookings.Locker {
	if client == nil {
		return bookings.NewLocalLocker()
	}
	var ttl time.Duration
	if cfg != nil {
		ttl = cfg.BookingLockTTL
	}
	return bookings.NewRedisLocker(client, bookings.RedisLockConfig{TTL: ttl}, logger)
}

// BuildRateLimiter returns nil when rate limiting is disabled. With Redis the
// quota is shared across replicas as burst requests per burst/rate window.
func BuildRateLimiter(cfg *appconfig.Config, client *redis.Client, logger *logging.Logger) httpmiddleware.Limiter {
	if cfg == nil || cfg.RateLimitRPS <= 0 {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}
	if client != nil {
		window := time.Duration(float64(burst) / cfg.RateLimitRPS * float64(time.Second))
		if window < time.Second {
			window = time.Second
		}
		limiter, err := httpmiddleware.NewRedisFixedWindow(client, "clinicbook:ratelimit", burst, window)
		if err == nil {
			return limiter
		}
		logger.Warn("redis rate limiter unavailable, using in-process buckets", "error", err)
	}
	return httpmiddleware.NewTokenBucket(cfg.RateLimitRPS, burst)
}
