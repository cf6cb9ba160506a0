package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinicbook/clinicbook-api/internal/http/respond"
	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// TokenBucket is a per-key in-process limiter for single-replica deployments.
type TokenBucket struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens per second
	burst   int
	now     func() time.Time
	calls   int
}

type bucket struct {
	tokens   float64
	lastTime time.Time
}

// NewTokenBucket allows rate requests per second per key with the given burst.
func NewTokenBucket(rate float64, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		now:     time.Now,
	}
}

func (tb *TokenBucket) Allow(key string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	tb.calls++
	if tb.calls%1024 == 0 {
		tb.evictLocked(now.Add(-10 * time.Minute))
	}

	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(tb.burst), lastTime: now}
		tb.buckets[key] = b
	}
	b.tokens += now.Sub(b.lastTime).Seconds() * tb.rate
	if b.tokens > float64(tb.burst) {
		b.tokens = float64(tb.burst)
	}
	b.lastTime = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (tb *TokenBucket) evictLocked(cutoff time.Time) {
	for key, b := range tb.buckets {
		if b.lastTime.Before(cutoff) {
			delete(tb.buckets, key)
		}
	}
}

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RedisFixedWindow counts requests per key per window in Redis so every
// replica shares one quota. It fails closed when Redis is unreachable.
type RedisFixedWindow struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedisFixedWindow creates a shared limiter of limit requests per window.
func NewRedisFixedWindow(client *redis.Client, prefix string, limit int, window time.Duration) (*RedisFixedWindow, error) {
	if client == nil {
		return nil, fmt.Errorf("middleware: redis client required")
	}
	if limit <= 0 || window < time.Millisecond {
		return nil, fmt.Errorf("middleware: rate limiter requires a positive limit and a window of at least 1ms")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "clinicbook:ratelimit"
	}
	return &RedisFixedWindow{client: client, prefix: prefix, limit: limit, window: window, now: time.Now}, nil
}

func (l *RedisFixedWindow) Allow(key string) bool {
	if strings.TrimSpace(key) == "" {
		key = "unknown"
	}
	windowMs := l.window.Milliseconds()
	slot := l.now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	count, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return false
	}
	return count <= int64(l.limit)
}

// RateLimit rejects callers over quota with 429. Keys are the client IP as
// resolved by chi's RealIP middleware.
func RateLimit(limiter Limiter, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.Allow(ip) {
				logger.Warn("rate limit exceeded", "remote_ip", ip, "path", r.URL.Path)
				respond.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
