package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

// Locker serializes booking creation per key. The returned release func is
// safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLockConfig tunes the distributed lock.
type RedisLockConfig struct {
	Prefix string
	// TTL bounds how long a crashed holder can block the key.
	TTL time.Duration
	// Wait is how long Acquire polls before giving up with ErrLockBusy.
	Wait  time.Duration
	Retry time.Duration
}

// RedisLocker is a SET NX PX lock shared by every API replica.
type RedisLocker struct {
	client *redis.Client
	cfg    RedisLockConfig
	logger *logging.Logger
}

// NewRedisLocker creates a Redis-backed locker.
func NewRedisLocker(client *redis.Client, cfg RedisLockConfig, logger *logging.Logger) *RedisLocker {
	if client == nil {
		panic("bookings: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.Prefix) == "" {
		cfg.Prefix = "clinicbook:booking-lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Second
	}
	if cfg.Wait <= 0 {
		cfg.Wait = cfg.TTL
	}
	if cfg.Retry <= 0 {
		cfg.Retry = 25 * time.Millisecond
	}
	return &RedisLocker{client: client, cfg: cfg, logger: logger}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := l.cfg.Prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.cfg.Wait)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.cfg.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("bookings: acquire lock: %w", err)
		}
		if ok {
			var once sync.Once
			return func() { once.Do(func() { l.release(redisKey, token) }) }, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockBusy
		}

		timer := time.NewTimer(l.cfg.Retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *RedisLocker) release(redisKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		l.logger.Warn("failed to release booking lock", "error", err, "key", redisKey)
	}
}

// LocalLocker is an in-process keyed mutex for single-replica deployments.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	held chan struct{}
	refs int
}

// NewLocalLocker creates an empty keyed mutex.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*keyLock)}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{held: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.held <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-kl.held
				l.drop(key, kl)
			})
		}, nil
	case <-ctx.Done():
		l.drop(key, kl)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) drop(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}
