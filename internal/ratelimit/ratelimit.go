// Package ratelimit applies fixed-window request limits keyed by client
// IP. Counters live in memory by default and in Redis when the app runs
// with one, so limits hold across replicas.
package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Catalitium/catalitiumJobs/pkg/logging"
)

// Limit allows N requests per fixed window.
type Limit struct {
	N   int
	Per time.Duration
}

func PerMinute(n int) Limit { return Limit{N: n, Per: time.Minute} }
func PerHour(n int) Limit   { return Limit{N: n, Per: time.Hour} }

// Counter increments a windowed key and reports the new count. Keys are
// already unique per window; ttl only garbage-collects them.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int, error)
}

type Limiter struct {
	counter Counter
	log     *logging.Logger
	keyFn   func(*http.Request) string
	now     func() time.Time
}

func New(counter Counter, log *logging.Logger) *Limiter {
	return &Limiter{counter: counter, log: log, keyFn: clientIP, now: time.Now}
}

// Wrap enforces the limits on next. scope keeps counters of different
// routes apart. A counter failure lets the request through.
func (l *Limiter) Wrap(scope string, next http.Handler, limits ...Limit) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := l.keyFn(r)
		now := l.now()
		for _, lim := range limits {
			winSecs := int64(lim.Per / time.Second)
			bucket := now.Unix() / winSecs
			key := fmt.Sprintf("rl:%s:%s:%d:%d", scope, ip, winSecs, bucket)

			n, err := l.counter.Incr(r.Context(), key, lim.Per)
			if err != nil {
				l.log.Warn("rate limit counter unavailable", "scope", scope, "error", err)
				continue
			}
			if n > lim.N {
				retry := (bucket+1)*winSecs - now.Unix()
				w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate_limited"}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ── Memory counter ────────────────────────────────────────────────────────

type memoryEntry struct {
	count   int
	expires time.Time
}

// MemoryCounter is the in-process fallback when no Redis is configured.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	sweepAt time.Time
	now     func() time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{entries: make(map[string]*memoryEntry), now: time.Now}
}

func (m *MemoryCounter) Incr(_ context.Context, key string, ttl time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.After(m.sweepAt) {
		for k, e := range m.entries {
			if now.After(e.expires) {
				delete(m.entries, k)
			}
		}
		m.sweepAt = now.Add(time.Minute)
	}

	e, ok := m.entries[key]
	if !ok || now.After(e.expires) {
		e = &memoryEntry{expires: now.Add(ttl)}
		m.entries[key] = e
	}
	e.count++
	return e.count, nil
}

// ── Redis counter ─────────────────────────────────────────────────────────

// RedisCounter shares windows between replicas through INCR + EXPIRE.
type RedisCounter struct {
	rdb *redis.Client
}

func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	if n == 1 {
		if err := c.rdb.Expire(ctx, key, ttl).Err(); err != nil {
			return int(n), fmt.Errorf("redis expire: %w", err)
		}
	}
	return int(n), nil
}

// clientIP prefers the first X-Forwarded-For hop, then the socket peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
