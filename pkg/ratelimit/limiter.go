// Package ratelimit implements fixed-window request limiting, backed by
// Redis when several instances share the budget or by process memory.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result describes one limiter decision.
type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// ─── Redis ───────────────────────────────────────────────────────────────────

// RedisLimiter counts hits per key and window with INCR + EXPIRE.
type RedisLimiter struct {
	client redis.Cmdable
	prefix string
	max    int64
	window time.Duration
	now    func() time.Time
}

// NewRedisLimiter allows max hits per window for each key. Keys are
// namespaced as prefix:key:window, a missing trailing colon is added.
func NewRedisLimiter(client redis.Cmdable, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	if !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &RedisLimiter{client: client, prefix: prefix, max: int64(max), window: window, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := l.key(key, l.now())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("ratelimit: redis: %w", err)
	}

	return decide(incr.Val(), l.max, ttl.Val(), l.window), nil
}

func (l *RedisLimiter) key(client string, now time.Time) string {
	winStart := now.UTC().Truncate(l.window)
	return fmt.Sprintf("%s%s:%d", l.prefix, strings.ReplaceAll(client, " ", "_"), winStart.Unix())
}

// ─── Memory ──────────────────────────────────────────────────────────────────

// bucket tracks the hit count of one key in the current window.
type bucket struct {
	count   int64
	resetAt time.Time
}

// MemoryLimiter keeps buckets in process memory. Expired buckets are
// evicted by Sweep, which Run calls periodically.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	max     int64
	window  time.Duration
	now     func() time.Time
}

// NewMemoryLimiter allows max hits per window for each key.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		buckets: map[string]*bucket{},
		max:     int64(max),
		window:  window,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}
	b.count++

	return decide(b.count, l.max, b.resetAt.Sub(now), l.window), nil
}

// Sweep drops buckets whose window has passed.
func (l *MemoryLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, key)
		}
	}
}

// Run sweeps every interval until ctx is done. A non-positive interval
// falls back to the window.
func (l *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = l.window
	}
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// Len returns the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func decide(hits, max int64, ttl, window time.Duration) Result {
	res := Result{Allowed: hits <= max, Remaining: max - hits}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = ttl
		if res.RetryAfter <= 0 {
			res.RetryAfter = window
		}
	}
	return res
}
