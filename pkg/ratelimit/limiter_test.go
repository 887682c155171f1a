package ratelimit

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return clock }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, _ := l.Allow(ctx, "1.2.3.4")
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Minute, res.RetryAfter)
	assert.Zero(t, res.Remaining)

	other, _ := l.Allow(ctx, "5.6.7.8")
	assert.True(t, other.Allowed, "keys are independent")

	clock = clock.Add(time.Minute)
	res, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, res.Allowed, "new window")
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	clock := time.Now()
	l := NewMemoryLimiter(5, time.Second)
	l.now = func() time.Time { return clock }

	_, _ = l.Allow(context.Background(), "a")
	_, _ = l.Allow(context.Background(), "b")
	assert.Equal(t, 2, l.Len())

	clock = clock.Add(2 * time.Second)
	l.Sweep()
	assert.Zero(t, l.Len())
}

// Runs against a real Redis when REDIS_ADDR is set.
func TestRedisLimiter_KeyLayout(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 30, 15, 0, time.UTC)
	window := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC).Unix()

	for _, prefix := range []string{"fashioncraft:auth", "fashioncraft:auth:"} {
		l := NewRedisLimiter(nil, prefix, 5, time.Minute)
		assert.Equal(t, fmt.Sprintf("fashioncraft:auth:10.0.0.1:%d", window), l.key("10.0.0.1", at))
	}
	assert.Equal(t, fmt.Sprintf("rl:a_b:%d", window), NewRedisLimiter(nil, "", 5, time.Minute).key("a b", at))
}

func TestMemoryLimiter_RunWithoutInterval(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx, 0)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	l := NewRedisLimiter(client, "test:rl:", 2, time.Minute)
	key := uuid.NewString()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}
