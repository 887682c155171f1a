package workerpool_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/fashioncraft/pkg/workerpool"
)

func TestPool_DoWaitsForResult(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Shutdown()

	const n = 100
	var count atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, pool.Do(context.Background(), func() { count.Add(1) }))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(n), count.Load())
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const size = 3
	pool := workerpool.New(size)
	defer pool.Shutdown()

	var running, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.Do(context.Background(), func() {
				now := running.Add(1)
				for {
					old := peak.Load()
					if now <= old || peak.CompareAndSwap(old, now) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				running.Add(-1)
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(size))
}

func TestPool_PanicIsReturned(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	err := pool.Do(context.Background(), func() { panic("boom") })
	require.ErrorIs(t, err, workerpool.ErrPanicked)
	assert.Contains(t, err.Error(), "boom")

	// the worker survives
	ran := false
	require.NoError(t, pool.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestPool_CancelledWhileQueued(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	blocker := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = pool.Do(context.Background(), func() {
			close(started)
			<-blocker
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var ran atomic.Bool
	err := pool.Do(ctx, func() { ran.Store(true) })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(blocker)
	// let the worker drain the skipped task
	require.NoError(t, pool.Do(context.Background(), func() {}))
	assert.False(t, ran.Load(), "task queued past its deadline must not run")
}

func TestPool_AlreadyCancelled(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pool.Do(ctx, func() { t.Error("must not run") }), context.Canceled)
}

func TestPool_ClosedAfterShutdown(t *testing.T) {
	pool := workerpool.New(2)
	pool.Shutdown()
	pool.Shutdown()

	err := pool.Do(context.Background(), func() {})
	assert.True(t, errors.Is(err, workerpool.ErrPoolClosed))
}

func TestPool_ShutdownDrainsQueue(t *testing.T) {
	pool := workerpool.New(2)

	var count atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.Do(context.Background(), func() {
				time.Sleep(time.Millisecond)
				count.Add(1)
			})
		}()
	}
	wg.Wait()
	pool.Shutdown()

	assert.Equal(t, int64(10), count.Load())
}
